package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
)

//go:embed template/system.txt
var systemRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	System string
}

// LoadPromptSet returns the embedded prompts, trimmed.
func LoadPromptSet() PromptSet {
	return PromptSet{
		System: strings.TrimSpace(systemRaw),
	}
}

// LoadPromptSetFrom replaces the system prompt with the file at path when
// path is non-empty.
func LoadPromptSetFrom(path string) (PromptSet, error) {
	set := LoadPromptSet()
	path = strings.TrimSpace(path)
	if path == "" {
		return set, set.Validate()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return PromptSet{}, fmt.Errorf("read system prompt: %w", err)
	}
	set.System = strings.TrimSpace(string(raw))
	return set, set.Validate()
}

func (p PromptSet) Validate() error {
	if p.System == "" {
		return fmt.Errorf("%w: system", contractx.ErrPromptMissing)
	}
	return nil
}
