package orchestratornode

import (
	"regexp"
	"strings"

	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

const FallbackReply = "Sorry, I couldn't put together a response. Could you please try again?"

// Some models leak their tool-call syntax into the text channel.
var callMarkup = regexp.MustCompile(`(?s)<(function|tool_call)[^>]*>.*?</(function|tool_call)>|<(function|tool_call)[^>]*/?>|</(function|tool_call)>`)

func ExtractReply(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, errNilGraphState
	}
	if in.LoopErr == nil {
		in.Reply = ExtractAssistantText(in.Session.History, in.NBefore)
	}
	return in, nil
}

// ExtractAssistantText returns the newest assistant text produced after
// index nBefore, falling back to the newest tool output and then to
// FallbackReply.
func ExtractAssistantText(messages []statex.Message, nBefore int) string {
	if nBefore < 0 {
		nBefore = 0
	}
	if nBefore > len(messages) {
		nBefore = len(messages)
	}
	turn := messages[nBefore:]

	for i := len(turn) - 1; i >= 0; i-- {
		m := turn[i]
		if m.Role != statex.RoleAssistant || strings.TrimSpace(m.Content) == "" {
			continue
		}
		if cleaned := stripCallMarkup(m.Content); cleaned != "" {
			return cleaned
		}
	}

	for i := len(turn) - 1; i >= 0; i-- {
		m := turn[i]
		if m.Role == statex.RoleTool && strings.TrimSpace(m.Content) != "" {
			return m.Content
		}
	}

	return FallbackReply
}

func stripCallMarkup(s string) string {
	return strings.TrimSpace(callMarkup.ReplaceAllString(s, ""))
}
