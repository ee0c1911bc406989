package prompt

import (
	"fmt"
	"strings"

	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

// BuildInstructions derives the per-round instruction text from the base
// prompt and the cart. It reads cart and never mutates it.
func BuildInstructions(base string, cart *statex.Cart) string {
	base = strings.TrimSpace(base)
	if cart == nil {
		return base
	}
	n := cart.ItemCount()
	if n == 0 {
		return base
	}

	noun := "items"
	if n == 1 {
		noun = "item"
	}
	return fmt.Sprintf("%s\n\nThe customer currently has %d %s in the cart. Remind them to finish the order when appropriate.", base, n, noun)
}
