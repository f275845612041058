package prompt

import (
	"fmt"
	"strings"

	"github.com/roach88/hoabench/internal/scenario"
)

// Persona renders the system instruction for the homeowner actor in a
// simulated episode. The persona already sent opening as its first message.
func Persona(p *scenario.Persona, opening string) string {
	name := "a homeowner"
	if p != nil && p.Name != "" {
		name = p.Name + ", a homeowner"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s in Camino Village HOA, talking with the HOA manager.\n\n", name)
	b.WriteString("You opened the conversation with:\n")
	b.WriteString("\"" + opening + "\"\n\n")
	if p != nil {
		fmt.Fprintf(&b, "Your goal: %s\n", p.Goal)
		fmt.Fprintf(&b, "You want the manager's decision to be: %s\n", p.Desired())
		if len(p.Tactics) > 0 {
			b.WriteString("\nTactics you may use:\n")
			for _, t := range p.Tactics {
				fmt.Fprintf(&b, "- %s\n", t)
			}
		}
	}
	b.WriteString("\nStay in character. Reply only with your next message to the manager. ")
	b.WriteString("Do not decide on the manager's behalf and do not mention that this is a simulation.\n")
	return b.String()
}
