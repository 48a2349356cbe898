// Package prompt renders the system prompt sent ahead of the conversation.
package prompt

import (
	"strings"

	"github.com/astralhq/chatgate/pkg/types"
)

// DefaultTemplate is the fixed personality the assistant speaks with when
// the operator does not override it.
const DefaultTemplate = "You are Astra, a warm and perceptive companion. " +
	"You listen closely, answer briefly, and never give medical, legal or financial advice."

// Build renders the system prompt from the base template plus the optional
// user context. Present fields are appended one line each in a fixed order;
// absent fields leave no placeholder. Identical inputs always produce
// byte-identical output, which downstream confidence reasoning relies on.
func Build(baseTemplate string, userCtx *types.UserContext) string {
	var b strings.Builder
	b.WriteString(baseTemplate)

	if userCtx == nil {
		return b.String()
	}

	if userCtx.Name != "" {
		b.WriteString("\nThe user's name is ")
		b.WriteString(userCtx.Name)
		b.WriteString(".")
	}
	if userCtx.PersonalityType != "" {
		b.WriteString("\nTheir personality type is ")
		b.WriteString(userCtx.PersonalityType)
		b.WriteString(".")
	}
	if userCtx.Sign != "" {
		b.WriteString("\nTheir astrological sign is ")
		b.WriteString(userCtx.Sign)
		b.WriteString(".")
	}
	if userCtx.CurrentTopic != "" {
		b.WriteString("\nThe current topic is ")
		b.WriteString(userCtx.CurrentTopic)
		b.WriteString(".")
	}
	if userCtx.Mood != "" {
		b.WriteString("\nThey are currently feeling ")
		b.WriteString(userCtx.Mood)
		b.WriteString(".")
	}

	return b.String()
}
