// Package validate checks the chat payload shape before any costly work.
package validate

import (
	"github.com/astralhq/chatgate/pkg/types"
)

// FieldErrors maps a field name to what is wrong with it.
type FieldErrors map[string]string

// ChatRequest returns nil when the payload is well formed. Violations carry
// no side effects beyond those the admission controller already executed.
func ChatRequest(req *types.ChatRequest) FieldErrors {
	errs := FieldErrors{}

	if len(req.Messages) == 0 {
		errs["messages"] = "at least one message is required"
	} else {
		hasUser := false
		for _, m := range req.Messages {
			if m.Role != types.RoleUser && m.Role != types.RoleAssistant {
				errs["messages"] = "message roles must be user or assistant"
				break
			}
			if m.Content == "" {
				errs["messages"] = "message content must not be empty"
				break
			}
			if m.Role == types.RoleUser {
				hasUser = true
			}
		}
		if _, bad := errs["messages"]; !bad && !hasUser {
			errs["messages"] = "at least one message must have the user role"
		}
	}

	if req.UserID == "" {
		errs["userId"] = "userId is required"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
