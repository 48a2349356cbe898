package types

import "time"

// Message roles accepted on the chat endpoint. RoleSystem is outbound only:
// the gateway prepends it for the generation call, clients cannot send it.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single turn of the conversation, in conversational order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserContext carries optional profile attributes used to personalize the
// system prompt. Absent fields are simply omitted from the prompt.
type UserContext struct {
	Name            string `json:"name,omitempty"`
	PersonalityType string `json:"personalityType,omitempty"`
	Sign            string `json:"sign,omitempty"`
	CurrentTopic    string `json:"currentTopic,omitempty"`
	Mood            string `json:"mood,omitempty"`
}

// ChatRequest is the inbound request body for the chat endpoint.
type ChatRequest struct {
	Messages []Message    `json:"messages"`
	UserID   string       `json:"userId"`
	Context  *UserContext `json:"context,omitempty"`
}

// LastUserIndex returns the index of the last message with the user role,
// or -1 if there is none.
func (r *ChatRequest) LastUserIndex() int {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return i
		}
	}
	return -1
}

// ProviderResponse is what the provider orchestrator returns for one
// generation call.
type ProviderResponse struct {
	Content    string `json:"content"`
	ProviderID string `json:"provider_id"`
	TokensUsed int    `json:"tokens_used"`
	Cached     bool   `json:"cached"`
}

// ChatResponse is the uniform envelope returned on every path, success or
// not, so the client can always render a chat bubble.
type ChatResponse struct {
	Content    string   `json:"content"`
	Provider   string   `json:"provider"`
	Confidence float64  `json:"confidence"`
	Cached     bool     `json:"cached"`
	Warnings   []string `json:"warnings"`
}

// RateLimitResult is the limiter verdict for one request. Limit, Remaining
// and ResetAt must be reproducible as response headers on a denial.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// BotVerdict classifies the caller of one request.
type BotVerdict struct {
	IsBot         bool
	IsVerifiedBot bool
}

// MaintenanceStatus is the process-wide maintenance flag payload.
type MaintenanceStatus struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}
