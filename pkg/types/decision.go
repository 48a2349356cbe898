package types

// Provider tags attached to denial envelopes. A success envelope carries the
// identifier of the provider that actually generated the reply instead.
const (
	ProviderMaintenance = "maintenance"
	ProviderSecurity    = "security"
	ProviderBotID       = "botid"
	ProviderRateLimit   = "ratelimit"
	ProviderGuardian    = "guardian"
	ProviderError       = "error"
)

// Warning tags carried in the envelope's warnings list.
const (
	WarningInputBlocked    = "input_blocked"
	WarningMaintenance     = "maintenance_mode"
	WarningIPBlocked       = "ip_blocked"
	WarningBotDetected     = "bot_detected"
	WarningRateLimited     = "rate_limited"
	WarningOutputSanitized = "output_sanitized"
	WarningFatal           = "generation_failed"
)

// Deny is a terminal stage outcome. Once produced, no later stage runs and
// no later side effect (token spend, provider call) happens.
type Deny struct {
	StatusCode int
	Provider   string
	Message    string
	Warning    string

	// RateLimit is set only on rate-limit denials so the assembler can
	// reproduce the limiter state as response headers.
	RateLimit *RateLimitResult
}

// Decision is the outcome of an admission or moderation stage: either
// continue to the next stage or stop with a Deny.
type Decision struct {
	Deny *Deny
}

// Continue lets the request proceed to the next stage.
func Continue() Decision {
	return Decision{}
}

// DenyWith stops the pipeline with the given terminal outcome.
func DenyWith(d *Deny) Decision {
	return Decision{Deny: d}
}

// Denied reports whether the decision is terminal.
func (d Decision) Denied() bool {
	return d.Deny != nil
}
