package pipeline

import (
	"net/http"
	"strconv"
	"time"

	"github.com/astralhq/chatgate/pkg/common"
	"github.com/astralhq/chatgate/pkg/types"
	"github.com/astralhq/chatgate/pkg/validate"
)

// Fallback copy when a denial or failure carries no message of its own. The
// client renders whatever content it gets, so it must never be empty.
const (
	genericDenyMessage  = "I can't help with that one. Let's talk about something else."
	genericFatalMessage = "Something went wrong on my end. Please try again in a moment."
)

// Denial envelopes are not estimator outputs; they carry the estimator's
// floor so the field stays inside its documented range on every path.
const denialConfidence = 0.3

// Result is the fully assembled outcome of one request: everything the
// transport layer needs to write the response without further decisions.
type Result struct {
	Status   int
	Envelope types.ChatResponse
	Headers  map[string]string

	// FieldErrors is set instead of Envelope on validation failures, which
	// return a plain error body rather than the chat envelope.
	FieldErrors validate.FieldErrors
}

func assembleDeny(deny *types.Deny) *Result {
	content := deny.Message
	if content == "" {
		content = genericDenyMessage
	}

	result := &Result{
		Status: deny.StatusCode,
		Envelope: types.ChatResponse{
			Content:    content,
			Provider:   deny.Provider,
			Confidence: denialConfidence,
			Cached:     false,
			Warnings:   []string{deny.Warning},
		},
		Headers: map[string]string{},
	}

	if rl := deny.RateLimit; rl != nil {
		result.Headers[common.RateLimitLimit] = strconv.Itoa(rl.Limit)
		result.Headers[common.RateLimitRemaining] = strconv.Itoa(rl.Remaining)
		result.Headers[common.RateLimitReset] = strconv.FormatInt(rl.ResetAt.Unix(), 10)
		retryAfter := int(time.Until(rl.ResetAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		result.Headers[common.RetryAfterHeader] = strconv.Itoa(retryAfter)
	}

	return result
}

func assembleValidation(errs validate.FieldErrors) *Result {
	return &Result{
		Status:      http.StatusBadRequest,
		FieldErrors: errs,
		Headers:     map[string]string{},
	}
}

func assembleFatal() *Result {
	return &Result{
		Status: http.StatusInternalServerError,
		Envelope: types.ChatResponse{
			Content:    genericFatalMessage,
			Provider:   types.ProviderError,
			Confidence: denialConfidence,
			Cached:     false,
			Warnings:   []string{types.WarningFatal},
		},
		Headers: map[string]string{},
	}
}

func assembleSuccess(
	content, providerID string,
	confidence float64,
	cached bool,
	warnings []string,
	elapsed time.Duration,
) *Result {
	if warnings == nil {
		warnings = []string{}
	}
	return &Result{
		Status: http.StatusOK,
		Envelope: types.ChatResponse{
			Content:    content,
			Provider:   providerID,
			Confidence: confidence,
			Cached:     cached,
			Warnings:   warnings,
		},
		Headers: map[string]string{
			common.RequestTimeHeader: strconv.FormatInt(elapsed.Milliseconds(), 10),
			common.ProviderHeader:    providerID,
		},
	}
}
