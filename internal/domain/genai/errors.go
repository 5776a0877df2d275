package genai

import "errors"

// ErrQuotaExceeded indicates the provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrStreamConsumed is yielded when an assembled sequence is ranged over twice.
var ErrStreamConsumed = errors.New("stream already consumed")

// ErrInvocation wraps transport and provider failures.
var ErrInvocation = errors.New("model invocation failed")
