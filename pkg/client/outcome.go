package client

import (
	"encoding/json"
	"fmt"

	"github.com/cwenzel/shopify-export/pkg/catalog"
)

// Kind classifies a single request's result. Every response maps to exactly
// one kind; callers branch on it instead of inspecting status codes.
type Kind string

const (
	// KindPayload is a usable GraphQL data document.
	KindPayload Kind = "payload"

	// KindRateLimited is a hard 429 throttle. Transient.
	KindRateLimited Kind = "rate_limited"

	// KindServerError is a 5xx response. Transient.
	KindServerError Kind = "server_error"

	// KindClientError is any other non-2xx response or a logical GraphQL
	// error inside a 200. Not transient.
	KindClientError Kind = "client_error"

	// KindConnectionFailure is a network or decode failure before a
	// classifiable response was obtained. Not transient.
	KindConnectionFailure Kind = "connection_failure"
)

// Outcome is the classified result of one Post call.
type Outcome struct {
	Kind   Kind
	Status int

	// Data is the raw GraphQL data document. Set only for KindPayload.
	Data json.RawMessage

	// Throttle carries the advisory credit budget when the response
	// included cost extensions.
	Throttle *catalog.ThrottleStatus

	// Message describes the failure for non-payload kinds.
	Message string
}

// Err converts a non-payload outcome to an error. Payload outcomes return
// nil.
func (o Outcome) Err() error {
	if o.Kind == KindPayload {
		return nil
	}
	return &APIError{Kind: o.Kind, Status: o.Status, Message: o.Message}
}

// APIError is a classified Admin API failure.
type APIError struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("admin API %s (status %d): %s", e.Kind, e.Status, e.Message)
}

// Transient reports whether retrying the same request can succeed.
func (e *APIError) Transient() bool {
	return e.Kind == KindRateLimited || e.Kind == KindServerError
}
