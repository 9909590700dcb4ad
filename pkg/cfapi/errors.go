package cfapi

import (
	"fmt"
	"strings"
)

// ErrorKind is the machine-facing classification of an API failure.
type ErrorKind string

const (
	// KindInvalidAuth means the credentials themselves were rejected.
	KindInvalidAuth ErrorKind = "invalid-auth"

	// KindMissingPermission means the credentials are valid but lack a
	// specific scope. Permission names the scope to add when known.
	KindMissingPermission ErrorKind = "missing-permission"

	// KindNotFound means the target resource does not exist (or the
	// credentials cannot see it).
	KindNotFound ErrorKind = "not-found"

	// KindGeneric covers every other non-success response, including rate
	// limiting and server errors. Never retried.
	KindGeneric ErrorKind = "generic"
)

// ErrorEntry is one entry of the vendor error envelope.
type ErrorEntry struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError is a classified failure from the Cloudflare API. Produced only on
// non-success responses and surfaced immediately to the command layer.
type APIError struct {
	// Status is the HTTP status code of the failing response.
	Status int

	// Kind is the classification.
	Kind ErrorKind

	// Errors is the vendor error list, in envelope order. Always has at
	// least one entry; a synthesized generic entry is used when the body
	// could not be decoded.
	Errors []ErrorEntry

	// Permission is the permission string the caller should add. Set only
	// for KindMissingPermission, and only when it could be determined.
	Permission string

	// AuthScheme names the authentication scheme in effect when this error
	// was produced ("token" or "key").
	AuthScheme string

	// Endpoint is the request path, used for permission hints.
	Endpoint string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cloudflare API error (%s, status %d): %s", e.Kind, e.Status, e.Message())
}

// Message returns the vendor-supplied human message of the first error entry.
func (e *APIError) Message() string {
	if len(e.Errors) == 0 {
		return "unknown error"
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		if entry.Code != 0 {
			msgs = append(msgs, fmt.Sprintf("%s (code %d)", entry.Message, entry.Code))
		} else {
			msgs = append(msgs, entry.Message)
		}
	}
	return strings.Join(msgs, "; ")
}

// classify turns a non-success response into a classified error.
//
// 404 is always not-found, regardless of body content. 401/403 is
// missing-permission when any vendor message matches the authorization
// pattern, otherwise invalid-auth. Everything else is generic with the raw
// code/message list preserved.
func classify(status int, entries []ErrorEntry, endpoint, scheme string) *APIError {
	apiErr := &APIError{
		Status:     status,
		Errors:     entries,
		AuthScheme: scheme,
		Endpoint:   endpoint,
	}

	switch {
	case status == 404:
		apiErr.Kind = KindNotFound
	case status == 401 || status == 403:
		apiErr.Kind = KindInvalidAuth
		for _, entry := range entries {
			if matchesAuthorization(entry.Message) {
				apiErr.Kind = KindMissingPermission
				apiErr.Permission = requiredPermission(endpoint, entry.Message)
				break
			}
		}
	default:
		apiErr.Kind = KindGeneric
	}

	return apiErr
}
