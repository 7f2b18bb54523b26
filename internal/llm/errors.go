package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned when a provider needs an API key
	// and none is configured.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrNonJSON is returned when a completion contains no JSON object.
	ErrNonJSON = errors.New("model response is not JSON")
)

// APIError is a non-2xx answer from the upstream completion endpoint.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Provider, e.Status, e.Message)
}

// IsAuthError reports whether err is an upstream 401/403.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == 401 || apiErr.Status == 403
	}
	return errors.Is(err, ErrMissingCredential)
}
