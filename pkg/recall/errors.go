package recall

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// maxErrorBodyLength caps how much of a response body an error message quotes.
const maxErrorBodyLength = 512

// RemoteAPIError is returned for any non-2xx response from the remote API.
type RemoteAPIError struct {
	Method     string `json:"method"      yaml:"method"`
	URL        string `json:"url"         yaml:"url"`
	StatusCode int    `json:"status_code" yaml:"status_code"`
	Body       string `json:"body"        yaml:"body"`
}

// Error implements the error interface.
func (e *RemoteAPIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBodyLength {
		body = body[:maxErrorBodyLength] + "..."
	}

	msg := fmt.Sprintf("remote API returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Method != "" {
		msg = fmt.Sprintf("%s %s: %s", e.Method, e.URL, msg)
	}

	if body != "" {
		msg += ": " + body
	}

	return msg
}

// MalformedResponseError is returned when a response body does not have the
// expected JSON shape: an array for list, an object for get and update.
type MalformedResponseError struct {
	Operation string
	Reason    string
	Err       error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	msg := "malformed " + e.Operation + " response"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying decode or validation error.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ConfigurationError is returned when required configuration is missing or invalid.
type ConfigurationError struct {
	Key    string
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %q: %s", e.Key, e.Reason)
}

// Static errors for err113 compliance.
var (
	ErrMissingID          = errors.New("record has no id")
	ErrDuplicateID        = errors.New("duplicate record id")
	ErrTrailingData       = errors.New("unexpected data after the JSON value")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrEmptyUpdate        = errors.New("update payload changes nothing")
	ErrIDRequired         = errors.New("record id is required")
	ErrConfigRequired     = errors.New("config is required")
	ErrCacheMiss          = errors.New("key not found")
	ErrCacheEntryExpired  = errors.New("entry expired")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrUnknownFilterField = errors.New("unknown filter column")
	ErrUnknownRecord      = errors.New("record is not in the loaded collection")
)

// IsRemoteAPIError reports whether err is a RemoteAPIError and returns it.
func IsRemoteAPIError(err error) (*RemoteAPIError, bool) {
	apiErr := &RemoteAPIError{}
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// IsNotFound checks if the error is a 404 from the remote API.
func IsNotFound(err error) bool {
	apiErr, ok := IsRemoteAPIError(err)

	return ok && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the remote API rejected the API key.
func IsUnauthorized(err error) bool {
	apiErr, ok := IsRemoteAPIError(err)

	return ok && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}

// IsMalformedResponse checks if the error is a MalformedResponseError.
func IsMalformedResponse(err error) bool {
	malformed := &MalformedResponseError{}

	return errors.As(err, &malformed)
}

// IsConfigurationError checks if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	configErr := &ConfigurationError{}

	return errors.As(err, &configErr)
}
