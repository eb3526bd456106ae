package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL      = errors.New("invalid url")
	ErrInvalidResponse = errors.New("invalid response")

	// ErrUnknown covers an envelope that is neither a success with a value
	// nor a failure with a reason.
	ErrUnknown = errors.New("Unknown error.")
	ErrNoData  = errors.New("No data error.")
)

type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d", e.StatusCode)
}

type EncodingError struct {
	Message string
}

func (e *EncodingError) Error() string {
	return "encoding failed: " + e.Message
}

type DecodingError struct {
	Message string
}

func (e *DecodingError) Error() string {
	return "decoding failed: " + e.Message
}

// ServerError is a failure reported by the remote service inside the
// envelope. Its message is shown to users verbatim.
type ServerError struct {
	Reason string
}

func (e *ServerError) Error() string {
	return e.Reason
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
