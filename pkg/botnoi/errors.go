package botnoi

import (
	"fmt"
	"time"
)

// RemoteError is a non-2xx answer from the provider. Body is kept verbatim
// (up to maxErrorBody bytes) so it can be shown to the user.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("botnoi: API error (status %d): %s", e.Status, e.Body)
}

// MalformedResponseError is a 2xx answer that carries no usable audio_url.
type MalformedResponseError struct {
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("botnoi: malformed response: %v", e.Err)
	}
	return "botnoi: malformed response: missing audio_url"
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// TimeoutError means no answer arrived within the client deadline.
type TimeoutError struct {
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("botnoi: no response after %s", e.After)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
