package cms

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrInvalidQuery is returned for queries the content API would reject:
// a non-positive page size or an ordering on a field that cannot be sorted.
var ErrInvalidQuery = errors.New("cms: invalid query")

// FetchError reports a transport failure or a non-2xx response.
type FetchError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("cms: %s %s: status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("cms: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NotFoundError reports that no document matches the requested uid.
type NotFoundError struct {
	UID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cms: post %q not found", e.UID)
}

// MalformedDataError reports a response that could not be decoded or that is
// missing required fields.
type MalformedDataError struct {
	Reason string
	Err    error
}

func (e *MalformedDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cms: malformed response: %s: %v", e.Reason, e.Err)
	}
	return "cms: malformed response: " + e.Reason
}

func (e *MalformedDataError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsFetchError reports whether err is or wraps a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// redact strips the access token from u so it never ends up in logs.
func redact(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	q := parsed.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
		parsed.RawQuery = q.Encode()
	}
	return parsed.String()
}
