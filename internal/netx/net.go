// Package netx holds HTTP helpers shared by the pinning and explorer clients.
package netx

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// MaxErrorBody caps how much of a failed response body is kept in errors.
const MaxErrorBody = 512

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.Code, e.Body)
}

// Do sends req and returns the full body of a 2xx response. Any other status
// becomes a *StatusError carrying an excerpt of the body.
func Do(client *http.Client, service string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBody+1))
		return nil, &StatusError{Service: service, Code: resp.StatusCode, Body: Excerpt(raw)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", service, err)
	}
	return raw, nil
}

// Excerpt trims b and cuts it to at most MaxErrorBody bytes without
// splitting a UTF-8 sequence.
func Excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= MaxErrorBody {
		return s
	}
	cut := MaxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
