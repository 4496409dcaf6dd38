package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError reports a verification response that was neither success nor a
// clean rejection. Callers use it to tell a broken backend apart from an
// invalid token.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// VerifyToken asks the backend whether token is currently valid. It returns
// (true, nil) on any 2xx response and (false, nil) on 401. Every other
// outcome, transport failures included, is an error: the token's validity is
// unknown, which is not the same as invalid. Exactly one request is made.
func (c *Client) VerifyToken(ctx context.Context, token string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/token/verify"), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.authHeader, token)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("verifying token: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, &StatusError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp)}
	}
}

// readErrorMessage extracts a short diagnostic from an error response body.
func readErrorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return msg
}
