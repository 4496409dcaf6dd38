package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// identityFromToken extracts display fields from a JWT without verifying it.
// The backend is the authority on validity; this only decorates CLI output.
func identityFromToken(token string) (subject string, expiry time.Time) {
	parser := jwt.Parser{}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", time.Time{}
	}

	if email, ok := claims["email"].(string); ok && email != "" {
		subject = email
	} else if username, ok := claims["preferred_username"].(string); ok && username != "" {
		subject = username
	} else if sub, ok := claims["sub"].(string); ok && sub != "" {
		subject = sub
	}

	if exp, ok := claims["exp"].(float64); ok && exp > 0 {
		expiry = time.Unix(int64(exp), 0)
	}
	return subject, expiry
}

func printIdentity(w io.Writer, token string) {
	subject, expiry := identityFromToken(token)
	switch {
	case subject != "" && !expiry.IsZero():
		_, _ = fmt.Fprintf(w, "Authenticated as %s. Token expires at %s\n", subject, expiry.UTC().Format(time.RFC3339))
	case subject != "":
		_, _ = fmt.Fprintf(w, "Authenticated as %s\n", subject)
	default:
		_, _ = fmt.Fprintln(w, "Authenticated.")
	}
}
