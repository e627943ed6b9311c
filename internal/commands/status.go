package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskmgr/internal/exitcode"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd shows the stored session. Token claims are decoded without
// verification; the backend is the only judge of validity.
type StatusCmd struct{}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return []string{"whoami"} }
func (c *StatusCmd) Synopsis() string  { return "Show the stored session" }
func (c *StatusCmd) Usage() string     { return "taskmgr status [common flags]" }
func (c *StatusCmd) NeedsAuth() bool   { return false }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	sess, err := env.Store.Load()
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read session: %v\n", err)
		return exitcode.AuthError
	}
	if sess.Anonymous() {
		fmt.Fprintln(out, "not logged in")
		return exitcode.AuthError
	}

	fmt.Fprintf(out, "user:          %s\n", orNone(sess.UserID))
	fmt.Fprintf(out, "auth token:    %s\n", maskToken(sess.AuthToken))
	fmt.Fprintf(out, "google access: %s\n", maskToken(sess.AccessToken))

	claims, err := tokenClaims(sess.AuthToken)
	if err != nil {
		fmt.Fprintln(out, "token type:    opaque")
		return exitcode.Success
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		fmt.Fprintf(out, "token subject: %s\n", sub)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		state := "valid"
		if !exp.After(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(out, "token expires: %s (%s)\n", exp.UTC().Format(time.RFC3339), state)
	}
	return exitcode.Success
}

// tokenClaims decodes a JWT's claims without checking its signature.
func tokenClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// maskToken keeps the first and last four characters of a token.
func maskToken(token string) string {
	switch {
	case token == "":
		return "(none)"
	case len(token) <= 12:
		return "****"
	default:
		return token[:4] + "..." + token[len(token)-4:]
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
