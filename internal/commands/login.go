package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/httpclient"
	"taskmgr/internal/session"
)

var errSignIn = errors.New("google sign-in failed")

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
	google   bool
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in with email and password or Google" }
func (c *LoginCmd) Usage() string {
	return "taskmgr login [common flags] [--email <email>] [--password <password>] | --google"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.BoolVar(&c.google, "google", false, "")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	var (
		sess session.Session
		err  error
	)
	if c.google {
		sess, err = c.loginGoogle(ctx, env, errOut)
	} else {
		sess, err = c.loginPassword(ctx, env, errOut)
	}
	if err != nil {
		if errors.Is(err, errNoOAuthClient) {
			return exitcode.AuthError
		}
		if errors.Is(err, errSignIn) {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.AuthError
		}
		if httpclient.IsUnauthorized(err) {
			fmt.Fprintf(errOut, "error: login failed: %v\n", err)
			return exitcode.AuthError
		}
		return Fail(errOut, err)
	}

	env.Log.Debug("logged in", zap.String("user_id", sess.UserID), zap.Bool("google", c.google))
	if !env.quiet() {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

func (c *LoginCmd) loginPassword(ctx context.Context, env *Env, errOut io.Writer) (session.Session, error) {
	email, password := c.email, c.password
	var err error
	if email == "" {
		if email, err = env.readLine(errOut, "Email: "); err != nil {
			return session.Session{}, err
		}
	}
	if password == "" {
		if password, err = env.readLine(errOut, "Password: "); err != nil {
			return session.Session{}, err
		}
	}
	return env.Tasks.Login(ctx, email, password)
}

func (c *LoginCmd) loginGoogle(ctx context.Context, env *Env, errOut io.Writer) (session.Session, error) {
	if c.email != "" || c.password != "" {
		return session.Session{}, usageErrorf("--google cannot be combined with --email or --password")
	}
	creds, err := env.GoogleSignIn(ctx, env.Config, errOut)
	if err != nil {
		if errors.Is(err, errNoOAuthClient) {
			return session.Session{}, err
		}
		return session.Session{}, fmt.Errorf("%w: %v", errSignIn, err)
	}
	return env.Tasks.LoginWithGoogle(ctx, creds.IDToken, creds.AccessToken)
}
