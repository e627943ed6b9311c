package cli_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"taskmgr/internal/cli"
	"taskmgr/internal/commands"
	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
	"taskmgr/internal/session"
	"taskmgr/internal/testutil"
)

// testFactory creates a service factory that returns the given FakeService.
func testFactory(svc *testutil.FakeService) cli.ServiceFactory {
	return func(ctx context.Context, cfg *config.Config, store session.Store, log *zap.Logger) (service.Service, error) {
		return svc, nil
	}
}

// testStores always hands out the same in-memory store.
func testStores(store *session.MemoryStore) cli.StoreFactory {
	return func(cfg *config.Config) (session.Store, error) {
		return store, nil
	}
}

func newDispatcher(svc *testutil.FakeService, sess session.Session) (*cli.Dispatcher, *session.MemoryStore) {
	store := session.NewMemoryStore()
	_ = store.Save(sess)
	return cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc), testStores(store)), store
}

func run(t *testing.T, d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	if len(args) > 0 {
		// Common flags follow the command name
		rest := append([]string{"--config", t.TempDir()}, args[1:]...)
		args = append([]string{args[0]}, rest...)
	}
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	dispatcher, _ := newDispatcher(testutil.NewFakeService(), session.Session{})

	_, stderr, code := run(t, dispatcher, "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	dispatcher, _ := newDispatcher(testutil.NewFakeService(), session.Session{})

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"--quiet"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	dispatcher, _ := newDispatcher(testutil.NewFakeService(), session.Session{})

	stdout, stderr, code := run(t, dispatcher, "help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	dispatcher, _ := newDispatcher(testutil.NewFakeService(), session.Session{})

	stdout, stderr, code := run(t, dispatcher, "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskmgr 0.1.0\n" {
		t.Errorf("expected 'taskmgr 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	dispatcher, _ := newDispatcher(testutil.NewFakeService(), session.Session{})

	_, stderr, code := run(t, dispatcher, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_MissingFlagValue(t *testing.T) {
	dispatcher, _ := newDispatcher(testutil.NewFakeService(), session.Session{AuthToken: "t", UserID: "u1"})

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"create", "--title"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr.String() != "error: flag needs an argument: -title\n" {
		t.Errorf("unexpected stderr: %q", stderr.String())
	}
}

func TestDispatcher_NotLoggedIn(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher, _ := newDispatcher(svc, session.Session{})

	for _, cmd := range []string{"tasks", "create", "import", "comments", "comment", "edit", "uncomment"} {
		_, stderr, code := run(t, dispatcher, cmd)

		if code != exitcode.AuthError {
			t.Errorf("%s: expected exit code %d, got %d", cmd, exitcode.AuthError, code)
		}
		if stderr != "error: not logged in (run: taskmgr login)\n" {
			t.Errorf("%s: unexpected stderr: %q", cmd, stderr)
		}
	}
	if n := svc.TotalCalls(); n != 0 {
		t.Errorf("expected no backend calls, got %d", n)
	}
}

func TestDispatcher_DefaultsToTasks(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "u1", "Buy milk", "")
	dispatcher, _ := newDispatcher(svc, session.Session{AuthToken: "t", UserID: "u1"})

	stdout, _, code := run(t, dispatcher)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "   1  Buy milk\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestDispatcher_LoginThenTasks(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("u1", "ada@example.com", "pw")
	svc.AddTask("t1", "u1", "Buy milk", "")
	dispatcher, store := newDispatcher(svc, session.Session{})

	_, _, code := run(t, dispatcher, "login", "--quiet", "--email", "ada@example.com", "--password", "pw")
	if code != exitcode.Success {
		t.Fatalf("login failed with %d", code)
	}
	sess, _ := store.Load()
	if sess.UserID != "u1" {
		t.Fatalf("expected stored user, got %+v", sess)
	}

	stdout, _, code := run(t, dispatcher, "tasks")
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "   1  Buy milk\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestDispatcher_StoreOpenFailure(t *testing.T) {
	stores := func(cfg *config.Config) (session.Store, error) {
		return nil, errors.New("timeout")
	}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()), stores)

	_, stderr, code := run(t, dispatcher, "status")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: failed to open session store: timeout\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestDispatcher_BoltSessionsPersist(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("u1", "ada@example.com", "pw")
	dir := t.TempDir()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc), nil)

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"login", "--config", dir, "--email", "ada@example.com", "--password", "pw"}, &stdout, &stderr)
	if code != exitcode.Success {
		t.Fatalf("login failed with %d: %s", code, stderr.String())
	}

	store, err := session.OpenBolt(filepath.Join(dir, config.SessionFile))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	sess, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if sess.AuthToken != "token-u1" || sess.UserID != "u1" {
		t.Errorf("unexpected persisted session: %+v", sess)
	}
}

func TestDispatcher_ConcurrentBoltStore(t *testing.T) {
	dir := t.TempDir()
	// Another process (a running shell) holds its own store on the same file
	held, err := session.OpenBolt(filepath.Join(dir, config.SessionFile))
	if err != nil {
		t.Fatal(err)
	}
	defer held.Close()
	if err := held.Save(session.Session{AuthToken: "tok", UserID: "u1"}); err != nil {
		t.Fatal(err)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()), nil)

	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"version", "--config", dir}, want: "taskmgr " + commands.Version + "\n"},
		{args: []string{"logout", "--config", dir}, want: "ok\n"},
	}
	for _, tt := range tests {
		var stdout, stderr bytes.Buffer
		code := dispatcher.Run(context.Background(), tt.args, &stdout, &stderr)
		if code != exitcode.Success {
			t.Fatalf("%s: expected exit code 0, got %d: %s", tt.args[0], code, stderr.String())
		}
		if stdout.String() != tt.want {
			t.Errorf("%s: unexpected stdout: %q", tt.args[0], stdout.String())
		}
	}

	sess, err := held.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !sess.Anonymous() {
		t.Errorf("expected logout to clear the shared session, got %+v", sess)
	}
}
