package commands_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"taskmgr/internal/backend/gcal"
	"taskmgr/internal/commands"
	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/httpclient"
	"taskmgr/internal/session"
	"taskmgr/internal/testutil"
)

var loggedIn = session.Session{AuthToken: "token-u1", UserID: "u1", AccessToken: "ya29.access"}

// newEnv builds an Env over FakeService and an in-memory session.
func newEnv(t *testing.T, svc *testutil.FakeService, sess session.Session, input string, quiet bool) (*commands.Env, *session.MemoryStore) {
	t.Helper()

	store := session.NewMemoryStore()
	if err := store.Save(sess); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
	}
	env, err := commands.NewEnv(cfg, svc, store, nil, strings.NewReader(input))
	if err != nil {
		t.Fatalf("failed to create env: %v", err)
	}
	return env, store
}

// runCommand parses args the way the dispatcher does and runs cmd.
func runCommand(t *testing.T, cmd commands.Command, env *commands.Env, args []string) (stdout, stderr string, code int) {
	t.Helper()

	fs, _ := commands.NewFlagSet(cmd)
	positional, err := commands.ParseArgs(fs, args)
	if err != nil {
		t.Fatalf("failed to parse args %q: %v", args, err)
	}

	var outBuf, errBuf bytes.Buffer
	code = cmd.Run(context.Background(), env, positional, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func expectCode(t *testing.T, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeService(), session.Session{}, "", false)

	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, env, nil)

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskmgr 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeService(), session.Session{}, "", false)

	stdout, stderr, code := runCommand(t, &commands.HelpCmd{}, env, nil)

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	for _, want := range []string{"Usage:", "taskmgr uncomment", "--yes", "Common flags:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

// Tests for tasks command
func TestTasksCommand_WithTasks(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "u1", "Buy milk", "")
	svc.AddTask("t2", "u1", "Buy eggs", "free range")
	svc.AddTask("t3", "u2", "Not mine", "")
	env, _ := newEnv(t, svc, loggedIn, "", false)

	stdout, stderr, code := runCommand(t, &commands.TasksCmd{}, env, nil)

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	expected := "   1  Buy milk\n   2  Buy eggs\n      free range\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
	if n := svc.Calls("ListTasks"); n != 1 {
		t.Errorf("expected exactly one ListTasks call, got %d", n)
	}
}

func TestTasksCommand_Empty(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeService(), loggedIn, "", false)

	stdout, _, code := runCommand(t, &commands.TasksCmd{}, env, nil)

	expectCode(t, exitcode.Success, code)
	if stdout != "no tasks found\n" {
		t.Errorf("expected %q, got %q", "no tasks found\n", stdout)
	}
}

func TestTasksCommand_EmptyQuiet(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeService(), loggedIn, "", true)

	stdout, _, code := runCommand(t, &commands.TasksCmd{}, env, nil)

	expectCode(t, exitcode.Success, code)
	// Quiet mode should suppress "no tasks found"
	if stdout != "" {
		t.Errorf("expected empty stdout in quiet mode, got %q", stdout)
	}
}

func TestTasksCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListTasksErr = errors.New("Error fetching tasks")
	env, _ := newEnv(t, svc, loggedIn, "", false)

	stdout, stderr, code := runCommand(t, &commands.TasksCmd{}, env, nil)

	expectCode(t, exitcode.BackendError, code)
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "error: backend error: Error fetching tasks\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestTasksCommand_Unauthorized(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListTasksErr = &httpclient.Error{Kind: httpclient.KindBackend, StatusCode: 401, Message: "Unauthorized"}
	env, _ := newEnv(t, svc, loggedIn, "", false)

	_, stderr, code := runCommand(t, &commands.TasksCmd{}, env, nil)

	expectCode(t, exitcode.AuthError, code)
	if stderr != "error: auth error: Unauthorized (run: taskmgr login)\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestTasksCommand_NotLoggedIn(t *testing.T) {
	svc := testutil.NewFakeService()
	env, _ := newEnv(t, svc, session.Session{}, "", false)

	_, stderr, code := runCommand(t, &commands.TasksCmd{}, env, nil)

	expectCode(t, exitcode.AuthError, code)
	if stderr != "error: not logged in (run: taskmgr login)\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
	if n := svc.TotalCalls(); n != 0 {
		t.Errorf("expected no backend calls, got %d", n)
	}
}

// Tests for create command
func TestCreateCommand_Success(t *testing.T) {
	svc := testutil.NewFakeService()
	env, _ := newEnv(t, svc, loggedIn, "", false)

	stdout, stderr, code := runCommand(t, &commands.CreateCmd{}, env, []string{"--description", "Q3 numbers", "Write", "report"})

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	expected := "   1  Write report\n      Q3 numbers\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
	if env.View.Current().String() != "show-tasks" {
		t.Errorf("expected show-tasks view, got %s", env.View.Current())
	}
}

func TestCreateCommand_TitleFlag(t *testing.T) {
	svc := testutil.NewFakeService()
	env, _ := newEnv(t, svc, loggedIn, "", false)

	stdout, _, code := runCommand(t, &commands.CreateCmd{}, env, []string{"-t", "Plan sprint", "-d", "next week"})

	expectCode(t, exitcode.Success, code)
	if stdout != "   1  Plan sprint\n      next week\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestCreateCommand_Validation(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{name: "no title", args: []string{"--description", "x"}, stderr: "error: title required\n"},
		{name: "blank title", args: []string{"--title", "  ", "--description", "x"}, stderr: "error: title required\n"},
		{name: "no description", args: []string{"Buy"}, stderr: "error: description required\n"},
		{name: "title twice", args: []string{"--title", "a", "--description", "x", "b"}, stderr: "error: unexpected argument: b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			env, _ := newEnv(t, svc, loggedIn, "", false)

			stdout, stderr, code := runCommand(t, &commands.CreateCmd{}, env, tt.args)

			expectCode(t, exitcode.UserError, code)
			if stdout != "" {
				t.Errorf("expected no stdout, got %q", stdout)
			}
			if stderr != tt.stderr {
				t.Errorf("expected %q, got %q", tt.stderr, stderr)
			}
			if n := svc.TotalCalls(); n != 0 {
				t.Errorf("expected no backend calls, got %d", n)
			}
		})
	}
}

func TestCreateCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateTaskErr = errors.New("Failed to add task")
	env, _ := newEnv(t, svc, loggedIn, "", false)

	_, stderr, code := runCommand(t, &commands.CreateCmd{}, env, []string{"-d", "x", "Buy"})

	expectCode(t, exitcode.BackendError, code)
	if stderr != "error: backend error: Failed to add task\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
	if n := svc.Calls("ListTasks"); n != 0 {
		t.Errorf("expected no listing after failed create, got %d", n)
	}
}

// Tests for import command
func TestImportCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CalendarEvents = map[string]string{"ev1": "Standup"}
	env, _ := newEnv(t, svc, loggedIn, "", false)

	stdout, stderr, code := runCommand(t, &commands.ImportCmd{}, env, nil)

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "   1  Standup [calendar]\n      No description\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
	imports := svc.Imports()
	if len(imports) != 1 || imports[0].AccessToken != "ya29.access" || imports[0].UserID != "u1" {
		t.Errorf("unexpected imports: %+v", imports)
	}
}

func TestImportCommand_NoAccessToken(t *testing.T) {
	svc := testutil.NewFakeService()
	env, _ := newEnv(t, svc, session.Session{AuthToken: "token-u1", UserID: "u1"}, "", false)

	for _, args := range [][]string{nil, {"--preview"}} {
		_, stderr, code := runCommand(t, &commands.ImportCmd{}, env, args)

		expectCode(t, exitcode.UserError, code)
		if stderr != "error: access token required (run: taskmgr login --google)\n" {
			t.Errorf("args %q: unexpected stderr: %q", args, stderr)
		}
	}
	if n := svc.TotalCalls(); n != 0 {
		t.Errorf("expected no backend calls, got %d", n)
	}
}

type fakeCalendar struct {
	events []gcal.Event
	err    error
	max    int64
}

func (f *fakeCalendar) UpcomingEvents(ctx context.Context, from time.Time, max int64) ([]gcal.Event, error) {
	f.max = max
	return f.events, f.err
}

func TestImportCommand_Preview(t *testing.T) {
	svc := testutil.NewFakeService()
	env, _ := newEnv(t, svc, loggedIn, "", false)
	cal := &fakeCalendar{events: []gcal.Event{
		{ID: "e1", Summary: "Standup", Start: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)},
		{ID: "e2", Start: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), AllDay: true},
	}}
	var gotToken string
	env.Calendar = func(ctx context.Context, accessToken string) (commands.EventLister, error) {
		gotToken = accessToken
		return cal, nil
	}

	stdout, stderr, code := runCommand(t, &commands.ImportCmd{}, env, []string{"--preview", "--max", "10"})

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	expected := fmt.Sprintf("%-22s  %s\n%-22s  %s\n", "2024-03-04 09:30", "Standup", "2024-03-05 (all day)", "Untitled Event")
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
	if gotToken != "ya29.access" {
		t.Errorf("expected session access token, got %q", gotToken)
	}
	if cal.max != 10 {
		t.Errorf("expected max 10, got %d", cal.max)
	}
	if n := svc.TotalCalls(); n != 0 {
		t.Errorf("preview must not call the task service, got %d calls", n)
	}
}

func TestImportCommand_PreviewEmpty(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeService(), loggedIn, "", false)
	env.Calendar = func(ctx context.Context, accessToken string) (commands.EventLister, error) {
		return &fakeCalendar{}, nil
	}

	stdout, _, code := runCommand(t, &commands.ImportCmd{}, env, []string{"--preview"})

	expectCode(t, exitcode.Success, code)
	if stdout != "no upcoming events\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestImportCommand_PreviewTokenRejected(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeService(), loggedIn, "", false)
	env.Calendar = func(ctx context.Context, accessToken string) (commands.EventLister, error) {
		return &fakeCalendar{err: gcal.ErrAccessTokenRejected}, nil
	}

	_, stderr, code := runCommand(t, &commands.ImportCmd{}, env, []string{"--preview"})

	expectCode(t, exitcode.AuthError, code)
	if !strings.Contains(stderr, "run: taskmgr login --google") {
		t.Errorf("expected sign-in hint, got %q", stderr)
	}
}

// Tests for comment commands
const commentsHeader = "------------\nComments on Buy milk\n------------\n"

func commentEnv(t *testing.T, input string) (*commands.Env, *testutil.FakeService) {
	t.Helper()
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "u1", "Buy milk", "")
	env, _ := newEnv(t, svc, loggedIn, input, false)
	return env, svc
}

func TestCommentsCommand(t *testing.T) {
	env, svc := commentEnv(t, "")
	svc.SeedComment("c1", "t1", "u1", "hello")

	stdout, stderr, code := runCommand(t, &commands.CommentsCmd{}, env, []string{"1"})

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != commentsHeader+"  c1  2024-03-01 09:00  hello\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
	if env.Comments.State("t1").String() != "expanded" {
		t.Errorf("expected expanded, got %s", env.Comments.State("t1"))
	}
}

func TestCommentsCommand_ByID(t *testing.T) {
	env, svc := commentEnv(t, "")

	stdout, _, code := runCommand(t, &commands.CommentsCmd{}, env, []string{"t9"})

	expectCode(t, exitcode.Success, code)
	if stdout != "------------\nComments on t9\n------------\n  no comments\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
	if n := svc.Calls("ListTasks"); n != 0 {
		t.Errorf("id reference should not list tasks, got %d calls", n)
	}
}

func TestCommentsCommand_RefErrors(t *testing.T) {
	tests := []struct {
		args   []string
		stderr string
	}{
		{args: nil, stderr: "error: task reference required\n"},
		{args: []string{"0"}, stderr: "error: invalid task reference: 0\n"},
		{args: []string{"5"}, stderr: "error: task number out of range: 5\n"},
	}
	for _, tt := range tests {
		env, _ := commentEnv(t, "")
		_, stderr, code := runCommand(t, &commands.CommentsCmd{}, env, tt.args)

		expectCode(t, exitcode.UserError, code)
		if stderr != tt.stderr {
			t.Errorf("args %q: expected %q, got %q", tt.args, tt.stderr, stderr)
		}
	}
}

func TestCollapseCommand(t *testing.T) {
	env, _ := commentEnv(t, "")

	if _, _, code := runCommand(t, &commands.CommentsCmd{}, env, []string{"1"}); code != exitcode.Success {
		t.Fatalf("comments failed with %d", code)
	}
	stdout, _, code := runCommand(t, &commands.CollapseCmd{}, env, []string{"1"})

	expectCode(t, exitcode.Success, code)
	if stdout != "ok\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
	if env.Comments.State("t1").String() != "collapsed" {
		t.Errorf("expected collapsed, got %s", env.Comments.State("t1"))
	}
	if _, ok := env.Comments.Comments("t1"); !ok {
		t.Error("collapse should keep cached comments")
	}
}

func TestCommentCommand(t *testing.T) {
	env, _ := commentEnv(t, "")

	stdout, stderr, code := runCommand(t, &commands.CommentCmd{}, env, []string{"1", "looks", "good"})

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != commentsHeader+"  comment-1  2024-03-01 09:00  looks good\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestCommentCommand_EmptyContent(t *testing.T) {
	env, svc := commentEnv(t, "")

	_, stderr, code := runCommand(t, &commands.CommentCmd{}, env, []string{"1", "  "})

	expectCode(t, exitcode.UserError, code)
	if stderr != "error: comment content required\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
	if n := svc.TotalCalls(); n != 0 {
		t.Errorf("expected no backend calls, got %d", n)
	}
}

func TestEditCommand(t *testing.T) {
	env, svc := commentEnv(t, "")
	svc.SeedComment("c1", "t1", "u1", "hello")

	stdout, stderr, code := runCommand(t, &commands.EditCmd{}, env, []string{"1", "c1", "hello", "again"})

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != commentsHeader+"  c1  2024-03-01 09:00  hello again\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
	if env.Comments.Editing("c1") {
		t.Error("comment should leave edit mode")
	}
}

func TestEditCommand_UnknownComment(t *testing.T) {
	env, svc := commentEnv(t, "")

	_, stderr, code := runCommand(t, &commands.EditCmd{}, env, []string{"1", "c9", "x"})

	expectCode(t, exitcode.UserError, code)
	if stderr != "error: comment not found: c9\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
	if n := svc.Calls("UpdateComment"); n != 0 {
		t.Errorf("expected no update, got %d", n)
	}
}

func TestUncommentCommand_Confirmed(t *testing.T) {
	env, svc := commentEnv(t, "y\n")
	svc.SeedComment("c1", "t1", "u1", "hello")

	stdout, stderr, code := runCommand(t, &commands.UncommentCmd{}, env, []string{"1", "c1"})

	expectCode(t, exitcode.Success, code)
	if stderr != "Delete comment c1? [y/N] " {
		t.Errorf("unexpected prompt: %q", stderr)
	}
	if stdout != commentsHeader+"  no comments\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestUncommentCommand_Declined(t *testing.T) {
	for _, input := range []string{"n\n", "\n", ""} {
		env, svc := commentEnv(t, input)
		svc.SeedComment("c1", "t1", "u1", "hello")

		stdout, _, code := runCommand(t, &commands.UncommentCmd{}, env, []string{"1", "c1"})

		expectCode(t, exitcode.Success, code)
		if stdout != "" {
			t.Errorf("input %q: expected silent abort, got %q", input, stdout)
		}
		if n := svc.Calls("DeleteComment"); n != 0 {
			t.Errorf("input %q: expected no delete request, got %d", input, n)
		}
	}
}

func TestUncommentCommand_Yes(t *testing.T) {
	env, svc := commentEnv(t, "")
	svc.SeedComment("c1", "t1", "u1", "hello")

	_, stderr, code := runCommand(t, &commands.UncommentCmd{}, env, []string{"--yes", "1", "c1"})

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no prompt, got %q", stderr)
	}
	if n := svc.Calls("DeleteComment"); n != 1 {
		t.Errorf("expected one delete request, got %d", n)
	}
}

func TestUncommentCommand_MissingCommentID(t *testing.T) {
	env, _ := commentEnv(t, "")

	_, stderr, code := runCommand(t, &commands.UncommentCmd{}, env, []string{"1"})

	expectCode(t, exitcode.UserError, code)
	if stderr != "error: comment id required\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}
