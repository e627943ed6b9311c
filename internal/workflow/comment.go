package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"taskmgr/internal/service"
	"taskmgr/internal/session"
)

// DefaultCacheSize is the number of tasks whose comments are kept.
const DefaultCacheSize = 256

// Visibility is the per-task comment section state.
type Visibility int

const (
	Collapsed Visibility = iota
	Loading
	Expanded
)

func (v Visibility) String() string {
	switch v {
	case Collapsed:
		return "collapsed"
	case Loading:
		return "loading"
	case Expanded:
		return "expanded"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// CommentWorkflow lists, adds, edits and deletes comments, keeping a cache
// of each task's comment list. Every mutation refetches the whole list for
// its task; cache entries are only ever replaced wholesale.
type CommentWorkflow struct {
	svc     service.Service
	store   session.Store
	confirm Confirmer
	log     *zap.Logger
	seq     *sequencer
	cache   *lru.Cache[string, []service.Comment]

	mu      sync.Mutex
	state   map[string]Visibility
	editing map[string]bool
}

// NewCommentWorkflow creates a CommentWorkflow. A nil confirmer approves
// every deletion. cacheSize <= 0 uses DefaultCacheSize.
func NewCommentWorkflow(svc service.Service, store session.Store, confirm Confirmer, cacheSize int, log *zap.Logger) (*CommentWorkflow, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []service.Comment](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment cache: %w", err)
	}
	if confirm == nil {
		confirm = ConfirmFunc(func(string) bool { return true })
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CommentWorkflow{
		svc:     svc,
		store:   store,
		confirm: confirm,
		log:     log.Named("comments"),
		seq:     newSequencer(),
		cache:   cache,
		state:   make(map[string]Visibility),
		editing: make(map[string]bool),
	}, nil
}

// State returns the visibility of a task's comment section.
func (w *CommentWorkflow) State(taskID string) Visibility {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state[taskID]
}

func (w *CommentWorkflow) setState(taskID string, v Visibility) {
	w.mu.Lock()
	w.state[taskID] = v
	w.mu.Unlock()
}

// Comments returns the cached comment list for a task. ok is false when
// nothing has been fetched yet (or the entry was invalidated).
func (w *CommentWorkflow) Comments(taskID string) (comments []service.Comment, ok bool) {
	cached, ok := w.cache.Get(taskID)
	if !ok {
		return nil, false
	}
	out := make([]service.Comment, len(cached))
	copy(out, cached)
	return out, true
}

// Expand moves a task's comment section to Loading, fetches its comments
// and moves it to Expanded. On failure the previous state is restored.
func (w *CommentWorkflow) Expand(ctx context.Context, taskID string) ([]service.Comment, error) {
	if taskID == "" {
		return nil, required("task ID")
	}
	prev := w.State(taskID)
	w.setState(taskID, Loading)

	comments, err := w.fetch(ctx, taskID)
	if err != nil && !errors.Is(err, ErrStale) {
		w.setState(taskID, prev)
		return nil, err
	}
	w.setState(taskID, Expanded)
	if errors.Is(err, ErrStale) {
		comments, _ = w.Comments(taskID)
	}
	return comments, nil
}

// Collapse hides a task's comment section. The cache entry is retained.
func (w *CommentWorkflow) Collapse(taskID string) {
	w.setState(taskID, Collapsed)
}

// ListComments fetches a task's comments and replaces its cache entry
// without changing visibility.
func (w *CommentWorkflow) ListComments(ctx context.Context, taskID string) ([]service.Comment, error) {
	if taskID == "" {
		return nil, required("task ID")
	}
	return w.fetch(ctx, taskID)
}

// AddComment posts a comment and refetches the task's list. Blank content is
// rejected without contacting the backend. An empty userID falls back to
// the session user.
func (w *CommentWorkflow) AddComment(ctx context.Context, taskID, userID, content string) error {
	if taskID == "" {
		return required("task ID")
	}
	if strings.TrimSpace(content) == "" {
		return required("comment content")
	}
	userID, err := w.userID(userID)
	if err != nil {
		return err
	}

	added, err := w.svc.AddComment(ctx, taskID, userID, content)
	if err != nil {
		return err
	}
	w.log.Debug("comment added", zap.String("task_id", taskID), zap.String("comment_id", added.ID))
	return w.reload(ctx, taskID)
}

// BeginEdit puts a comment in edit mode.
func (w *CommentWorkflow) BeginEdit(commentID string) {
	w.mu.Lock()
	w.editing[commentID] = true
	w.mu.Unlock()
}

// CancelEdit leaves edit mode without saving.
func (w *CommentWorkflow) CancelEdit(commentID string) {
	w.mu.Lock()
	delete(w.editing, commentID)
	w.mu.Unlock()
}

// Editing reports whether a comment is in edit mode.
func (w *CommentWorkflow) Editing(commentID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editing[commentID]
}

// UpdateComment replaces a comment's content. On success the comment leaves
// edit mode and its task's list is refetched.
func (w *CommentWorkflow) UpdateComment(ctx context.Context, comment service.Comment, newContent string) error {
	if comment.ID == "" {
		return required("comment ID")
	}
	if comment.TaskID == "" {
		return required("task ID")
	}
	if strings.TrimSpace(newContent) == "" {
		return required("comment content")
	}

	if _, err := w.svc.UpdateComment(ctx, comment, newContent); err != nil {
		return err
	}
	w.CancelEdit(comment.ID)
	w.log.Debug("comment updated", zap.String("comment_id", comment.ID))
	return w.reload(ctx, comment.TaskID)
}

// DeleteComment deletes a comment after confirmation and refetches its
// task's list. deleted is false when the user declined; no request is sent
// and no error is returned in that case.
func (w *CommentWorkflow) DeleteComment(ctx context.Context, commentID, taskID string) (deleted bool, err error) {
	if commentID == "" {
		return false, required("comment ID")
	}
	if taskID == "" {
		return false, required("task ID")
	}
	if !w.confirm.Confirm(fmt.Sprintf("Delete comment %s?", commentID)) {
		w.log.Debug("comment deletion declined", zap.String("comment_id", commentID))
		return false, nil
	}

	if err := w.svc.DeleteComment(ctx, commentID); err != nil {
		return false, err
	}
	w.CancelEdit(commentID)
	w.log.Debug("comment deleted", zap.String("comment_id", commentID))
	return true, w.reload(ctx, taskID)
}

// reload refetches after a successful mutation. An expanded section passes
// through Loading. If the refetch fails the cache entry is invalidated so no
// outdated list is shown.
func (w *CommentWorkflow) reload(ctx context.Context, taskID string) error {
	prev := w.State(taskID)
	if prev == Expanded {
		w.setState(taskID, Loading)
	}
	defer w.setState(taskID, prev)

	_, err := w.fetch(ctx, taskID)
	switch {
	case err == nil, errors.Is(err, ErrStale):
		return nil
	default:
		w.cache.Remove(taskID)
		return fmt.Errorf("change saved but refreshing comments failed: %w", err)
	}
}

func (w *CommentWorkflow) fetch(ctx context.Context, taskID string) ([]service.Comment, error) {
	ticket := w.seq.ticket(taskID)
	comments, err := w.svc.ListComments(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []service.Comment{}
	}

	applied := w.seq.apply(taskID, ticket, func() {
		w.cache.Add(taskID, comments)
	})
	if !applied {
		w.log.Debug("discarding stale comment list", zap.String("task_id", taskID), zap.Uint64("ticket", ticket))
		return nil, ErrStale
	}
	return comments, nil
}

func (w *CommentWorkflow) userID(userID string) (string, error) {
	if userID != "" {
		return userID, nil
	}
	sess, err := w.store.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if sess.Anonymous() || sess.UserID == "" {
		return "", ErrNotLoggedIn
	}
	return sess.UserID, nil
}
