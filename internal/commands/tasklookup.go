package commands

import (
	"context"

	"taskmgr/internal/service"
)

// resolveTask turns a reference into a task. A position refers to the task
// list last shown in this process; when nothing has been listed yet the
// session user's tasks are fetched once.
func resolveTask(ctx context.Context, env *Env, ref TaskRef) (service.Task, error) {
	if ref.ID != "" {
		for _, task := range env.Tasks.Tasks() {
			if task.ID == ref.ID {
				return task, nil
			}
		}
		return service.Task{ID: ref.ID}, nil
	}

	tasks := env.Tasks.Tasks()
	if len(tasks) == 0 {
		sess, err := env.Session()
		if err != nil {
			return service.Task{}, err
		}
		tasks, err = env.Tasks.ListTasks(ctx, sess.UserID)
		if err != nil {
			return service.Task{}, err
		}
	}

	if ref.Num > len(tasks) {
		return service.Task{}, usageErrorf("task number out of range: %d", ref.Num)
	}
	return tasks[ref.Num-1], nil
}

// findComment looks a comment up in the task's cached list, fetching the
// list when nothing is cached.
func findComment(ctx context.Context, env *Env, taskID, commentID string) (service.Comment, error) {
	comments, ok := env.Comments.Comments(taskID)
	if !ok {
		var err error
		comments, err = env.Comments.ListComments(ctx, taskID)
		if err != nil {
			return service.Comment{}, err
		}
	}
	for _, c := range comments {
		if c.ID == commentID {
			return c, nil
		}
	}
	return service.Comment{}, usageErrorf("comment not found: %s", commentID)
}
