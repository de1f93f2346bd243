package api

import (
	"context"
	"net/http"
	"strconv"
)

// ListTasks returns the learner's dashboard tasks.
func (client *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := client.do(ctx, http.MethodGet, "/api/tasks/", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CompleteTask marks a task as done.
func (client *Client) CompleteTask(ctx context.Context, taskID int64) (Task, error) {
	var task Task
	path := "/api/tasks/" + strconv.FormatInt(taskID, 10) + "/complete/"
	if err := client.do(ctx, http.MethodPost, path, nil, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}
