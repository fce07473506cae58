package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kcarante/thinktasker/internal/models"
)

// DefaultTaskListName is the To Do list tasks are mirrored into
const DefaultTaskListName = "ThinkTasker"

// graphDateTimeZone is the wire shape of a Graph dateTimeTimeZone value
type graphDateTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// graphTask is the wire shape of a To Do task
type graphTask struct {
	ID          string             `json:"id,omitempty"`
	Title       string             `json:"title,omitempty"`
	Status      string             `json:"status,omitempty"`
	Importance  string             `json:"importance,omitempty"`
	DueDateTime *graphDateTimeZone `json:"dueDateTime,omitempty"`
	Body        *struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body,omitempty"`
}

type taskListPage struct {
	Value []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// EnsureTaskList returns the id of the user's task list with the given
// display name, creating the list when it does not exist yet.
func (c *Client) EnsureTaskList(ctx context.Context, graphUserID, displayName string) (string, error) {
	next := fmt.Sprintf("%s/users/%s/todo/lists", c.baseURL, url.PathEscape(graphUserID))

	for next != "" {
		var page taskListPage
		if err := c.doJSON(ctx, http.MethodGet, next, nil, &page); err != nil {
			return "", fmt.Errorf("failed to list task lists: %w", err)
		}
		for _, list := range page.Value {
			if list.DisplayName == displayName {
				return list.ID, nil
			}
		}
		next = page.NextLink
	}

	var created struct {
		ID string `json:"id"`
	}
	body := map[string]string{"displayName": displayName}
	createURL := fmt.Sprintf("%s/users/%s/todo/lists", c.baseURL, url.PathEscape(graphUserID))
	if err := c.doJSON(ctx, http.MethodPost, createURL, body, &created); err != nil {
		return "", fmt.Errorf("failed to create task list: %w", err)
	}
	return created.ID, nil
}

// CreateTask mirrors an extracted task into the user's To Do list and
// returns the remote task id.
func (c *Client) CreateTask(ctx context.Context, graphUserID, listID string, task *models.ExtractedTask) (string, error) {
	var created struct {
		ID string `json:"id"`
	}

	createURL := fmt.Sprintf("%s/users/%s/todo/lists/%s/tasks",
		c.baseURL, url.PathEscape(graphUserID), url.PathEscape(listID))
	if err := c.doJSON(ctx, http.MethodPost, createURL, taskPayload(task), &created); err != nil {
		return "", fmt.Errorf("failed to create remote task: %w", err)
	}
	return created.ID, nil
}

// UpdateTask pushes the current title, importance and deadline of a
// task to its remote counterpart.
func (c *Client) UpdateTask(ctx context.Context, graphUserID, listID, remoteTaskID string, task *models.ExtractedTask) error {
	updateURL := taskURL(c.baseURL, graphUserID, listID, remoteTaskID)
	if err := c.doJSON(ctx, http.MethodPatch, updateURL, taskPayload(task), nil); err != nil {
		return fmt.Errorf("failed to update remote task: %w", err)
	}
	return nil
}

// CompleteTask marks the remote task as completed
func (c *Client) CompleteTask(ctx context.Context, graphUserID, listID, remoteTaskID string) error {
	body := map[string]string{"status": "completed"}
	if err := c.doJSON(ctx, http.MethodPatch, taskURL(c.baseURL, graphUserID, listID, remoteTaskID), body, nil); err != nil {
		return fmt.Errorf("failed to complete remote task: %w", err)
	}
	return nil
}

// DeleteTask removes the remote task
func (c *Client) DeleteTask(ctx context.Context, graphUserID, listID, remoteTaskID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, taskURL(c.baseURL, graphUserID, listID, remoteTaskID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete remote task: %w", err)
	}
	return nil
}

func taskURL(baseURL, graphUserID, listID, remoteTaskID string) string {
	return fmt.Sprintf("%s/users/%s/todo/lists/%s/tasks/%s",
		baseURL, url.PathEscape(graphUserID), url.PathEscape(listID), url.PathEscape(remoteTaskID))
}

// taskPayload maps an extracted task to the Graph task shape. Urgent
// and Important map to high importance, the rest to normal.
func taskPayload(task *models.ExtractedTask) graphTask {
	payload := graphTask{
		Title:      task.Description,
		Importance: "normal",
	}

	if task.Priority == models.TaskPriorityUrgent || task.Priority == models.TaskPriorityImportant {
		payload.Importance = "high"
	}

	if task.Deadline != nil {
		payload.DueDateTime = &graphDateTimeZone{
			DateTime: task.Deadline.UTC().Format("2006-01-02T15:04:05.0000000"),
			TimeZone: "UTC",
		}
	}

	if task.Subject != "" {
		payload.Body = &struct {
			ContentType string `json:"contentType"`
			Content     string `json:"content"`
		}{
			ContentType: "text",
			Content:     task.Subject,
		}
	}

	return payload
}
