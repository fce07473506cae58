package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/kcarante/thinktasker/internal/database"
	"github.com/kcarante/thinktasker/internal/middleware"
	"github.com/kcarante/thinktasker/internal/models"
	"github.com/kcarante/thinktasker/internal/queue"
	"github.com/kcarante/thinktasker/internal/services/graph"
	"github.com/kcarante/thinktasker/internal/validation"
)

const (
	// MaxSubjectLength is the maximum length for a task subject
	MaxSubjectLength = 1000
	// MaxDescriptionLength is the maximum length for a task description
	MaxDescriptionLength = 10000
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskRepo database.TaskRepositoryInterface
	jobQueue queue.JobQueue
	remote   graph.TaskWriter
}

// NewTaskHandler creates a new task handler. The remote task writer may
// be nil when no Graph credentials are configured; remote mirroring is
// skipped in that case.
func NewTaskHandler(taskRepo database.TaskRepositoryInterface, jobQueue queue.JobQueue, remote graph.TaskWriter) *TaskHandler {
	return &TaskHandler{taskRepo: taskRepo, jobQueue: jobQueue, remote: remote}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /tasks prefix (e.g., from apiRouter.PathPrefix("/tasks"))
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/completed", h.DeleteCompleted).Methods("DELETE")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
}

// CreateTaskRequest represents a manual task creation request
type CreateTaskRequest struct {
	Subject     string  `json:"subject" validate:"required,min=1,max=1000"`
	Description string  `json:"description" validate:"max=10000"`
	Priority    string  `json:"priority" validate:"omitempty,task_priority"`
	Deadline    *string `json:"deadline,omitempty"`
}

// UpdateTaskRequest represents a task update request
type UpdateTaskRequest struct {
	Subject     *string              `json:"subject,omitempty"`
	Description *string              `json:"description,omitempty"`
	Priority    *models.TaskPriority `json:"priority,omitempty"`
	Status      *models.TaskStatus   `json:"status,omitempty"`
}

// ListTasks lists open tasks for the authenticated user. Pass
// status=Completed (or any other status) to filter explicitly.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()

	if s := r.URL.Query().Get("status"); s != "" {
		if err := validation.ValidateTaskStatus(s); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		status := models.TaskStatus(s)
		tasks, err := h.taskRepo.GetByUserID(ctx, user.ID, &status)
		if err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
			return
		}
		respondJSON(w, http.StatusOK, tasks)
		return
	}

	tasks, err := h.taskRepo.GetOpenByUserID(ctx, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask creates a task by hand, outside the mailbox pipeline. The
// new task enters the schedule through an asynchronous reschedule job.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTaskRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	req.Subject = validation.SanitizeText(req.Subject)
	if req.Subject == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Subject is required and cannot be empty after sanitization")
		return
	}
	req.Description = validation.SanitizeText(req.Description)

	priority := models.TaskPriorityMedium
	if req.Priority != "" {
		priority = models.TaskPriority(req.Priority)
	}

	var deadline *time.Time
	if req.Deadline != nil {
		parsed, err := time.Parse(time.RFC3339, *req.Deadline)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Deadline must be RFC 3339 formatted")
			return
		}
		deadline = &parsed
	}

	ctx := r.Context()
	task := &models.ExtractedTask{
		ID:          uuid.New(),
		UserID:      user.ID,
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    priority,
		Status:      models.TaskStatusOpen,
		Deadline:    deadline,
	}
	if task.Description == "" {
		task.Description = task.Subject
	}

	if err := h.taskRepo.Create(ctx, task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	h.enqueueReschedule(ctx, user.ID)

	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task, ok := h.loadOwnedTask(w, r, user)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// UpdateTask updates an existing task. Priority changes trigger an
// asynchronous reschedule of the user's whole working set.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task, ok := h.loadOwnedTask(w, r, user)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	ctx := r.Context()
	priorityChanged := false
	completedNow := false

	if req.Subject != nil {
		sanitized := validation.SanitizeText(*req.Subject)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Subject cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxSubjectLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Subject exceeds maximum length of %d characters", MaxSubjectLength))
			return
		}
		task.Subject = sanitized
	}
	if req.Description != nil {
		sanitized := validation.SanitizeText(*req.Description)
		if len(sanitized) > MaxDescriptionLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Description exceeds maximum length of %d characters", MaxDescriptionLength))
			return
		}
		task.Description = sanitized
	}
	if req.Priority != nil {
		if err := validation.ValidateTaskPriority(string(*req.Priority)); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		if task.Priority != *req.Priority {
			priorityChanged = true
		}
		task.Priority = *req.Priority
	}
	if req.Status != nil {
		if err := validation.ValidateTaskStatus(string(*req.Status)); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.Status = *req.Status
		if *req.Status == models.TaskStatusCompleted && task.CompletedAt == nil {
			now := time.Now()
			task.CompletedAt = &now
			completedNow = true
		}
	}

	if err := h.taskRepo.Update(ctx, task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		return
	}

	h.mirrorUpdate(ctx, user, task)
	if completedNow {
		h.mirrorCompletion(ctx, user, task)
	}

	if priorityChanged {
		h.enqueueReschedule(ctx, user.ID)
	}

	respondJSON(w, http.StatusOK, task)
}

// CompleteTask marks a task as completed and mirrors the completion to
// the remote list when one is linked.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task, ok := h.loadOwnedTask(w, r, user)
	if !ok {
		return
	}

	ctx := r.Context()
	now := time.Now()
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &now

	if err := h.taskRepo.Update(ctx, task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete task")
		return
	}

	h.mirrorCompletion(ctx, user, task)

	respondJSON(w, http.StatusOK, task)
}

// DeleteCompleted removes all completed tasks for the user and cleans
// up their remote copies.
func (h *TaskHandler) DeleteCompleted(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	deleted, err := h.taskRepo.DeleteCompleted(ctx, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete completed tasks")
		return
	}

	if h.remote != nil && user.ProviderID != nil {
		for _, task := range deleted {
			if task.RemoteTaskID == nil || task.RemoteListID == nil {
				continue
			}
			if err := h.remote.DeleteTask(ctx, *user.ProviderID, *task.RemoteListID, *task.RemoteTaskID); err != nil {
				log.Printf("Failed to delete remote task %s: %v", *task.RemoteTaskID, err)
			}
		}
	}

	respondJSON(w, http.StatusOK, map[string]int{"deleted": len(deleted)})
}

// loadOwnedTask parses the path ID, loads the task, and checks ownership.
// On failure it writes the response and returns false.
func (h *TaskHandler) loadOwnedTask(w http.ResponseWriter, r *http.Request, user *models.User) (*models.ExtractedTask, bool) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return nil, false
	}

	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return nil, false
	}

	if task.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Task does not belong to user")
		return nil, false
	}

	return task, true
}

// mirrorUpdate pushes the task's current fields to its linked remote
// copy. The local write already succeeded, so a remote failure is
// logged and the response stays 200.
func (h *TaskHandler) mirrorUpdate(ctx context.Context, user *models.User, task *models.ExtractedTask) {
	if h.remote == nil || user.ProviderID == nil {
		return
	}
	if task.RemoteTaskID == nil || task.RemoteListID == nil {
		return
	}
	if err := h.remote.UpdateTask(ctx, *user.ProviderID, *task.RemoteListID, *task.RemoteTaskID, task); err != nil {
		log.Printf("Failed to update remote task %s: %v", *task.RemoteTaskID, err)
	}
}

func (h *TaskHandler) mirrorCompletion(ctx context.Context, user *models.User, task *models.ExtractedTask) {
	if h.remote == nil || user.ProviderID == nil {
		return
	}
	if task.RemoteTaskID == nil || task.RemoteListID == nil {
		return
	}
	if err := h.remote.CompleteTask(ctx, *user.ProviderID, *task.RemoteListID, *task.RemoteTaskID); err != nil {
		log.Printf("Failed to complete remote task %s: %v", *task.RemoteTaskID, err)
	}
}

func (h *TaskHandler) enqueueReschedule(ctx context.Context, userID uuid.UUID) {
	if h.jobQueue == nil {
		return
	}
	job := queue.NewJob(queue.JobTypeRescheduleUser, userID)
	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		log.Printf("Failed to enqueue reschedule job for user %s: %v", userID, err)
	}
}
