package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/kcarante/thinktasker/internal/middleware"
	"github.com/kcarante/thinktasker/internal/queue"
)

// SyncHandler triggers on-demand mailbox syncs
type SyncHandler struct {
	jobQueue queue.JobQueue
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(jobQueue queue.JobQueue) *SyncHandler {
	return &SyncHandler{jobQueue: jobQueue}
}

// RegisterRoutes registers sync routes on the given router
func (h *SyncHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.TriggerSync).Methods("POST")
}

// TriggerSync enqueues a mailbox sync job for the authenticated user.
// The sync lock makes concurrent triggers harmless.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	if user.ProviderID == nil {
		respondJSONError(w, http.StatusConflict, "Conflict", "User has no linked mailbox")
		return
	}

	job := queue.NewJob(queue.JobTypeMailboxSync, user.ID)
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		log.Printf("Failed to enqueue sync job for user %s: %v", user.ID, err)
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to enqueue sync job")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID.String()})
}
