package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/kcarante/thinktasker/internal/database"
	"github.com/kcarante/thinktasker/internal/middleware"
	"github.com/kcarante/thinktasker/internal/models"
	"github.com/kcarante/thinktasker/internal/validation"
)

// PatternHandler handles actionable pattern management requests
type PatternHandler struct {
	patternRepo *database.PatternRepository
}

// NewPatternHandler creates a new pattern handler
func NewPatternHandler(patternRepo *database.PatternRepository) *PatternHandler {
	return &PatternHandler{patternRepo: patternRepo}
}

// RegisterRoutes registers pattern routes on the given router
// The router should already have the /patterns prefix
func (h *PatternHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListPatterns).Methods("GET")
	r.HandleFunc("", h.CreatePattern).Methods("POST")
	r.HandleFunc("/{id}", h.UpdatePattern).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeletePattern).Methods("DELETE")
}

// CreatePatternRequest represents a create pattern request
type CreatePatternRequest struct {
	Pattern      string `json:"pattern" validate:"required,min=1,max=500"`
	PatternType  string `json:"pattern_type" validate:"required,pattern_type"`
	Label        string `json:"label" validate:"max=100"`
	PriorityHint string `json:"priority_hint" validate:"omitempty,task_priority"`
}

// UpdatePatternRequest represents a pattern update request
type UpdatePatternRequest struct {
	IsActive *bool `json:"is_active,omitempty"`
}

// ListPatterns lists all patterns, active or not
func (h *PatternHandler) ListPatterns(w http.ResponseWriter, r *http.Request) {
	if middleware.UserFromContext(r) == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	patterns, err := h.patternRepo.List(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve patterns")
		return
	}

	respondJSON(w, http.StatusOK, patterns)
}

// CreatePattern creates a new actionable pattern
func (h *PatternHandler) CreatePattern(w http.ResponseWriter, r *http.Request) {
	if middleware.UserFromContext(r) == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreatePatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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

	patternType := models.PatternType(req.PatternType)
	if err := validation.ValidatePattern(req.Pattern, patternType); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	pattern := &models.ActionablePattern{
		ID:           uuid.New(),
		Pattern:      req.Pattern,
		PatternType:  patternType,
		Label:        req.Label,
		PriorityHint: models.TaskPriority(req.PriorityHint),
		IsActive:     true,
	}

	if err := h.patternRepo.Create(r.Context(), pattern); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create pattern")
		return
	}

	respondJSON(w, http.StatusCreated, pattern)
}

// UpdatePattern toggles a pattern's active flag
func (h *PatternHandler) UpdatePattern(w http.ResponseWriter, r *http.Request) {
	if middleware.UserFromContext(r) == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid pattern ID")
		return
	}

	var req UpdatePatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if req.IsActive == nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "is_active is required")
		return
	}

	if err := h.patternRepo.SetActive(r.Context(), id, *req.IsActive); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Pattern not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"is_active": *req.IsActive})
}

// DeletePattern removes a pattern
func (h *PatternHandler) DeletePattern(w http.ResponseWriter, r *http.Request) {
	if middleware.UserFromContext(r) == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid pattern ID")
		return
	}

	if err := h.patternRepo.Delete(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Pattern not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
