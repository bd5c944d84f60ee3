package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"kukkee/internal/domain"
	"kukkee/internal/middleware"
	"kukkee/internal/service"
	apperrors "kukkee/pkg/errors"
	"kukkee/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps request bodies; a poll with hundreds of slots stays well below it
const maxBodyBytes = 1 << 20

// PollHandler serves the poll endpoints
type PollHandler struct {
	polls service.PollOperations
	log   *logger.Logger
}

// NewPollHandler creates a new poll handler
func NewPollHandler(polls service.PollOperations, log *logger.Logger) *PollHandler {
	return &PollHandler{polls: polls, log: log}
}

// RegisterRoutes mounts the poll endpoints on r
func (h *PollHandler) RegisterRoutes(r chi.Router) {
	r.Post("/polls", h.CreatePoll)
	r.Get("/polls/{id}", h.GetPoll)
	r.Delete("/polls/{id}", h.DeletePoll)

	// Method checks are done in the handlers so the 405 carries our envelope
	r.HandleFunc("/voter/polls/{id}", h.SubmitVote)
	r.HandleFunc("/author/polls/{id}", h.ClosePoll)
}

// SubmitVote handles PUT /api/voter/polls/{id}
func (h *PollHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPut) {
		return
	}

	var req domain.VoteRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		h.respondError(w, r, appErr)
		return
	}

	poll, err := h.polls.SubmitVote(r.Context(), chi.URLParam(r, "id"), req.ToVote(), middleware.RequesterFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, h.toAppError(r, err))
		return
	}

	h.respondJSON(w, http.StatusCreated, poll)
}

// ClosePoll handles PUT /api/author/polls/{id}
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPut) {
		return
	}

	var req domain.ClosePollRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		h.respondError(w, r, appErr)
		return
	}
	if req.FinalTime == nil {
		h.respondError(w, r, apperrors.NewValidationError("finalTime is required", nil))
		return
	}

	poll, err := h.polls.ClosePoll(r.Context(), chi.URLParam(r, "id"), *req.FinalTime, middleware.RequesterFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, h.toAppError(r, err))
		return
	}

	h.respondJSON(w, http.StatusCreated, poll)
}

// CreatePoll handles POST /api/polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePollRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		h.respondError(w, r, appErr)
		return
	}

	poll, err := h.polls.CreatePoll(r.Context(), req, middleware.RequesterFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, h.toAppError(r, err))
		return
	}

	h.respondJSON(w, http.StatusCreated, poll)
}

// GetPoll handles GET /api/polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.polls.GetPoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, h.toAppError(r, err))
		return
	}

	h.respondJSON(w, http.StatusOK, poll)
}

// DeletePoll handles DELETE /api/polls/{id}
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	if err := h.polls.DeletePoll(r.Context(), chi.URLParam(r, "id"), middleware.RequesterFromContext(r.Context())); err != nil {
		h.respondError(w, r, h.toAppError(r, err))
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Poll deleted"})
}

// toAppError maps poll rejections onto transport errors. Storage detail is
// logged here and replaced by a generic message.
func (h *PollHandler) toAppError(r *http.Request, err error) *apperrors.AppError {
	var invalidPoll *domain.InvalidPollError
	var persistence *domain.PersistenceError

	switch {
	case errors.Is(err, domain.ErrPollNotFound):
		return apperrors.NewNotFoundError("Poll not found")
	case errors.Is(err, domain.ErrUnauthenticated):
		return apperrors.NewAuthenticationError("Sign in to do this")
	case errors.Is(err, domain.ErrIdentityMismatch),
		errors.Is(err, domain.ErrDuplicateVoter),
		errors.Is(err, domain.ErrNotOwner):
		return apperrors.NewAuthorizationError(capitalize(err.Error()))
	case errors.Is(err, domain.ErrPollClosed),
		errors.Is(err, domain.ErrInvalidSlots),
		errors.Is(err, domain.ErrInvalidVote),
		errors.Is(err, domain.ErrInvalidFinalTime),
		errors.Is(err, domain.ErrAlreadyClosed):
		return apperrors.NewValidationError(capitalize(err.Error()), nil)
	case errors.As(err, &invalidPoll):
		return apperrors.NewValidationError(capitalize(invalidPoll.Reason), nil)
	case errors.As(err, &persistence):
		h.log.WithError(err).
			WithField("request_id", middleware.RequestIDFromContext(r.Context())).
			Error("Poll storage failure")
		return apperrors.NewUnavailableError(persistence.Message(), err)
	default:
		h.log.WithError(err).
			WithField("request_id", middleware.RequestIDFromContext(r.Context())).
			Error("Unhandled poll error")
		return apperrors.NewInternalError("Internal server error", err)
	}
}

func (h *PollHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.WithError(err).Error("Failed to encode response")
	}
}

func (h *PollHandler) respondError(w http.ResponseWriter, r *http.Request, appErr *apperrors.AppError) {
	if appErr.StatusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	apperrors.Write(w, appErr, middleware.RequestIDFromContext(r.Context()))
}

// allowMethod writes a 405 with an Allow header unless r uses method
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	apperrors.Write(w, apperrors.NewMethodNotAllowedError(r.Method), middleware.RequestIDFromContext(r.Context()))
	return false
}

func decodeBody(r *http.Request, dst interface{}) *apperrors.AppError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationError("Request body is required", nil)
		}
		return apperrors.NewValidationError("Invalid request body", map[string]interface{}{"cause": err.Error()})
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
