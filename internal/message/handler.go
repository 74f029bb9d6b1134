package message

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"message-service/internal/httputil"
	"message-service/internal/metrics"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	if m == nil {
		m = metrics.NewMock()
	}
	return &Handler{
		service: service,
		logger:  logger,
		metrics: m,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/messages", h.ListMessages)
	router.Post("/messages", h.CreateMessage)
	router.Get("/messages/{id}", h.GetMessage)
	router.Patch("/messages/{id}", h.UpdateMessage)
	router.Delete("/messages/{id}", h.DeleteMessage)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching all messages")

	messages, err := h.service.ListMessages(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to fetch messages")
		return
	}

	h.metrics.Messages.RecordListViewed(r.Context())

	httputil.RespondWithJSON(w, http.StatusOK, messages)
}

func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "fetching message", "id", id)
	message, err := h.service.GetMessage(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to fetch message")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, message)
}

func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req CreateMessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.InfoContext(r.Context(), "invalid create payload", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "creating message", "username", req.Username)
	message, err := h.service.CreateMessage(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to create message")
		return
	}

	h.metrics.Messages.RecordCreated(r.Context())

	httputil.RespondWithJSON(w, http.StatusCreated, message)
}

func (h *Handler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req, err := DecodeUpdateRequest(body)
	if err != nil {
		h.logger.InfoContext(r.Context(), "invalid update payload", "id", id, "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "updating message", "id", id)
	message, err := h.service.UpdateMessage(r.Context(), id, req)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to update message")
		return
	}

	h.metrics.Messages.RecordUpdated(r.Context())

	httputil.RespondWithJSON(w, http.StatusOK, message)
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "deleting message", "id", id)
	if err := h.service.DeleteMessage(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err, "Failed to delete message")
		return
	}

	h.metrics.Messages.RecordDeleted(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

// messageID parses the {id} path parameter. A non-integer id cannot name a
// message, so it is reported as not found.
func (h *Handler) messageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.logger.InfoContext(r.Context(), "invalid message id", "id", chi.URLParam(r, "id"))
		httputil.RespondWithError(w, http.StatusNotFound, "Message not found")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	ctx := r.Context()

	var validationErr *ValidationError
	var persistenceErr *PersistenceError

	switch {
	case errors.Is(err, ErrMessageNotFound):
		h.logger.InfoContext(ctx, "message not found")
		httputil.RespondWithError(w, http.StatusNotFound, "Message not found")
	case errors.Is(err, ErrNoUpdateData):
		h.logger.InfoContext(ctx, "no update data provided")
		httputil.RespondWithError(w, http.StatusBadRequest, "No update data provided")
	case errors.As(err, &validationErr):
		h.logger.InfoContext(ctx, "invalid input", "reason", validationErr.Reason)
		httputil.RespondWithError(w, http.StatusBadRequest, validationErr.Reason)
	case errors.As(err, &persistenceErr):
		h.logger.ErrorContext(ctx, "persistence error", "op", persistenceErr.Op, "error", persistenceErr.Err)
		httputil.RespondWithErrorDetails(w, http.StatusBadRequest, persistenceErr.Summary(), persistenceErr.Err.Error())
	default:
		h.logger.ErrorContext(ctx, "internal error", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
