package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
	"github.com/ternarybob/casebot/internal/services/agreement"
	"github.com/ternarybob/casebot/internal/services/notify"
)

// AgreementHandler exposes the consent conversation over HTTP
type AgreementHandler struct {
	agreements interfaces.AgreementService
	logger     arbor.ILogger
}

func NewAgreementHandler(agreements interfaces.AgreementService, logger arbor.ILogger) *AgreementHandler {
	return &AgreementHandler{
		agreements: agreements,
		logger:     logger,
	}
}

type agreementResponse struct {
	UserID        string                `json:"user_id"`
	State         models.AgreementState `json:"state"`
	AlreadyAgreed bool                  `json:"already_agreed,omitempty"`
	Message       string                `json:"message"`
}

// StatusHandler returns the user's state with the agreement text or a welcome back
func (h *AgreementHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID := userIDFromRequest(r)
	state, err := h.agreements.Status(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, userID, err)
		return
	}

	message := notify.AgreementText
	if state == models.AgreementAgreed {
		message = notify.WelcomeBack
	}
	WriteJSON(w, http.StatusOK, agreementResponse{UserID: userID, State: state, Message: message})
}

// AcceptHandler records the user's consent
func (h *AgreementHandler) AcceptHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID := userIDFromRequest(r)
	already, err := h.agreements.Accept(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, userID, err)
		return
	}

	message := notify.AgreementAccepted
	if already {
		message = notify.WelcomeBack
	}
	WriteJSON(w, http.StatusOK, agreementResponse{
		UserID:        userID,
		State:         models.AgreementAgreed,
		AlreadyAgreed: already,
		Message:       message,
	})
}

// DeclineHandler records a refusal
func (h *AgreementHandler) DeclineHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID := userIDFromRequest(r)
	if err := h.agreements.Decline(r.Context(), userID); err != nil {
		h.writeServiceError(w, userID, err)
		return
	}
	WriteJSON(w, http.StatusOK, agreementResponse{UserID: userID, State: models.AgreementNotAgreed, Message: notify.AgreementDeclined})
}

// CancelHandler withdraws consent
func (h *AgreementHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID := userIDFromRequest(r)
	if err := h.agreements.Cancel(r.Context(), userID); err != nil {
		h.writeServiceError(w, userID, err)
		return
	}
	WriteJSON(w, http.StatusOK, agreementResponse{UserID: userID, State: models.AgreementNotAgreed, Message: notify.Cancelled})
}

// HelpHandler returns the usage text
func (h *AgreementHandler) HelpHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": notify.Help})
}

func (h *AgreementHandler) writeServiceError(w http.ResponseWriter, userID string, err error) {
	if errors.Is(err, agreement.ErrMissingUser) {
		WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	h.logger.Error().Err(err).Str("user_id", userID).Msg("Agreement operation failed")
	WriteError(w, http.StatusInternalServerError, "Failed to update agreement")
}
