package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
	"github.com/ternarybob/casebot/internal/services/agreement"
	"github.com/ternarybob/casebot/internal/services/notify"
)

const (
	// multipartOverhead is allowed on top of the file size limit for form fields and boundaries
	multipartOverhead = 1 << 20
	maxFieldBytes     = 4096
)

// DocumentHandler accepts PDF uploads and returns the analysis report
type DocumentHandler struct {
	gate     interfaces.SubmissionGate
	maxBytes int64
	logger   arbor.ILogger
}

func NewDocumentHandler(gate interfaces.SubmissionGate, maxBytes int64, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		gate:     gate,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// submissionResponse is returned when no report is produced
type submissionResponse struct {
	CaseID   string                 `json:"case_id,omitempty"`
	State    models.SubmissionState `json:"state"`
	Stage    models.Stage           `json:"stage,omitempty"`
	Reason   string                 `json:"reason,omitempty"`
	Category models.FailureCategory `json:"category"`
	Messages []string               `json:"messages"`
}

var categoryStatus = map[models.FailureCategory]int{
	models.CategoryUploadError:       http.StatusBadRequest,
	models.CategoryAgreementRequired: http.StatusForbidden,
	models.CategoryProcessingError:   http.StatusUnprocessableEntity,
	models.CategoryAIServiceError:    http.StatusBadGateway,
	models.CategoryReportError:       http.StatusInternalServerError,
	models.CategoryDeliveryError:     http.StatusInternalServerError,
	models.CategoryUnexpectedError:   http.StatusInternalServerError,
}

// StatusForCategory maps a failure category to an HTTP status
func StatusForCategory(category models.FailureCategory) int {
	if status, ok := categoryStatus[category]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// SubmitHandler handles POST /api/documents (multipart: user_id, then file).
// The file part is streamed straight into the pipeline, so uploads refused on
// their name or declared size are rejected before their body is read.
func (h *DocumentHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	limit := h.maxBytes + multipartOverhead
	if r.ContentLength > limit {
		h.writeUploadError(w, &http.MaxBytesError{Limit: limit})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	reader, err := r.MultipartReader()
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			WriteError(w, http.StatusBadRequest, "file is required")
			return
		}
		if err != nil {
			h.writeUploadError(w, err)
			return
		}

		switch part.FormName() {
		case "user_id":
			value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			if err != nil {
				h.writeUploadError(w, err)
				return
			}
			userID = strings.TrimSpace(string(value))
		case "file":
			// Not closed: Close drains the part, which a rejected upload must not do
			if userID == "" {
				WriteError(w, http.StatusBadRequest, "user_id is required")
				return
			}
			h.submit(w, r, userID, part)
			return
		}
		part.Close()
	}
}

func (h *DocumentHandler) submit(w http.ResponseWriter, r *http.Request, userID string, part *multipart.Part) {
	upload := &models.Upload{
		UserID:   userID,
		Filename: part.FileName(),
		Size:     declaredSize(part),
		Source:   multipartSource(part),
	}

	messenger := &responseMessenger{}
	sub, err := h.gate.Submit(r.Context(), upload, messenger)
	if errors.Is(err, agreement.ErrAgreementRequired) {
		WriteJSON(w, http.StatusForbidden, submissionResponse{
			State:    models.StateReceived,
			Category: models.CategoryAgreementRequired,
			Messages: messenger.snapshot(),
		})
		return
	}
	if err != nil || sub == nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Submission could not be started")
		WriteError(w, http.StatusInternalServerError, "Submission could not be started")
		return
	}

	if !sub.Succeeded() || messenger.document == nil {
		category := sub.FailureCategory
		if category == "" {
			category = models.CategoryUnexpectedError
		}
		WriteJSON(w, StatusForCategory(category), submissionResponse{
			CaseID:   sub.CaseID,
			State:    sub.State,
			Stage:    sub.FailedStage,
			Reason:   sub.FailureReason,
			Category: category,
			Messages: messenger.snapshot(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", messenger.filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(messenger.document)))
	w.Header().Set("X-Case-Id", sub.CaseID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(messenger.document); err != nil {
		h.logger.Warn().Err(err).Str("case_id", sub.CaseID).Msg("Failed to write report response")
	}
}

// declaredSize reads the part's own Content-Length; zero when the client sent none
func declaredSize(part *multipart.Part) int64 {
	size, err := strconv.ParseInt(part.Header.Get("Content-Length"), 10, 64)
	if err != nil || size < 0 {
		return 0
	}
	return size
}

func (h *DocumentHandler) writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	detail := "The upload could not be read."
	if errors.As(err, &tooLarge) {
		detail = fmt.Sprintf("The file exceeds the %d MB size limit.", h.maxBytes/(1024*1024))
	}
	h.logger.Warn().Err(err).Msg("Rejected malformed upload")
	WriteJSON(w, http.StatusBadRequest, submissionResponse{
		State:    models.StateFailed,
		Stage:    models.StageIntake,
		Category: models.CategoryUploadError,
		Messages: []string{notify.FailureMessage(models.CategoryUploadError, detail, "")},
	})
}

// multipartSource streams the file part into the pipeline workspace when fetched
func multipartSource(part io.Reader) models.Fetcher {
	return models.FetcherFunc(func(_ context.Context, w io.Writer) (int64, error) {
		return io.Copy(w, part)
	})
}
