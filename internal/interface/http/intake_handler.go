package http

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/carebridge/care-backend/internal/domain/activity"
	"github.com/carebridge/care-backend/internal/domain/intake"
	apperrors "github.com/carebridge/care-backend/pkg/errors"
)

const defaultActivityPage = 50

// IntakeAnalyze relays a text or audio intake submission to the analysis
// pipeline. The payload kind is decided by the declared content type alone.
func (h *Handler) IntakeAnalyze(c *gin.Context) {
	sub, ok := h.parseSubmission(c)
	if !ok {
		return
	}
	sub.PatientID = h.patientID(c)

	outcome, err := h.intakeSvc.Analyze(c.Request.Context(), sub)
	if err != nil {
		status := http.StatusInternalServerError
		code := "intake_failed"
		if apperrors.IsCode(err, "invalid_input") {
			status = http.StatusBadRequest
			code = "invalid_input"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	switch outcome.Class {
	case intake.OutcomeUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": gin.H{
				"code":    "pipeline_unavailable",
				"message": outcome.Message,
			},
		})
	case intake.OutcomeRejected:
		if outcome.Status == http.StatusForbidden {
			c.JSON(outcome.Status, gin.H{
				"error": gin.H{
					"code":    "pipeline_rejected",
					"message": outcome.Message,
				},
				"upstream": strings.TrimSpace(string(outcome.Body)),
			})
			return
		}
		c.Data(outcome.Status, outcomeContentType(outcome), outcome.Body)
	default:
		c.Data(outcome.Status, outcomeContentType(outcome), outcome.Body)
	}
}

// outcomeContentType preserves the pipeline's declared content type on
// passthrough responses.
func outcomeContentType(outcome intake.Outcome) string {
	if outcome.ContentType != "" {
		return outcome.ContentType
	}
	return "application/json"
}

// IntakeActivity returns the most recent intake attempts, newest first.
func (h *Handler) IntakeActivity(c *gin.Context) {
	limit := defaultActivityPage
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	c.JSON(http.StatusOK, gin.H{"entries": h.activityLog.Recent(limit)})
}

func (h *Handler) parseSubmission(c *gin.Context) (intake.Submission, bool) {
	contentType := c.ContentType()
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		var req struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			h.intakeSvc.RecordMalformed(activity.KindText, "malformed JSON intake payload")
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "body must be JSON with a text field", err))
			return intake.Submission{}, false
		}
		return intake.Submission{Kind: activity.KindText, Text: req.Text}, true

	case strings.HasPrefix(contentType, "multipart/form-data"):
		fileHeader, err := c.FormFile("audio")
		if err != nil {
			fileHeader, err = c.FormFile("file")
		}
		if err != nil {
			h.intakeSvc.RecordMalformed(activity.KindAudio, "multipart payload without an audio file part")
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "an audio file part is required", err))
			return intake.Submission{}, false
		}
		file, err := fileHeader.Open()
		if err != nil {
			h.intakeSvc.RecordMalformed(activity.KindAudio, "unreadable audio upload")
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "failed to read audio upload", err))
			return intake.Submission{}, false
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			h.intakeSvc.RecordMalformed(activity.KindAudio, "unreadable audio upload")
			abortWithError(c, NewHTTPError(http.StatusInternalServerError, "intake_failed", "failed to read audio upload", err))
			return intake.Submission{}, false
		}
		return intake.Submission{
			Kind:     activity.KindAudio,
			Filename: fileHeader.Filename,
			MimeType: fileHeader.Header.Get("Content-Type"),
			Audio:    data,
		}, true

	default:
		h.intakeSvc.RecordMalformed(activity.KindText, "unsupported intake content type: "+contentType)
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "body must be JSON text or multipart audio", nil))
		return intake.Submission{}, false
	}
}

// patientID applies the demo fallback policy: a resolved patient identity
// wins; otherwise the configured demo patient is substituted only when the
// deployment explicitly allows it.
func (h *Handler) patientID(c *gin.Context) string {
	if id, ok := getIdentity(c); ok && id.PatientID != "" {
		return id.PatientID
	}
	if h.identityCfg.AllowDemoPatient {
		return h.identityCfg.DemoPatientID
	}
	return ""
}
