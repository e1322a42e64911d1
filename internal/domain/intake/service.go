package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/carebridge/care-backend/internal/domain/activity"
	apperrors "github.com/carebridge/care-backend/pkg/errors"
)

// Service relays intake submissions to the analysis pipeline and guarantees
// every attempt lands in the activity log before the outcome is returned.
type Service interface {
	Analyze(ctx context.Context, sub Submission) (Outcome, error)
	RecordMalformed(kind, reason string)
}

// PipelineResult is the raw upstream reply. A non-nil error from the client
// means the pipeline process itself was unreachable.
type PipelineResult struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// PipelineClient performs the single outbound call per submission.
type PipelineClient interface {
	AnalyzeText(ctx context.Context, patientID, text string) (PipelineResult, error)
	AnalyzeAudio(ctx context.Context, patientID, filename, mimeType string, audio []byte) (PipelineResult, error)
}

// AudioArchiver copies submitted audio to object storage for operator review.
type AudioArchiver interface {
	Store(ctx context.Context, filename, mimeType string, data []byte) (string, error)
}

// Config carries runtime settings for the gateway.
type Config struct {
	PipelineURL string
}

type service struct {
	cfg      Config
	client   PipelineClient
	log      *activity.Log
	archiver AudioArchiver
	logger   *slog.Logger
}

// NewService wires up the intake gateway. archiver may be nil.
func NewService(cfg Config, client PipelineClient, log *activity.Log, archiver AudioArchiver, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		client:   client,
		log:      log,
		archiver: archiver,
		logger:   logger.With("component", "intake.service"),
	}
}

// Analyze validates the submission, forwards it to the pipeline, classifies
// the result and appends exactly one activity entry. No retries: these are
// interactive submissions and the log already surfaces failures.
func (s *service) Analyze(ctx context.Context, sub Submission) (Outcome, error) {
	if err := validate(sub); err != nil {
		s.record(sub.Kind, activity.StatusError, "", err.Error())
		return Outcome{}, err
	}

	if sub.Kind == activity.KindAudio && s.archiver != nil {
		if key, err := s.archiver.Store(ctx, sub.Filename, sub.MimeType, sub.Audio); err != nil {
			s.logger.Warn("audio archive failed", "filename", sub.Filename, "error", err)
		} else {
			s.logger.Info("audio archived", "key", key)
		}
	}

	var (
		result PipelineResult
		err    error
	)
	switch sub.Kind {
	case activity.KindAudio:
		result, err = s.client.AnalyzeAudio(ctx, sub.PatientID, sub.Filename, sub.MimeType, sub.Audio)
	default:
		result, err = s.client.AnalyzeText(ctx, sub.PatientID, sub.Text)
	}

	if err != nil {
		out := Outcome{
			Class:   OutcomeUnavailable,
			Status:  http.StatusServiceUnavailable,
			Message: s.unavailableMessage(err),
		}
		s.record(sub.Kind, activity.StatusUnavailable, "", err.Error())
		return out, nil
	}

	if result.StatusCode >= 300 {
		out := Outcome{
			Class:       OutcomeRejected,
			Status:      result.StatusCode,
			ContentType: result.ContentType,
			Body:        result.Body,
			Message:     rejectionMessage(result),
		}
		s.record(sub.Kind, activity.StatusError, "", rejectionLogMessage(result))
		return out, nil
	}

	sessionID := extractSessionID(result.Body)
	s.record(sub.Kind, activity.StatusSuccess, sessionID, "")
	return Outcome{
		Class:       OutcomeSuccess,
		Status:      result.StatusCode,
		ContentType: result.ContentType,
		Body:        result.Body,
		SessionID:   sessionID,
	}, nil
}

// RecordMalformed logs a payload the transport layer could not parse at all.
// The pipeline is never contacted for these.
func (s *service) RecordMalformed(kind, reason string) {
	if kind == "" {
		kind = activity.KindText
	}
	s.record(kind, activity.StatusError, "", reason)
}

func (s *service) record(kind, status, sessionID, errMsg string) {
	entry := s.log.Append(activity.Entry{
		Kind:      kind,
		Status:    status,
		SessionID: sessionID,
		Error:     errMsg,
	})
	s.logger.Info("intake attempt recorded", "id", entry.ID, "kind", kind, "status", status)
}

func validate(sub Submission) error {
	switch sub.Kind {
	case activity.KindText:
		if strings.TrimSpace(sub.Text) == "" {
			return apperrors.Wrap("invalid_input", "text cannot be empty", nil)
		}
	case activity.KindAudio:
		if len(sub.Audio) == 0 {
			return apperrors.Wrap("invalid_input", "audio payload is empty", nil)
		}
	default:
		return apperrors.Wrap("invalid_input", "unsupported intake payload", nil)
	}
	return nil
}

func (s *service) unavailableMessage(err error) string {
	return fmt.Sprintf(
		"intake pipeline unreachable at %s (%v); check that the pipeline process is running and that its default port is not claimed by another local service",
		s.cfg.PipelineURL, err,
	)
}

func rejectionMessage(result PipelineResult) string {
	if result.StatusCode == http.StatusForbidden {
		return "intake pipeline returned 403 Forbidden; a port collision with an unrelated local service on the pipeline's default port is the common cause"
	}
	return fmt.Sprintf("intake pipeline rejected the submission with status %d", result.StatusCode)
}

func rejectionLogMessage(result PipelineResult) string {
	if msg := extractErrorMessage(result.Body); msg != "" {
		return msg
	}
	return fmt.Sprintf("pipeline status %d", result.StatusCode)
}

func extractSessionID(body []byte) string {
	var wire struct {
		SessionID      string `json:"sessionId"`
		SessionIDSnake string `json:"session_id"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return ""
	}
	if wire.SessionID != "" {
		return wire.SessionID
	}
	return wire.SessionIDSnake
}

func extractErrorMessage(body []byte) string {
	var wire struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return ""
	}
	if wire.Error != "" {
		return wire.Error
	}
	return wire.Message
}
