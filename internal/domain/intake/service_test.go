package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carebridge/care-backend/internal/domain/activity"
	apperrors "github.com/carebridge/care-backend/pkg/errors"
)

func newTestService(t *testing.T, client PipelineClient, archiver AudioArchiver) (Service, *activity.Log) {
	t.Helper()
	log := activity.NewLog(10)
	svc := NewService(
		Config{PipelineURL: "http://127.0.0.1:5000"},
		client,
		log,
		archiver,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return svc, log
}

func TestAnalyzeTextSuccess(t *testing.T) {
	client := &stubPipeline{result: PipelineResult{
		StatusCode:  http.StatusOK,
		ContentType: "application/json",
		Body:        []byte(`{"sessionId":"sess-42","intake":{"service":"nursing"}}`),
	}}
	svc, log := newTestService(t, client, nil)

	out, err := svc.Analyze(context.Background(), Submission{
		Kind:      activity.KindText,
		PatientID: "patient-1",
		Text:      "I need help bathing",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, out.Class)
	require.Equal(t, "sess-42", out.SessionID)
	require.Equal(t, "application/json", out.ContentType)
	require.Equal(t, client.result.Body, out.Body)
	require.Equal(t, 1, client.textCalls)

	recent := log.Recent(1)
	require.Len(t, recent, 1)
	require.Equal(t, activity.KindText, recent[0].Kind)
	require.Equal(t, activity.StatusSuccess, recent[0].Status)
	require.Equal(t, "sess-42", recent[0].SessionID)
	require.Empty(t, recent[0].Error)
}

func TestAnalyzeSessionIDSnakeCase(t *testing.T) {
	client := &stubPipeline{result: PipelineResult{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"session_id":"sess-7"}`),
	}}
	svc, _ := newTestService(t, client, nil)

	out, err := svc.Analyze(context.Background(), Submission{Kind: activity.KindText, Text: "hello"})
	require.NoError(t, err)
	require.Equal(t, "sess-7", out.SessionID)
}

func TestAnalyzePipelineUnreachable(t *testing.T) {
	client := &stubPipeline{err: errors.New("dial tcp 127.0.0.1:5000: connect: connection refused")}
	svc, log := newTestService(t, client, nil)

	out, err := svc.Analyze(context.Background(), Submission{Kind: activity.KindAudio, Filename: "a.webm", MimeType: "audio/webm", Audio: []byte("RIFF")})
	require.NoError(t, err)
	require.Equal(t, OutcomeUnavailable, out.Class)
	require.Equal(t, http.StatusServiceUnavailable, out.Status)
	require.Contains(t, out.Message, "http://127.0.0.1:5000")
	require.Contains(t, out.Message, "default port")

	recent := log.Recent(1)
	require.Len(t, recent, 1)
	require.Equal(t, activity.KindAudio, recent[0].Kind)
	require.Equal(t, activity.StatusUnavailable, recent[0].Status)
	require.Contains(t, recent[0].Error, "connection refused")
}

func TestAnalyzePipelineRejected(t *testing.T) {
	client := &stubPipeline{result: PipelineResult{
		StatusCode: http.StatusUnprocessableEntity,
		Body:       []byte(`{"error":"no speech detected"}`),
	}}
	svc, log := newTestService(t, client, nil)

	out, err := svc.Analyze(context.Background(), Submission{Kind: activity.KindText, Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, OutcomeRejected, out.Class)
	require.Equal(t, http.StatusUnprocessableEntity, out.Status)
	require.Equal(t, client.result.Body, out.Body)

	recent := log.Recent(1)
	require.Equal(t, activity.StatusError, recent[0].Status)
	require.Equal(t, "no speech detected", recent[0].Error)
}

func TestAnalyzeForbiddenGetsPortHint(t *testing.T) {
	client := &stubPipeline{result: PipelineResult{StatusCode: http.StatusForbidden, Body: []byte("Forbidden")}}
	svc, _ := newTestService(t, client, nil)

	out, err := svc.Analyze(context.Background(), Submission{Kind: activity.KindText, Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, OutcomeRejected, out.Class)
	require.Contains(t, out.Message, "port collision")
}

func TestAnalyzeValidation(t *testing.T) {
	client := &stubPipeline{}
	svc, log := newTestService(t, client, nil)

	_, err := svc.Analyze(context.Background(), Submission{Kind: activity.KindText, Text: "   "})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
	require.Zero(t, client.textCalls, "validation failures must not contact the pipeline")

	recent := log.Recent(1)
	require.Len(t, recent, 1)
	require.Equal(t, activity.StatusError, recent[0].Status)
}

func TestAnalyzeAudioArchivesBestEffort(t *testing.T) {
	client := &stubPipeline{result: PipelineResult{StatusCode: http.StatusOK, Body: []byte(`{}`)}}
	archiver := &stubArchiver{err: errors.New("bucket missing")}
	svc, log := newTestService(t, client, archiver)

	out, err := svc.Analyze(context.Background(), Submission{Kind: activity.KindAudio, Filename: "a.webm", MimeType: "audio/webm", Audio: []byte("data")})
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, out.Class, "archive failure must not fail the intake")
	require.Equal(t, 1, archiver.calls)
	require.Equal(t, activity.StatusSuccess, log.Recent(1)[0].Status)
}

func TestRecordMalformed(t *testing.T) {
	svc, log := newTestService(t, &stubPipeline{}, nil)

	svc.RecordMalformed("", "unsupported content type")

	recent := log.Recent(1)
	require.Len(t, recent, 1)
	require.Equal(t, activity.KindText, recent[0].Kind)
	require.Equal(t, activity.StatusError, recent[0].Status)
	require.Equal(t, "unsupported content type", recent[0].Error)
}

type stubPipeline struct {
	result     PipelineResult
	err        error
	textCalls  int
	audioCalls int
}

func (s *stubPipeline) AnalyzeText(_ context.Context, _, _ string) (PipelineResult, error) {
	s.textCalls++
	if s.err != nil {
		return PipelineResult{}, s.err
	}
	return s.result, nil
}

func (s *stubPipeline) AnalyzeAudio(_ context.Context, _, _, _ string, _ []byte) (PipelineResult, error) {
	s.audioCalls++
	if s.err != nil {
		return PipelineResult{}, s.err
	}
	return s.result, nil
}

type stubArchiver struct {
	err   error
	calls int
}

func (s *stubArchiver) Store(_ context.Context, filename, _ string, _ []byte) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "intake/" + filename, nil
}
