package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/carebridge/care-backend/internal/domain/intake"
)

const defaultBaseURL = "http://127.0.0.1:5000"

// maxResponseBytes bounds how much of an upstream reply is buffered for
// passthrough.
const maxResponseBytes = 1 << 20

// Client relays intake submissions to the analysis pipeline's analyze
// endpoint. One outbound call per submission, no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a pipeline client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(url, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// AnalyzeText posts a typed intake to the pipeline.
func (c *Client) AnalyzeText(ctx context.Context, patientID, text string) (intake.PipelineResult, error) {
	payload, err := json.Marshal(struct {
		Text      string `json:"text"`
		PatientID string `json:"patientId,omitempty"`
	}{Text: text, PatientID: patientID})
	if err != nil {
		return intake.PipelineResult{}, fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.analyzeURL(), bytes.NewReader(payload))
	if err != nil {
		return intake.PipelineResult{}, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// AnalyzeAudio posts a spoken intake as multipart form data.
func (c *Client) AnalyzeAudio(ctx context.Context, patientID, filename, mimeType string, audio []byte) (intake.PipelineResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, filename))
	if mimeType != "" {
		header.Set("Content-Type", mimeType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return intake.PipelineResult{}, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return intake.PipelineResult{}, fmt.Errorf("write audio part: %w", err)
	}
	if patientID != "" {
		if err := writer.WriteField("patientId", patientID); err != nil {
			return intake.PipelineResult{}, fmt.Errorf("write patient field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return intake.PipelineResult{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.analyzeURL(), &body)
	if err != nil {
		return intake.PipelineResult{}, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req)
}

func (c *Client) do(req *http.Request) (intake.PipelineResult, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return intake.PipelineResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return intake.PipelineResult{}, fmt.Errorf("read analyze response: %w", err)
	}
	return intake.PipelineResult{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *Client) analyzeURL() string {
	return c.baseURL + "/analyze"
}

var _ intake.PipelineClient = (*Client)(nil)
