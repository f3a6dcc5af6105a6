// Package transcription turns recorded answers into word-level transcripts
// using the AssemblyAI REST API.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "https://api.assemblyai.com"
	defaultPollInterval = 3 * time.Second
	defaultTimeout      = 5 * time.Minute

	statusCompleted = "completed"
	statusError     = "error"
)

var (
	// ErrTranscriptionFailed covers every way the provider can fail to return
	// usable text. Callers report it as a generic analysis error.
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrNotConfigured       = errors.New("assemblyai api key is not configured")
)

type Word struct {
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
}

type Transcript struct {
	ID         string
	Text       string
	Words      []Word
	DurationMs int64
}

func (t *Transcript) WordTexts() []string {
	out := make([]string, len(t.Words))
	for i, w := range t.Words {
		out[i] = w.Text
	}
	return out
}

type Options struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
}

type Client struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	timeout      time.Duration
	client       *http.Client
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL string `json:"audio_url"`
}

type transcriptResponse struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	Text          string  `json:"text"`
	Words         []Word  `json:"words"`
	AudioDuration float64 `json:"audio_duration"`
	Error         string  `json:"error"`
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: time.Minute}
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		pollInterval: poll,
		timeout:      timeout,
		client:       client,
	}
}

// Transcribe uploads audio, starts a transcript job and polls until the job
// finishes or ctx is done. Calls are not retried.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader) (*Transcript, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	uploadURL, err := c.upload(ctx, audio)
	if err != nil {
		return nil, err
	}

	job, err := c.createTranscript(ctx, uploadURL)
	if err != nil {
		return nil, err
	}

	for job.Status != statusCompleted && job.Status != statusError {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: waiting for transcript %s: %v", ErrTranscriptionFailed, job.ID, ctx.Err())
		case <-time.After(c.pollInterval):
		}

		job, err = c.getTranscript(ctx, job.ID)
		if err != nil {
			return nil, err
		}
	}

	if job.Status == statusError {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptionFailed, job.Error)
	}
	if strings.TrimSpace(job.Text) == "" {
		return nil, fmt.Errorf("%w: empty transcript", ErrTranscriptionFailed)
	}

	return &Transcript{
		ID:         job.ID,
		Text:       job.Text,
		Words:      job.Words,
		DurationMs: durationMs(job),
	}, nil
}

// durationMs prefers the reported audio length (seconds) and falls back to
// the end of the last word.
func durationMs(job *transcriptResponse) int64 {
	if job.AudioDuration > 0 {
		return int64(job.AudioDuration * 1000)
	}
	if n := len(job.Words); n > 0 {
		return job.Words[n-1].End
	}
	return 0
}

func (c *Client) upload(ctx context.Context, audio io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/upload", audio)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	var out uploadResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("%w: upload returned no url", ErrTranscriptionFailed)
	}
	return out.UploadURL, nil
}

func (c *Client) createTranscript(ctx context.Context, audioURL string) (*transcriptResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(transcriptRequest{AudioURL: audioURL}); err != nil {
		return nil, fmt.Errorf("encode transcript request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transcript", &buf)
	if err != nil {
		return nil, fmt.Errorf("build transcript request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out transcriptResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getTranscript(ctx context.Context, id string) (*transcriptResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/transcript/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}

	var out transcriptResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTranscriptionFailed, req.Method, req.URL.Path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrTranscriptionFailed, req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrTranscriptionFailed, req.URL.Path, err)
	}
	return nil
}
