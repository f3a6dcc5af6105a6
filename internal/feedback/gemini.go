// Package feedback asks a Gemini model to critique an interview answer.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
	defaultTimeout = 30 * time.Second

	PlaceholderFeedback     = "There was an issue generating feedback. Please try again."
	PlaceholderImprovements = "Could not generate improvement suggestions at this time."
	MissingFeedback         = "Feedback could not be generated."
	MissingImprovements     = "Improvement suggestions could not be generated."
)

var (
	// ErrInvalidKey means the provider rejected the credential itself.
	ErrInvalidKey = errors.New("gemini rejected the api key")
	ErrProvider   = errors.New("gemini request failed")
	ErrMissingKey = errors.New("gemini api key is required")
)

type Options struct {
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client talks to the generateContent REST endpoint. The key is passed per
// call so one client serves both the server default and user keys.
type Client struct {
	model   string
	baseURL string
	client  *http.Client
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings   []geminiSafetySetting   `json:"safetySettings,omitempty"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type analysisPayload struct {
	Feedback     string `json:"feedback"`
	Improvements string `json:"improvements"`
}

// Result is the critique shown to the user. Fallback is set when the model
// output could not be used and placeholder text was substituted.
type Result struct {
	Feedback     string `json:"feedback"`
	Improvements string `json:"improvements"`
	Fallback     bool   `json:"-"`
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		model:   model,
		baseURL: baseURL,
		client:  client,
	}
}

// Generate requests a JSON critique of transcript as an answer to question.
// Output that cannot be parsed never fails the call; it yields placeholder
// text instead.
func (c *Client) Generate(ctx context.Context, key, question, transcript string) (Result, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildPrompt(question, transcript)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.4,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
		// Answers to behavioural questions often describe workplace conflict.
		SafetySettings: []geminiSafetySetting{{
			Category:  "HARM_CATEGORY_HARASSMENT",
			Threshold: "BLOCK_ONLY_HIGH",
		}},
	}

	text, err := c.generate(ctx, key, payload)
	if err != nil {
		return Result{}, err
	}

	return parseAnalysis(text), nil
}

// Verify makes the smallest possible completion with key. Any non-empty
// candidate means the key works.
func (c *Client) Verify(ctx context.Context, key string) error {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: "Reply with the single word: ok"}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			CandidateCount:  1,
			MaxOutputTokens: 5,
		},
	}

	text, err := c.generate(ctx, key, payload)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty probe completion", ErrInvalidKey)
	}
	return nil
}

func (c *Client) generate(ctx context.Context, key string, payload geminiRequest) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrMissingKey
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode gemini request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), &buf)
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", key)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return "", classifyError(resp)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrProvider, err)
	}
	return extractText(out), nil
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
}

func classifyError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr geminiError
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrInvalidKey, message)
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "api key"):
		return fmt.Errorf("%w: %s", ErrInvalidKey, message)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, message)
	}
}

func buildPrompt(question, transcript string) string {
	sb := &strings.Builder{}
	sb.WriteString("You are an expert career coach. Analyze the user's interview answer.\n")
	fmt.Fprintf(sb, "The user was asked: %q\n", question)
	fmt.Fprintf(sb, "The user's answer was: %q\n", transcript)
	sb.WriteString(`Respond strictly with JSON matching this schema: {"feedback":string,"improvements":string}. `)
	sb.WriteString(`"feedback" is a concise, friendly paragraph summarizing the answer. `)
	sb.WriteString(`"improvements" is a concise, friendly paragraph with actionable suggestions.`)
	return sb.String()
}

func parseAnalysis(text string) Result {
	parsed, err := parseGeminiPayload[analysisPayload](text)
	if err != nil {
		return Result{
			Feedback:     PlaceholderFeedback,
			Improvements: PlaceholderImprovements,
			Fallback:     true,
		}
	}

	result := Result{
		Feedback:     strings.TrimSpace(parsed.Feedback),
		Improvements: strings.TrimSpace(parsed.Improvements),
	}
	if result.Feedback == "" {
		result.Feedback = MissingFeedback
		result.Fallback = true
	}
	if result.Improvements == "" {
		result.Improvements = MissingImprovements
		result.Fallback = true
	}
	return result
}

func extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

func parseGeminiPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
