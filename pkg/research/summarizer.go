package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/matzehuels/shed/pkg/httputil"
)

// DefaultSummaryModel is used when no model is configured.
const DefaultSummaryModel = "gpt-4o-mini"

const maxSummaryInput = 12000

const summarySystemPrompt = `You identify software licenses from research notes.
Respond with a JSON object: {"license": "<SPDX identifier or license name>", "evidence": "<one sentence>"}.
Use "unknown" for license when the notes do not state one. Never guess.`

// Summarizer asks a chat model to name the license mentioned in another
// backend's findings. It only runs when the inner backend returned text
// without a declared license.
//
// A model failure never discards the inner findings: permanent failures
// return them unchanged, and transient ones keep them for the retry so the
// inner backend is not asked again.
type Summarizer struct {
	Inner Backend
	Model string

	client *openai.Client

	mu      sync.Mutex
	pending map[Query]*Findings
}

// NewSummarizer wraps inner with an OpenAI-compatible chat completion
// client. An empty baseURL uses the OpenAI API.
func NewSummarizer(inner Backend, apiKey, baseURL, model string) *Summarizer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultSummaryModel
	}
	return &Summarizer{
		Inner:  inner,
		Model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

type summary struct {
	License  string `json:"license"`
	Evidence string `json:"evidence"`
}

// Research implements Backend.
func (s *Summarizer) Research(ctx context.Context, q Query) (*Findings, error) {
	f, ok := s.takePending(q)
	if !ok {
		var err error
		f, err = s.Inner.Research(ctx, q)
		if err != nil || f == nil || f.License != "" || strings.TrimSpace(f.Text) == "" {
			return f, err
		}
	}

	user := fmt.Sprintf("Package: %s (%s)\n\nNotes:\n%s", q.Name, q.Ecosystem, truncate(f.Text, maxSummaryInput))
	content, err := s.complete(ctx, summarySystemPrompt, user)
	if err != nil {
		err = classifyLLMError(err)
		switch {
		case ctx.Err() != nil:
			return nil, err
		case httputil.IsRetryable(err):
			s.keepPending(q, f)
			return nil, err
		}
		return f, nil
	}

	var out summary
	if err := json.Unmarshal([]byte(extractJSON(content)), &out); err != nil {
		return f, nil
	}
	lic := strings.TrimSpace(out.License)
	if lic == "" || strings.EqualFold(lic, "unknown") {
		return f, nil
	}

	res := *f
	res.License = lic
	if ev := strings.TrimSpace(out.Evidence); ev != "" {
		res.Text = ev + "\n" + f.Text
	}
	res.Source = f.Source + "+llm"
	return &res, nil
}

func (s *Summarizer) takePending(q Query) (*Findings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.pending[q]
	delete(s.pending, q)
	return f, ok
}

func (s *Summarizer) keepPending(q Query, f *Findings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		s.pending = make(map[Query]*Findings)
	}
	s.pending[q] = f
}

func (s *Summarizer) complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: s.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil && unsupportedResponseFormat(err) {
		req.ResponseFormat = nil
		resp, err = s.client.CreateChatCompletion(ctx, req)
	}
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

func unsupportedResponseFormat(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "response_format")
}

// classifyLLMError marks rate limits, server errors and transport failures
// as retryable.
func classifyLLMError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if retryableStatus(apiErr.HTTPStatusCode) {
			return httputil.Retryable(fmt.Errorf("summarize: %w", err))
		}
		return fmt.Errorf("summarize: %w", err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && !retryableStatus(reqErr.HTTPStatusCode) && reqErr.HTTPStatusCode != 0 {
		return fmt.Errorf("summarize: %w", err)
	}
	return httputil.Retryable(fmt.Errorf("summarize: %w", err))
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "{"); i > 0 {
		s = s[i:]
	}
	if j := strings.LastIndex(s, "}"); j >= 0 && j < len(s)-1 {
		s = s[:j+1]
	}
	return s
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "\n...[truncated]"
}
