package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Returned when the provider answered but no text could be extracted from
// the response in any known shape.
const apologyReply = "Sorry, I couldn't come up with an answer this time. Please try again."

// LLMService wraps the Gemini client behind the pipeline's Generator
// contract: one attempt per turn, bounded only by the caller's context.
type LLMService struct {
	client *genai.Client
	model  string
}

func NewLLMService(ctx context.Context, apiKey, model string) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client, model: model}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logrus.Errorf("Error closing GenAI client: %v", err)
		}
	}
}

// Generate sends the assembled prompt and returns the generated text.
// Provider backpressure maps to ErrRateLimited; everything else, including an
// expired context deadline, maps to ErrModelUnavailable.
func (s *LLMService) Generate(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.model)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyProviderError(err)
	}

	text, ok := extractText(resp)
	if !ok {
		logrus.Warn("Gemini response had no extractable text, returning apology")
		return apologyReply, nil
	}
	return text, nil
}

func classifyProviderError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: call deadline expired: %v", ErrModelUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
}

// extractText pulls text out of the provider response. Response shapes vary
// across provider versions, so two strategies run in order: typed text parts
// first, then a raw stringification of whatever parts remain. Reports ok
// rather than erroring so the caller chooses the fallback by type.
func extractText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	parts := resp.Candidates[0].Content.Parts

	var text strings.Builder
	for _, part := range parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if text.Len() > 0 {
		return text.String(), true
	}

	// Fallback: no typed text parts, take whatever prints non-empty.
	for _, part := range parts {
		if raw := strings.TrimSpace(fmt.Sprint(part)); raw != "" {
			logrus.Warnf("Gemini response part was not text (%T), using raw value", part)
			return raw, true
		}
	}
	return "", false
}
