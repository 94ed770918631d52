package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chatsight/chatsight/internal/anthropic"
	"github.com/chatsight/chatsight/internal/store"
)

// AnalysisResult is the classifier's verdict for one conversation.
type AnalysisResult struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	Summary   string  `json:"summary"`
}

// Classifier scores one conversation transcript. The pipeline treats it as
// opaque; the only contract is a result or an error.
type Classifier interface {
	Classify(ctx context.Context, text string) (AnalysisResult, error)
}

const classifySystemPrompt = `You are a customer-support quality analyst. You will receive one chat transcript.
Respond with ONLY a JSON object, no prose:
{
  "sentiment": "positive" | "neutral" | "negative",
  "score": <number 0-100, how well the customer's need was handled>,
  "summary": "<one sentence describing the conversation>"
}`

// LLMClassifier classifies transcripts through the Anthropic Messages API.
type LLMClassifier struct {
	llm    *anthropic.Client
	logger *slog.Logger
}

func NewLLMClassifier(llm *anthropic.Client, logger *slog.Logger) *LLMClassifier {
	return &LLMClassifier{llm: llm, logger: logger}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) (AnalysisResult, error) {
	messages := []anthropic.Message{
		{Role: "user", Content: text},
	}

	raw, err := c.llm.Complete(ctx, classifySystemPrompt, messages, 1024)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("llm classify: %w", err)
	}

	var res AnalysisResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		c.logger.Error("failed to parse classification response", "error", err, "raw", raw)
		return AnalysisResult{}, fmt.Errorf("parse classification: %w", err)
	}
	return res, nil
}

// FormatTranscript renders a conversation's messages as a role-labelled
// transcript string for the classifier.
func FormatTranscript(msgs []store.Message) string {
	var sb strings.Builder
	for _, m := range msgs {
		switch m.SenderRole {
		case "user":
			sb.WriteString("Customer: ")
		case "bot":
			sb.WriteString("Bot: ")
		case "agent":
			sb.WriteString("Agent: ")
		default:
			sb.WriteString(m.SenderRole + ": ")
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
