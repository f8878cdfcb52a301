package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"inkwell/internal/models"
)

// analysisSystemPrompt instructs the model to return the exact JSON
// shape AIAnalysis unmarshals from
const analysisSystemPrompt = `You are an analysis assistant for a personal journaling app. Analyze the journal entry and respond with JSON only, no prose, in this exact shape:

{
  "topics": ["..."],
  "sentiment": "positive" | "neutral" | "negative" | "mixed",
  "insights": ["..."],
  "suggestedTags": ["..."]
}

RULES:
- topics: 1-5 short noun phrases describing what the entry is about
- sentiment: the overall emotional tone, one of the four values above
- insights: 1-3 gentle, non-judgmental observations
- suggestedTags: 0-5 lowercase single-word tags
- Never include medical or diagnostic claims`

// AIService calls a chat-completions endpoint to analyze entry content.
// It is entirely optional: the journal works the same with it disabled,
// and a failure here only means an entry has no cached analysis.
type AIService struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
	log    *logrus.Entry
}

// NewAIService creates the analyzer client
func NewAIService(apiURL, apiKey string) *AIService {
	return &AIService{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  "llama-3.3-70b-versatile",
		client: &http.Client{Timeout: 60 * time.Second},
		log:    logrus.WithField("component", "ai"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string                 `json:"model"`
	Messages       []chatMessage          `json:"messages"`
	Temperature    float64                `json:"temperature"`
	ResponseFormat map[string]interface{} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// AnalyzeEntry sends the entry content for analysis and parses the result
func (s *AIService) AnalyzeEntry(ctx context.Context, entry models.JournalEntry) (*models.AIAnalysis, error) {
	if strings.TrimSpace(entry.Content) == "" {
		return nil, nil
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Title: %s\n\n%s", entry.Title, entry.Content)},
		},
		Temperature:    0.2,
		ResponseFormat: map[string]interface{}{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("analysis response had no choices")
	}

	var analysis models.AIAnalysis
	content := strings.TrimSpace(chat.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("model returned malformed analysis JSON: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"entryId":   entry.ID,
		"sentiment": analysis.Sentiment,
		"duration":  time.Since(start).String(),
	}).Info("entry analyzed")
	return &analysis, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
