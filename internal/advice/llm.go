package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the OpenAI-compatible router used when none is configured.
const DefaultBaseURL = "https://router.huggingface.co/v1"

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "meta-llama/Llama-3.1-8B-Instruct:novita"

// Config holds configuration for the LLM advice generator.
type Config struct {
	Token   string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMGenerator asks an OpenAI-compatible chat endpoint for advice and falls
// back to the rule-based generator on any failure or unusable response.
type LLMGenerator struct {
	httpClient *http.Client
	logger     *slog.Logger
	fallback   RuleBased
	token      string
	baseURL    string
	model      string
}

// NewLLMGenerator creates an advice generator. An empty token is valid:
// every request then answers from the rule-based fallback.
func NewLLMGenerator(cfg Config, logger *slog.Logger) *LLMGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &LLMGenerator{
		token:   strings.TrimSpace(cfg.Token),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate produces advice for one month of spending.
func (g *LLMGenerator) Generate(ctx context.Context, month string, spent, budget float64) (string, Source) {
	if g.token == "" {
		g.logger.Info("No advice token configured, using rule-based advice")
		return g.fallback.Generate(ctx, month, spent, budget)
	}

	text, err := g.complete(ctx, month, spent, budget)
	if err != nil {
		g.logger.Warn("Advice model failed, using rule-based fallback", "error", err)
		return g.fallback.Generate(ctx, month, spent, budget)
	}

	bullets := extractBullets(text)
	if len(bullets) == 0 {
		g.logger.Warn("Advice model response unusable, using rule-based fallback")
		return g.fallback.Generate(ctx, month, spent, budget)
	}

	return strings.Join(bullets, "\n"), SourceAI
}

func (g *LLMGenerator) complete(ctx context.Context, month string, spent, budget float64) (string, error) {
	var percentUsed float64
	if budget > 0 {
		percentUsed = spent / budget * 100
	}
	remaining := budget - spent

	prompt := strings.Join([]string{
		"You are a financial coach analyzing spending data from a bank statement.",
		fmt.Sprintf("In %s, the user spent $%.2f.", month, spent),
		fmt.Sprintf("The monthly budget was $%.2f.", budget),
		fmt.Sprintf("(%.1f%% used, $%.2f left).", percentUsed, remaining),
		"Provide exactly 3 concise, actionable financial advice bullet points.",
		"Each point should:",
		"- Start with '* ' (asterisk and space)",
		"- Be specific to their spending situation",
		"- Be practical and actionable",
		"- Be 1-2 sentences maximum",
		"Do NOT include introductory text, explanations, or meta-commentary.",
		"Only output the 3 bullet points, one per line.",
	}, "\n\n")

	body, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   200,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advice API error (status %d)", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return parsed.Choices[0].Message.Content, nil
}

// leadPrefixes are conversational openers models add despite instructions.
var leadPrefixes = []string{
	"Based on your situation,",
	"Here are three",
	"Here are 3",
	"As a financial coach,",
	"Here's my advice:",
	"Here is my advice:",
}

// metaPhrases mark lines that talk about the advice instead of giving it.
var metaPhrases = []string{"here are", "based on", "as a financial"}

// extractBullets cleans a model response down to at most three advice
// bullets, each prefixed with "* ". A response too short to yield a single
// bullet returns nil.
func extractBullets(text string) []string {
	text = strings.TrimSpace(text)
	if len(text) <= 20 {
		return nil
	}

	for _, prefix := range leadPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}

	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cleaned := strings.TrimLeft(line, "*- •0123456789.")
		cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "*", ""))
		if len(cleaned) <= 10 {
			continue
		}

		lower := strings.ToLower(cleaned)
		meta := false
		for _, phrase := range metaPhrases {
			if strings.Contains(lower, phrase) {
				meta = true
				break
			}
		}
		if meta {
			continue
		}

		bullets = append(bullets, "* "+cleaned)
		if len(bullets) == 3 {
			break
		}
	}

	return bullets
}
