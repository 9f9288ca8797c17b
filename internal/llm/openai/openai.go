package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/store"
	"llm-trader/internal/trace"
)

// OpenAIDecider talks to any OpenAI-compatible chat completion endpoint
// (api.openai.com, api.x.ai, ...). It returns the raw completion text;
// parsing is owned by the engine.
type OpenAIDecider struct {
	cfg *store.Config
}

var _ interfaces.Decider = (*OpenAIDecider)(nil)

func NewOpenAIDecider(cfg *store.Config) *OpenAIDecider {
	return &OpenAIDecider{cfg: cfg}
}

func (d *OpenAIDecider) Decide(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := os.Getenv(d.cfg.LLM.APIKeyEnv)
	if apiKey == "" {
		return "", fmt.Errorf("%s missing", d.cfg.LLM.APIKeyEnv)
	}

	messages := []map[string]string{}
	if d.cfg.LLM.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": d.cfg.LLM.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	body := map[string]any{
		"model":       d.cfg.LLM.Model,
		"messages":    messages,
		"temperature": d.cfg.LLM.Temperature,
	}
	if d.cfg.LLM.MaxTokens > 0 {
		body["max_tokens"] = d.cfg.LLM.MaxTokens
	}
	bb, _ := json.Marshal(body)

	url := strings.TrimRight(d.cfg.LLM.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm endpoint http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}

	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}

	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
