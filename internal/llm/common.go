package llm

import (
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// температура пониженная: отчеты и оценки должны быть воспроизводимыми
const defaultTemperature = 0.2

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message Message `json:"message"`
}

func NewChatRequest(model, system, prompt string) ChatRequest {
	return ChatRequest{
		Model:       model,
		Temperature: defaultTemperature,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}
}

// HandleHTTPError маппит статусы провайдера на сентинелы пакета
func HandleHTTPError(statusCode int, body []byte, logger *zap.Logger, provider string) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusTooManyRequests:
		return ErrRateLimit
	default:
		logger.Error(provider+" request failed",
			zap.Int("status", statusCode),
			zap.String("body", string(body)),
		)
		return fmt.Errorf("%w: status %d", ErrRequestFailed, statusCode)
	}
}

func ExtractContent(resp *ChatResponse) (string, error) {
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func DoRequest(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
