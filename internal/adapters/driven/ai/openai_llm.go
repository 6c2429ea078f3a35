package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven"
)

// Ensure OpenAILLM implements LLMService
var _ driven.LLMService = (*OpenAILLM)(nil)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1024
)

// OpenAILLM implements LLMService against any OpenAI-compatible chat
// completions endpoint
type OpenAILLM struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAILLM creates a new OpenAI LLM service
func NewOpenAILLM(apiKey, model, baseURL string) (driven.LLMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	if model == "" {
		model = "gpt-4o-mini"
	}

	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAILLM{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// chatMessage is one entry in a chat completion conversation
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for the chat completions API
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream,omitempty"`
}

// chatResponse is the non-streaming response body
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// chatStreamEvent is one SSE data payload of a streaming response
type chatStreamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Complete generates a single grounded answer
func (l *OpenAILLM) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	resp, err := l.client.Do(l.request(ctx, req, false))
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("LLM API error: %s (type: %s)", chatResp.Error.Message, chatResp.Error.Type)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM API returned status %d", resp.StatusCode)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("LLM API returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// CompleteStream generates an answer incrementally over SSE
func (l *OpenAILLM) CompleteStream(ctx context.Context, req domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	resp, err := l.client.Do(l.request(ctx, req, true))
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("LLM API returned status %d", resp.StatusCode)
	}

	out := make(chan domain.StreamChunk, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")
			if strings.TrimSpace(data) == "[DONE]" {
				break
			}

			var event chatStreamEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				// Partial or malformed frames are skipped, matching the
				// lenient behavior of SSE consumers
				continue
			}
			if len(event.Choices) == 0 || event.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case out <- domain.StreamChunk{Content: event.Choices[0].Delta.Content}:
			case <-ctx.Done():
				// A cancelled consumer may have stopped draining, so
				// the terminal chunk must not block
				select {
				case out <- domain.StreamChunk{Err: ctx.Err()}:
				default:
				}
				return
			}
		}

		if err := scanner.Err(); err != nil {
			out <- domain.StreamChunk{Err: err}
			return
		}
		out <- domain.StreamChunk{Done: true}
	}()

	return out, nil
}

// Model returns the model name being used
func (l *OpenAILLM) Model() string {
	return l.model
}

// Ping verifies the LLM service is available via the models endpoint
func (l *OpenAILLM) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", l.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("LLM ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("LLM ping returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources held by the LLM service
func (l *OpenAILLM) Close() error {
	l.client.CloseIdleConnections()
	return nil
}

// request builds the chat completions HTTP request with the RAG prompt
func (l *OpenAILLM) request(ctx context.Context, req domain.CompletionRequest, stream bool) *http.Request {
	model := req.Model
	if model == "" || model == "default" {
		model = l.model
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body, _ := json.Marshal(chatRequest{
		Model:       model,
		Messages:    buildRAGMessages(req),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      stream,
	})

	httpReq, _ := http.NewRequestWithContext(ctx, "POST", l.baseURL+"/chat/completions", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+l.apiKey)
	return httpReq
}

// buildRAGMessages frames the retrieved documents as numbered context
// blocks ahead of the question
func buildRAGMessages(req domain.CompletionRequest) []chatMessage {
	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = domain.DefaultRAGSystemPrompt
	}

	var contexts strings.Builder
	for i, hit := range req.Contexts {
		if i > 0 {
			contexts.WriteString("\n\n")
		}
		fmt.Fprintf(&contexts, "[Document %d]\n%s", i+1, hit.Content)
	}

	userContent := fmt.Sprintf(`Please answer the question based on the following context documents.

Context:
%s

Question: %s

Please provide a helpful and accurate answer based on the context above. If the context doesn't contain enough information to answer the question, please say so.`,
		contexts.String(), req.Query)

	return []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userContent},
	}
}
