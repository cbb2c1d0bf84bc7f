package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultGroqBaseURL is the Groq OpenAI-compatible API endpoint.
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

	// DefaultGroqModel is the default chat model.
	DefaultGroqModel = "llama-3.3-70b-versatile"

	// DefaultTimeout bounds one completion call.
	DefaultTimeout = 60 * time.Second
)

// GroqClient implements Chat against Groq's chat-completions API.
type GroqClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// GroqOption is a functional option for configuring GroqClient.
type GroqOption func(*GroqClient)

// WithBaseURL sets a custom base URL for the Groq API.
func WithBaseURL(url string) GroqOption {
	return func(c *GroqClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithModel sets the chat model for the client.
func WithModel(model string) GroqOption {
	return func(c *GroqClient) {
		c.model = model
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) GroqOption {
	return func(c *GroqClient) {
		c.httpClient = client
	}
}

// NewGroqClient creates a Groq chat client. An empty apiKey yields an
// unconfigured client; callers check Configured and degrade.
func NewGroqClient(apiKey string, opts ...GroqOption) *GroqClient {
	c := &GroqClient{
		baseURL: DefaultGroqBaseURL,
		apiKey:  apiKey,
		model:   DefaultGroqModel,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// chatRequest is the chat-completions request body.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// chatResponse is the subset of the chat-completions response we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the messages and returns the first choice's content.
func (c *GroqClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("groq client: no API key configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("groq API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("groq API returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}

// Configured reports whether an API key is present.
func (c *GroqClient) Configured() bool {
	return c.apiKey != ""
}

// Ensure GroqClient implements Chat interface.
var _ Chat = (*GroqClient)(nil)
