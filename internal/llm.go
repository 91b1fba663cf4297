package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

const chatModel = "gpt-4o"

// OpenAIClient is a minimal client for the OpenAI chat completions API.
// A default API key is injected at construction; individual calls may
// override it with a per-request key.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIClient creates a client using apiKey as the process-wide
// default credential.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		baseURL:    "https://api.openai.com/v1",
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// resolveKey prefers the per-request key over the configured default.
func (c *OpenAIClient) resolveKey(override string) string {
	if override != "" {
		return override
	}
	return c.apiKey
}

// Complete issues a single chat completion call and returns the text of
// the first choice. There is exactly one attempt per call: no retries,
// no backoff.
func (c *OpenAIClient) Complete(chatReq ChatRequest, apiKey string) (string, error) {
	reqBody, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %v", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.resolveKey(apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI API: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAI API returned error: %s (status code: %d)", string(body), resp.StatusCode)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal OpenAI response: %v", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices")
	}

	content := chatResp.Choices[0].Message.Content
	log.Debugf("[OPENAI] Received %d chars", len(content))
	return content, nil
}

// ValidateKey checks a credential by listing the available models, the
// cheapest authenticated call the API offers.
func (c *OpenAIClient) ValidateKey(apiKey string) error {
	req, err := http.NewRequest("GET", c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.resolveKey(apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call OpenAI API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("OpenAI API returned error: %s (status code: %d)", string(body), resp.StatusCode)
	}
	return nil
}
