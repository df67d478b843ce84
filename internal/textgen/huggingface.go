package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	DefaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"
	DefaultHuggingFaceModel   = "mistralai/Mistral-7B-Instruct-v0.2"
)

// HuggingFaceConfig configures the Hugging Face inference client
type HuggingFaceConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// HuggingFaceClient calls the Hugging Face hosted inference API
type HuggingFaceClient struct {
	apiKey     string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

// NewHuggingFaceClient creates a Hugging Face client. An API key is required.
func NewHuggingFaceClient(cfg HuggingFaceConfig) (*HuggingFaceClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Hugging Face API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultHuggingFaceModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHuggingFaceBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultOpenAIMaxTokens
	}

	return &HuggingFaceClient{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
	}, nil
}

// Name identifies the backend
func (c *HuggingFaceClient) Name() string {
	return "huggingface"
}

// Generate runs text generation on the configured model
func (c *HuggingFaceClient) Generate(ctx context.Context, prompt string) (string, error) {
	request := hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens:   c.maxTokens,
			Temperature:    0.7,
			ReturnFullText: false,
		},
	}

	body, err := postJSON(ctx, c.httpClient, c.baseURL+"/models/"+c.model, c.apiKey, request)
	if err != nil {
		return "", fmt.Errorf("Hugging Face request failed: %w", err)
	}

	var generations []hfGeneration
	if err := json.Unmarshal(body, &generations); err != nil {
		return "", fmt.Errorf("failed to parse Hugging Face response: %w", err)
	}
	if len(generations) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(generations[0].GeneratedText)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
