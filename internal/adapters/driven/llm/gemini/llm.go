// Package gemini provides an LLM service adapter for the Gemini
// generative-language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driven"
	"github.com/custodia-labs/docsrag/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel    = "gemini-2.5-flash"
	DefaultTimeout  = 60 * time.Second
	maxResponseSize = 8 << 20
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// BaseURL is the API base URL (default: the public v1beta endpoint).
	BaseURL string

	// Model is the model to call (default: gemini-2.5-flash).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// LLMService calls generateContent. The API key travels with each request
// so one service serves both guest and user keys.
type LLMService struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateContentRequest is the generateContent request format.
type generateContentRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	Tools             []tool           `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type functionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type functionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

// tool carries either googleSearch or functionDeclarations, never both.
type tool struct {
	GoogleSearch         *struct{}             `json:"googleSearch,omitempty"`
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations,omitempty"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// generateContentResponse is the generateContent response format.
type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("gemini: %w: base URL: %v", domain.ErrInvalidInput, err)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &LLMService{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}, nil
}

// Generate sends one generateContent request.
func (s *LLMService) Generate(ctx context.Context, req domain.LLMRequest) (*domain.LLMResponse, error) {
	if req.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w: no API key", domain.ErrLLMUnavailable)
	}

	body, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, url.PathEscape(s.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", req.APIKey)

	logger.Debug("gemini: POST %s (%d contents, tools=%d)", endpoint, len(req.Contents), req.Tools)
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, ClassifyError(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, ClassifyError(err)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, ClassifyError(fmt.Errorf("read response: %w", err))
	}
	return parseResponse(raw)
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

func buildRequest(req domain.LLMRequest) generateContentRequest {
	out := generateContentRequest{
		Contents:         make([]content, 0, len(req.Contents)),
		GenerationConfig: generationConfig{Temperature: req.Temperature},
	}
	if req.SystemInstruction != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: req.SystemInstruction}}}
	}
	for _, c := range req.Contents {
		out.Contents = append(out.Contents, toContent(c))
	}

	switch req.Tools {
	case domain.ToolsWebSearch:
		out.Tools = []tool{{GoogleSearch: &struct{}{}}}
	case domain.ToolsFunctions:
		decls := make([]functionDeclaration, 0, len(req.Functions))
		for _, f := range req.Functions {
			decls = append(decls, functionDeclaration{
				Name:        f.Name,
				Description: f.Description,
				Parameters:  f.Parameters,
			})
		}
		if len(decls) > 0 {
			out.Tools = []tool{{FunctionDeclarations: decls}}
		}
	}
	return out
}

func toContent(c domain.LLMContent) content {
	out := content{Role: string(c.Role), Parts: make([]part, 0, len(c.Parts))}
	for _, p := range c.Parts {
		switch {
		case p.FunctionCall != nil:
			out.Parts = append(out.Parts, part{FunctionCall: &functionCall{
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			}})
		case p.FunctionResponse != nil:
			out.Parts = append(out.Parts, part{FunctionResponse: &functionResponse{
				Name:     p.FunctionResponse.Name,
				Response: p.FunctionResponse.Response,
			}})
		default:
			out.Parts = append(out.Parts, part{Text: p.Text})
		}
	}
	return out
}

func parseResponse(raw []byte) (*domain.LLMResponse, error) {
	var decoded generateContentResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("gemini: %w: %v", domain.ErrLLMResponse, err)
	}

	if len(decoded.Candidates) == 0 {
		if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("gemini: %w: prompt blocked (%s)", domain.ErrLLMResponse, decoded.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("gemini: %w: no candidates returned", domain.ErrLLMResponse)
	}

	out := &domain.LLMResponse{Raw: raw}
	var text strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		if p.FunctionCall != nil {
			out.FunctionCalls = append(out.FunctionCalls, domain.FunctionCall{
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			})
			continue
		}
		text.WriteString(p.Text)
	}
	out.Text = text.String()
	return out, nil
}
