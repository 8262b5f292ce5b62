package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/finsight/invoice-pipeline/internal/infrastructure/resilience"
)

const (
	// Extraction runs near-deterministically: financial figures must not
	// vary materially between runs over the same document.
	extractionTemperature = 0.1

	textMaxTokens   = 2000
	visionMaxTokens = 4000
	chatMaxTokens   = 1000
)

// Client talks to an OpenAI-compatible chat-completions endpoint. The
// text model handles extraction from PDF text and chat answers; the
// vision model reads images and handwritten documents.
type Client struct {
	baseURL     string
	apiKey      string
	textModel   string
	visionModel string
	httpClient  *http.Client
	executor    *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey, textModel, visionModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		textModel:   textModel,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    options.ResilienceExecutor,
	}
}

func (c *Client) ExtractFromText(ctx context.Context, docText string, totalPages int) (string, error) {
	request := chatRequest{
		Model: c.textModel,
		Messages: []chatMessage{
			{Role: "system", Content: textSystemInstructions},
			{Role: "user", Content: buildTextExtractionPrompt(docText, totalPages)},
		},
		Temperature:    extractionTemperature,
		MaxTokens:      textMaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	return c.complete(ctx, "extract_text", request)
}

func (c *Client) ExtractFromImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	request := chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{
			{Role: "system", Content: visionSystemInstructions},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: buildVisionExtractionPrompt()},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL, Detail: "high"}},
			}},
		},
		Temperature:    extractionTemperature,
		MaxTokens:      visionMaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	return c.complete(ctx, "extract_vision", request)
}

func (c *Client) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	request := chatRequest{
		Model: c.textModel,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   chatMaxTokens,
	}
	return c.complete(ctx, "chat_answer", request)
}

func (c *Client) complete(ctx context.Context, operation string, request chatRequest) (string, error) {
	var response chatResponse

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/v1/chat/completions", request, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai."+operation, call, classifyCompletionError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%s: completion returned no choices", operation)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
