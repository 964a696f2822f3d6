package identify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pricelens/backend/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// ErrIdentifyFailed is returned when the model cannot be reached or answers garbage
var ErrIdentifyFailed = errors.New("identification request failed")

const systemPrompt = `You identify retail products for a price comparison search.
Reply with JSON only: {"success": true, "keywords": "<brand model product type>"}
or {"success": false, "error": "<short reason for the shopper>"}.
Keywords must be a short search query a shop's search box would understand.`

// Config holds identification client configuration
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client asks an OpenAI-compatible model to name the product in an image or behind a barcode
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewClient creates a new identification client
func NewClient(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &Client{
		api:     openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: timeout,
	}
}

// Identify sends the payload to the model and parses its verdict. Model
// refusals come back as an unsuccessful result; transport and decoding
// problems are errors.
func (c *Client) Identify(ctx context.Context, req domain.IdentifyRequest) (*domain.IdentifyResult, error) {
	userMessage, err := buildUserMessage(req)
	if err != nil {
		return nil, err
	}

	log.Printf("[IDENTIFY] Identifying %s input with model %s", req.Type, c.model)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			userMessage,
		},
		Temperature:    0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		log.Printf("[IDENTIFY] Request error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrIdentifyFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrIdentifyFailed)
	}

	result, err := parseResult(resp.Choices[0].Message.Content)
	if err != nil {
		log.Printf("[IDENTIFY] Unparseable answer: %v", err)
		return nil, err
	}

	log.Printf("[IDENTIFY] success=%v keywords=%q", result.Success, result.Keywords)
	return result, nil
}

func buildUserMessage(req domain.IdentifyRequest) (openai.ChatCompletionMessage, error) {
	switch req.Type {
	case domain.InputImage:
		if len(req.Image) == 0 {
			return openai.ChatCompletionMessage{}, domain.ErrInvalidRequest
		}
		mimeType := req.MimeType
		if mimeType == "" {
			mimeType = http.DetectContentType(req.Image)
		}
		dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(req.Image))
		return openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: "Which product is shown in this photo?"},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailLow}},
			},
		}, nil
	case domain.InputBarcode:
		if strings.TrimSpace(req.Barcode) == "" {
			return openai.ChatCompletionMessage{}, domain.ErrInvalidRequest
		}
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf("Which product has the barcode (EAN/UPC) %s?", strings.TrimSpace(req.Barcode)),
		}, nil
	default:
		return openai.ChatCompletionMessage{}, domain.ErrInvalidRequest
	}
}

// parseResult reads the model's JSON verdict, tolerating markdown fences
func parseResult(content string) (*domain.IdentifyResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var result domain.IdentifyResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode answer: %v", ErrIdentifyFailed, err)
	}
	result.Keywords = strings.TrimSpace(result.Keywords)
	if !result.Success && result.Error == "" {
		result.Error = "product could not be recognised"
	}
	return &result, nil
}
