package openai

import (
	"context"
	"errors"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/example/faceglow/internal/logging"
	"github.com/example/faceglow/internal/vision"
)

// Options configures the OpenAI vision client.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string       // optional, for proxies and tests
	MaxTokens  int          // 0 leaves the server default
	HTTPClient *http.Client // nil uses http.DefaultClient
}

type client struct {
	api       *goopenai.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

var _ vision.Client = (*client)(nil)

// New returns a vision.Client backed by the chat completions API.
func New(opts Options, logger *zap.Logger) vision.Client {
	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	model := opts.Model
	if model == "" {
		model = goopenai.GPT4o
	}
	return &client{
		api:       goopenai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: opts.MaxTokens,
		logger:    logger.Named("openai"),
	}
}

func (c *client) Name() string { return "openai" }

func (c *client) Analyze(ctx context.Context, prompt string, img vision.Image) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role: goopenai.ChatMessageRoleUser,
				MultiContent: []goopenai.ChatMessagePart{
					{Type: goopenai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     goopenai.ChatMessagePartTypeImageURL,
						ImageURL: &goopenai.ChatMessageImageURL{URL: img.DataURL()},
					},
				},
			},
		},
		MaxTokens: c.maxTokens,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", logging.NewOperationError("vision.openai.chat_completion", "", err)
	}
	if len(resp.Choices) == 0 {
		return "", logging.NewOperationError("vision.openai.chat_completion", "", errors.New("no choices in response"))
	}

	choice := resp.Choices[0]
	if choice.FinishReason == goopenai.FinishReasonLength {
		c.logger.Warn("completion truncated by max_tokens", zap.Int("max_tokens", c.maxTokens), zap.String("model", c.model))
	}
	return choice.Message.Content, nil
}
