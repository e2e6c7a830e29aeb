package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/example/faceglow/internal/logging"
	"github.com/example/faceglow/internal/vision"
)

// Options configures the Gemini vision client.
type Options struct {
	APIKey    string
	Model     string
	MaxTokens int32
}

// Client is a vision.Client backed by the Gemini API. Close releases the
// underlying connection.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
	logger *zap.Logger
}

var _ vision.Client = (*Client)(nil)

// New dials the Gemini API.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	modelName := opts.Model
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	c, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, logging.NewOperationError("vision.gemini.new_client", "", err)
	}

	model := c.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxTokens)
	}

	return &Client{client: c, model: model, name: modelName, logger: logger.Named("gemini")}, nil
}

func (g *Client) Name() string { return "gemini" }

func (g *Client) Analyze(ctx context.Context, prompt string, img vision.Image) (string, error) {
	res, err := g.model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: img.MIMEType, Data: img.Data},
	)
	if err != nil {
		return "", logging.NewOperationError("vision.gemini.generate_content", "", err)
	}
	return replyText(res)
}

// Close releases the client connection.
func (g *Client) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func replyText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", errors.New("no response from Gemini API")
	}

	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		text, ok := part.(genai.Text)
		if !ok {
			return "", errors.New("unexpected response format from Gemini API")
		}
		b.WriteString(string(text))
	}
	if b.Len() == 0 {
		return "", errors.New("no response from Gemini API")
	}
	return b.String(), nil
}
