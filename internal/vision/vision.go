package vision

import "context"

// Client sends one image plus an instruction prompt to a multimodal model and
// returns the model's text reply.
type Client interface {
	// Name returns the provider label, e.g. "openai" or "gemini".
	Name() string

	// Analyze performs a single completion request. The reply is returned
	// as-is; callers decide whether it is usable. ctx bounds the request.
	Analyze(ctx context.Context, prompt string, img Image) (string, error)
}
