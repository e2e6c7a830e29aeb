package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/example/faceglow/internal/analysis"
	"github.com/example/faceglow/internal/logging"
	"github.com/example/faceglow/internal/vision"
)

var (
	// ErrMissingImage is returned when the request carries no image.
	ErrMissingImage = errors.New("image is required")
	// ErrAnalysisFailed covers every downstream failure: undecodable image,
	// model error, empty or malformed reply.
	ErrAnalysisFailed = errors.New("face analysis failed")
)

// AnalysisUseCase sends an image to the configured vision model and returns
// the model's JSON reply. It holds no per-request state and is safe for
// concurrent use.
type AnalysisUseCase struct {
	client      vision.Client
	logger      *zap.Logger
	metrics     *Metrics
	strictShape bool
	prompt      string
}

// Option customises an AnalysisUseCase.
type Option func(*AnalysisUseCase)

// WithStrictShape rejects replies that do not decode into a fully populated
// analysis.AnalysisResult.
func WithStrictShape(strict bool) Option {
	return func(uc *AnalysisUseCase) { uc.strictShape = strict }
}

// WithMetrics records request outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(uc *AnalysisUseCase) { uc.metrics = m }
}

// NewAnalysisUseCase constructs a new use case instance.
func NewAnalysisUseCase(client vision.Client, logger *zap.Logger, opts ...Option) *AnalysisUseCase {
	uc := &AnalysisUseCase{
		client: client,
		logger: logger.Named("analysis_usecase"),
		prompt: analysis.Prompt(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Provider returns the name of the backing vision model.
func (uc *AnalysisUseCase) Provider() string {
	return uc.client.Name()
}

// AnalyzeFace decodes rawImage (a data URL or bare base64), asks the model for
// an analysis and returns the reply bytes unchanged once they parse as a JSON
// object. The returned error wraps ErrMissingImage or ErrAnalysisFailed.
func (uc *AnalysisUseCase) AnalyzeFace(ctx context.Context, requestID, rawImage string) (json.RawMessage, error) {
	const operation = "usecase.analyze_face"
	opLogger := logging.WithOperation(uc.logger, operation, requestID)

	if rawImage == "" {
		uc.metrics.observeResult(resultMissingImage)
		return nil, ErrMissingImage
	}

	done := uc.metrics.start(uc.client.Name())
	raw, err := uc.analyze(ctx, requestID, rawImage)
	done()
	if err != nil {
		uc.metrics.observeResult(resultFailed)
		opLogger.Error("face analysis failed",
			append(logging.ErrorFields(err), zap.String("provider", uc.client.Name()))...,
		)
		return nil, logging.NewOperationError(operation, requestID, errors.Join(ErrAnalysisFailed, err))
	}

	uc.metrics.observeResult(resultSuccess)
	opLogger.Info("face analysis completed",
		zap.String("provider", uc.client.Name()),
		zap.String("prompt_version", analysis.PromptVersion),
		zap.Int("reply_bytes", len(raw)),
	)
	return raw, nil
}

func (uc *AnalysisUseCase) analyze(ctx context.Context, requestID, rawImage string) (json.RawMessage, error) {
	img, err := vision.ParseDataURL(rawImage)
	if err != nil {
		return nil, logging.NewOperationError("usecase.decode_image", requestID, err)
	}

	started := time.Now()
	reply, err := uc.client.Analyze(ctx, uc.prompt, img)
	if err != nil {
		return nil, logging.NewOperationError("usecase.vision_analyze", requestID, err)
	}
	uc.logger.Debug("model replied",
		zap.String("request_id", requestID),
		zap.Duration("latency", time.Since(started)),
		zap.Int("image_bytes", len(img.Data)),
	)

	raw, err := analysis.ParseReply(reply)
	if err != nil {
		return nil, logging.NewOperationError("usecase.parse_reply", requestID, err)
	}

	if uc.strictShape {
		if _, err := analysis.ValidateShape(raw); err != nil {
			return nil, logging.NewOperationError("usecase.validate_shape", requestID, err)
		}
	}
	return raw, nil
}
