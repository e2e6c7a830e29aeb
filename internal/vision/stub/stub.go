package stub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/example/faceglow/internal/analysis"
	"github.com/example/faceglow/internal/vision"
)

// Client is a deterministic, no-network vision client for local runs and CI.
// The reply is schema-valid and depends only on the image bytes.
type Client struct{}

var _ vision.Client = (*Client)(nil)

var faceShapes = []string{"Oval", "Redondo", "Quadrado", "Triangular", "Coração", "Diamante", "Retangular"}

func New() *Client { return &Client{} }

func (c *Client) Name() string { return "stub" }

func (c *Client) Analyze(ctx context.Context, prompt string, img vision.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sum := sha256.Sum256(img.Data)
	short := hex.EncodeToString(sum[:4])

	result := analysis.AnalysisResult{
		FaceShape:       faceShapes[int(sum[0])%len(faceShapes)],
		Characteristics: []string{"Maçãs do rosto definidas", "Testa proporcional", fmt.Sprintf("Referência %s", short)},
		Exercises: []analysis.Exercise{
			{
				Name:        "Sorriso resistido",
				Description: "Sorria amplamente mantendo os lábios fechados por 10 segundos e relaxe.",
				Duration:    "5 minutos",
				Frequency:   "2x ao dia",
				Benefits:    []string{"Tonificação das bochechas", "Melhora da circulação"},
			},
			{
				Name:        "Massagem mandibular",
				Description: "Com movimentos circulares, massageie a articulação da mandíbula.",
				Duration:    "3 minutos",
				Frequency:   "Diariamente",
				Benefits:    []string{"Relaxamento de tensões"},
			},
		},
		Habits: []analysis.Habit{
			{Name: "Hidratação", Description: "Beba pelo menos 2 litros de água por dia.", Frequency: "Diariamente", Impact: "Alto impacto"},
			{Name: "Proteção solar", Description: "Aplique protetor solar FPS 30 ou superior.", Frequency: "Diariamente", Impact: "Alto impacto"},
		},
		Recommendations: []string{"Mantenha uma rotina de sono regular."},
	}

	b, err := analysis.Encode(&result)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
