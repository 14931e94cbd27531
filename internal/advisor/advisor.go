// Package advisor turns the aggregated dashboard state into natural
// language briefings through a generative model. The model sees only the
// serialized report snapshot: it never fetches data on its own, so a
// degraded section degrades the briefing instead of failing it.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"github.com/finsightlab/finsight-go/internal/config"
	"github.com/finsightlab/finsight-go/internal/models"
	"github.com/finsightlab/finsight-go/internal/telemetry"
)

// Generator produces model output for a prompt. Satisfied by the Gemini
// client; tests substitute a canned implementation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator drives the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator builds a generator from the advisor config block.
func NewGeminiGenerator(ctx context.Context, cfg config.AdvisorConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: cfg.Model}, nil
}

// Generate sends prompt to the configured model and returns its text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "advisor.generate")
	defer span.End()
	span.SetAttributes(attribute.String("gen_ai.request.model", g.model))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("generating content: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("model %s returned an empty response", g.model)
	}
	return text, nil
}

// Advisor answers questions about the dashboard state.
type Advisor struct {
	generator Generator
	logger    *logrus.Entry
}

// New creates an advisor on top of any generator.
func New(generator Generator, logger *logrus.Logger) *Advisor {
	return &Advisor{
		generator: generator,
		logger:    logger.WithField("component", "advisor"),
	}
}

// Summarize produces a briefing over the current report sections and, when
// present, the portfolio snapshot.
func (a *Advisor) Summarize(ctx context.Context, sections []models.ReportSection, snapshot *models.PortfolioSnapshot) (string, error) {
	prompt := buildSummaryPrompt(sections, snapshot)
	a.logger.WithField("sections", len(sections)).Debug("Requesting dashboard summary")
	return a.generator.Generate(ctx, prompt)
}

// Ask answers a free-form question grounded on the same report sections.
func (a *Advisor) Ask(ctx context.Context, question string, sections []models.ReportSection, snapshot *models.PortfolioSnapshot) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question must not be empty")
	}
	prompt := buildQuestionPrompt(question, sections, snapshot)
	return a.generator.Generate(ctx, prompt)
}
