package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/wellcast-go/internal/models"
	"github.com/irfndi/wellcast-go/internal/textgen"
)

const (
	// DefaultGenerationTimeout bounds a single call to a generative backend
	DefaultGenerationTimeout = 8 * time.Second

	sourceTemplate = "template"
)

// ErrNoRecommendations is returned when every strategy in the chain failed
var ErrNoRecommendations = errors.New("no recommendation strategy produced a result")

// RecommendationContext is everything a strategy may use to build recommendations
type RecommendationContext struct {
	RiskLevel        models.RiskLevel
	PrimaryFactor    models.PrimaryFactor
	EmotionalWeather models.EmotionalWeather
	Factors          models.ForecastFactors
	OverallScore     float64
	Trend            models.Trend
	SignalCount      int
}

// RecommendationStrategy produces recommendations from forecast context
type RecommendationStrategy interface {
	Name() string
	Generate(ctx context.Context, rc RecommendationContext) ([]models.Recommendation, error)
}

// Recommender is what the forecast engine depends on
type Recommender interface {
	Recommend(ctx context.Context, rc RecommendationContext) ([]models.Recommendation, error)
}

// SourceRecorder counts which strategy produced the recommendations
type SourceRecorder interface {
	RecordRecommendationSource(source string)
}

// GenerativeStrategy asks a text generation backend for recommendations
type GenerativeStrategy struct {
	generator textgen.Generator
	breaker   *CircuitBreaker
	timeout   time.Duration
}

// NewGenerativeStrategy wraps generator with a timeout and an optional breaker
func NewGenerativeStrategy(generator textgen.Generator, breaker *CircuitBreaker, timeout time.Duration) *GenerativeStrategy {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &GenerativeStrategy{
		generator: generator,
		breaker:   breaker,
		timeout:   timeout,
	}
}

func (s *GenerativeStrategy) Name() string {
	return s.generator.Name()
}

func (s *GenerativeStrategy) Generate(ctx context.Context, rc RecommendationContext) ([]models.Recommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := buildRecommendationPrompt(rc)

	var text string
	call := func(ctx context.Context) error {
		var err error
		text, err = s.generator.Generate(ctx, prompt)
		return err
	}

	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}

	recs := parseGeneratedRecommendations(text, rc, s.Name())
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s: no recommendations in response", s.Name())
	}
	return recs, nil
}

// TemplateStrategy returns canned recommendations and never fails
type TemplateStrategy struct{}

func (TemplateStrategy) Name() string {
	return sourceTemplate
}

func (TemplateStrategy) Generate(_ context.Context, rc RecommendationContext) ([]models.Recommendation, error) {
	return templateRecommendations(rc.RiskLevel, rc.PrimaryFactor.Category), nil
}

type strategyResult struct {
	recommendations []models.Recommendation
	err             error
}

// RecommendationGenerator tries its strategies in order and returns the first
// non-empty result.
type RecommendationGenerator struct {
	strategies []RecommendationStrategy
	logger     *logrus.Logger
	recorder   SourceRecorder
}

// NewRecommendationGenerator creates a generator. The template strategy is
// appended when the chain does not already end with one.
func NewRecommendationGenerator(logger *logrus.Logger, recorder SourceRecorder, strategies ...RecommendationStrategy) *RecommendationGenerator {
	chain := make([]RecommendationStrategy, 0, len(strategies)+1)
	chain = append(chain, strategies...)
	if len(chain) == 0 || chain[len(chain)-1].Name() != sourceTemplate {
		chain = append(chain, TemplateStrategy{})
	}
	return &RecommendationGenerator{
		strategies: chain,
		logger:     logger,
		recorder:   recorder,
	}
}

// Strategies returns the names of the configured strategies in order
func (g *RecommendationGenerator) Strategies() []string {
	names := make([]string, len(g.strategies))
	for i, s := range g.strategies {
		names[i] = s.Name()
	}
	return names
}

// Recommend runs the strategy chain. It only errors when every strategy failed.
func (g *RecommendationGenerator) Recommend(ctx context.Context, rc RecommendationContext) ([]models.Recommendation, error) {
	var errs []error
	for _, strategy := range g.strategies {
		result := runStrategy(ctx, strategy, rc)
		if result.err == nil && len(result.recommendations) > 0 {
			if g.recorder != nil {
				g.recorder.RecordRecommendationSource(strategy.Name())
			}
			return result.recommendations, nil
		}

		err := result.err
		if err == nil {
			err = fmt.Errorf("%s: empty result", strategy.Name())
		}
		errs = append(errs, err)
		g.logger.WithFields(logrus.Fields{
			"strategy":   strategy.Name(),
			"risk_level": rc.RiskLevel,
			"error":      err.Error(),
		}).Warn("Recommendation strategy failed, trying next")
	}
	return nil, fmt.Errorf("%w: %w", ErrNoRecommendations, errors.Join(errs...))
}

func runStrategy(ctx context.Context, strategy RecommendationStrategy, rc RecommendationContext) (result strategyResult) {
	defer func() {
		if r := recover(); r != nil {
			result = strategyResult{err: fmt.Errorf("%s panicked: %v", strategy.Name(), r)}
		}
	}()
	recs, err := strategy.Generate(ctx, rc)
	return strategyResult{recommendations: recs, err: err}
}

func buildRecommendationPrompt(rc RecommendationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A person's burnout forecast shows %s risk (score %.1f, trend %s).\n",
		rc.RiskLevel, rc.OverallScore, rc.Trend)
	fmt.Fprintf(&b, "Their emotional weather is %q: %s.\n", rc.EmotionalWeather.Label, rc.EmotionalWeather.Description)
	fmt.Fprintf(&b, "Primary factor: %s. %s\n", rc.PrimaryFactor.Category, rc.PrimaryFactor.Description)
	writePromptList(&b, "Positive patterns", rc.Factors.Positive)
	writePromptList(&b, "Negative patterns", rc.Factors.Negative)
	writePromptList(&b, "Mixed patterns", rc.Factors.Neutral)
	fmt.Fprintf(&b, "The forecast is based on %d recent signals.\n", rc.SignalCount)
	b.WriteString("Give 3 to 5 short, specific, actionable recommendations, one per line.")
	return b.String()
}

func writePromptList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s.\n", title, strings.Join(items, "; "))
}
