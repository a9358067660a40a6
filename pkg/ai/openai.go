package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	gradeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "openlearn",
		Subsystem: "ai",
		Name:      "grade_duration_seconds",
		Help:      "Duration of AI grading requests",
	}, []string{"model"})

	gradeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openlearn",
		Subsystem: "ai",
		Name:      "grade_failures_total",
		Help:      "Number of AI grading failures",
	}, []string{"model"})
)

// gradeResponseSchema rejects payloads where the model ignored the output
// instructions (missing fields, wrong types) before a score is accepted.
const gradeResponseSchema = `{
	"type": "object",
	"required": ["score", "feedback"],
	"properties": {
		"score": {"type": "number"},
		"feedback": {"type": "string"}
	}
}`

var compiledGradeSchema = jsonschema.MustCompileString("grade_response.json", gradeResponseSchema)

// OpenAIConfig defines configuration options for the OpenAI grader.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGrader implements Grader against the OpenAI chat completion API.
type OpenAIGrader struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGrader builds a new grader using the provided configuration.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	tracer := otel.Tracer("github.com/openlearn-vn/openlearn-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIGrader{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Grade sends the grading request to OpenAI and parses the response. The
// returned score is clamped to [0, input.MaxScore]; the model is not trusted
// to respect the bound it was given.
func (g *OpenAIGrader) Grade(parent context.Context, input GradeInput) (GradeResult, error) {
	ctx, span := g.tracer.Start(parent, "openai.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.Float64("max_score", input.MaxScore),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: graderSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGradePrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	gradeDuration.WithLabelValues(g.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		gradeFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeResult{}, fmt.Errorf("openai grade: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		gradeFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeResult{}, err
	}

	result, err := ParseGradeResponse(resp.Choices[0].Message.Content, input.MaxScore)
	if err != nil {
		gradeFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeResult{}, err
	}

	result.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return result, nil
}

func graderSystemPrompt() string {
	return "You are an impartial teaching assistant that grades student answers. Respond with a JSON object containing exactly" +
		" two fields: score (a number between 0 and the given maximum) and feedback (a short explanation of mistakes and prais" +
		"e where deserved)."
}

func buildGradePrompt(input GradeInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Question\n")
	builder.WriteString(input.Question)
	builder.WriteString("\n\n## Maximum Score\n")
	builder.WriteString(fmt.Sprintf("%g", input.MaxScore))
	builder.WriteString("\n\n## Student Answer\n")
	builder.WriteString(input.Answer)
	builder.WriteString("\nReturn JSON only, no markdown.")
	return builder.String()
}

// ParseGradeResponse extracts a GradeResult from raw model output. Fenced
// code-block wrappers are stripped before parsing; the payload is checked
// against the response schema and the score clamped to [0, maxScore].
func ParseGradeResponse(content string, maxScore float64) (GradeResult, error) {
	cleaned := stripCodeFences(content)

	var payload interface{}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return GradeResult{}, fmt.Errorf("parse grade json: %w", err)
	}

	if err := compiledGradeSchema.Validate(payload); err != nil {
		return GradeResult{}, fmt.Errorf("grade payload schema: %w", err)
	}

	var data struct {
		Score    float64 `json:"score"`
		Feedback string  `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return GradeResult{}, fmt.Errorf("parse grade json: %w", err)
	}

	if data.Score < 0 {
		data.Score = 0
	}
	if maxScore > 0 && data.Score > maxScore {
		data.Score = maxScore
	}

	return GradeResult{
		Score:    data.Score,
		Feedback: data.Feedback,
	}, nil
}

func stripCodeFences(content string) string {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
