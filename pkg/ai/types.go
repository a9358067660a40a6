package ai

import "context"

// GradeInput contains the artefacts needed to grade a free-text answer.
type GradeInput struct {
	Question string
	Answer   string
	MaxScore float64
}

// GradeResult is the structured verdict returned by the grader.
type GradeResult struct {
	Score    float64                `json:"score"`
	Feedback string                 `json:"feedback"`
	Raw      map[string]interface{} `json:"raw,omitempty"`
}

// Grader describes an AI model capable of grading free-text answers. A
// returned error means the external call or its payload could not be
// trusted; callers are expected to fall back to a degraded result rather
// than surface the failure.
type Grader interface {
	Grade(ctx context.Context, input GradeInput) (GradeResult, error)
}
