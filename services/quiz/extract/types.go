package extract

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("quizflow.services.quiz.extract")

type InstructionKind string

const (
	InstructionGeneral   InstructionKind = "general"
	InstructionNote      InstructionKind = "note"
	InstructionImportant InstructionKind = "important"
	InstructionHint      InstructionKind = "hint"
)

// Instruction is a directive extracted from a page's visible text.
// Overlapping matches from different pattern families are all retained.
type Instruction struct {
	Kind          InstructionKind `json:"kind"`
	Text          string          `json:"text"`
	SourceContext string          `json:"source_context"`
}

type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionNumber         QuestionType = "number"
	QuestionBoolean        QuestionType = "boolean"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionFile           QuestionType = "file"
	QuestionJSON           QuestionType = "json"
)

// Question is a structured unit extracted from a quiz page. Type is
// fixed at detection time; only Answer is assigned later, exactly once.
type Question struct {
	ID         string       `json:"id"`
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	Options    []string     `json:"options,omitempty"`
	Answer     any          `json:"answer,omitempty"`
	Confidence float64      `json:"confidence,omitempty"`
}
