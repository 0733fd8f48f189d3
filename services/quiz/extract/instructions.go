package extract

import (
	"context"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// ordered pattern families; overlapping matches across families are
// all kept, duplication is tolerated rather than resolved
var instructionPatterns = []struct {
	kind InstructionKind
	re   *regexp.Regexp
}{
	{InstructionGeneral, regexp.MustCompile(`(?im)^(.*\binstructions?:\s*(.+))$`)},
	{InstructionNote, regexp.MustCompile(`(?im)^(.*\bnote:\s*(.+))$`)},
	{InstructionImportant, regexp.MustCompile(`(?im)^(.*\bimportant:\s*(.+))$`)},
	{InstructionHint, regexp.MustCompile(`(?im)^(.*\bhint:\s*(.+))$`)},
}

const minInstructionLength = 10

// Classify scans visible page text for label-prefixed directives.
// Matches shorter than 10 characters are discarded as noise.
func Classify(ctx context.Context, visibleText string) []Instruction {
	ctx, span := tracer.Start(ctx, "Classify")
	defer span.End()

	var instructions []Instruction
	for _, pattern := range instructionPatterns {
		for _, groups := range pattern.re.FindAllStringSubmatch(visibleText, -1) {
			text := strings.TrimSpace(groups[2])
			if len(text) < minInstructionLength {
				continue
			}
			instructions = append(instructions, Instruction{
				Kind:          pattern.kind,
				Text:          text,
				SourceContext: strings.TrimSpace(groups[1]),
			})
		}
	}

	span.SetAttributes(attribute.Int("count", len(instructions)))
	return instructions
}
