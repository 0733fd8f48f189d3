package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"quizflow-backend/lib/textutil"
	"quizflow-backend/services/quiz/browser"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

const minQuestionLength = 5

var (
	numberedItemRe = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+(.+)$`)
	sentenceRe     = regexp.MustCompile(`[A-Z][^?\n]*\?`)
	qPrefixRe      = regexp.MustCompile(`(?im)^\s*(q\d+[:.]\s*.+)$`)
)

// DetectQuestions extracts structured questions from a page snapshot.
// When the page carries an explicit `questions` JSON array that
// structured list wins outright; otherwise three freeform heuristics
// run over the visible text.
func DetectQuestions(ctx context.Context, page browser.RawPage) []Question {
	ctx, span := tracer.Start(ctx, "DetectQuestions")
	defer span.End()

	if questions := structuredQuestions(page); len(questions) > 0 {
		span.SetAttributes(
			attribute.Bool("structured", true),
			attribute.Int("count", len(questions)),
		)
		return questions
	}

	questions := heuristicQuestions(page.VisibleText)
	span.SetAttributes(
		attribute.Bool("structured", false),
		attribute.Int("count", len(questions)),
	)
	return questions
}

type structuredQuestion struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Question string   `json:"question"`
	Type     string   `json:"type"`
	Options  []string `json:"options"`
}

type structuredPayload struct {
	Questions []structuredQuestion `json:"questions"`
}

// structuredQuestions looks for a JSON document with a `questions`
// array, either in a script/pre block or as the whole page body.
func structuredQuestions(page browser.RawPage) []Question {
	var candidates []string

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err == nil {
		doc.Find("script, pre").Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if strings.HasPrefix(text, "{") {
				candidates = append(candidates, text)
			}
		})
	}
	if trimmed := strings.TrimSpace(page.VisibleText); strings.HasPrefix(trimmed, "{") {
		candidates = append(candidates, trimmed)
	}

	for _, candidate := range candidates {
		var payload structuredPayload
		if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
			continue
		}
		if len(payload.Questions) == 0 {
			continue
		}

		// explicit ids from the source take precedence; the fallback
		// counter skips over ids already claimed so the set stays unique
		claimed := map[string]bool{}
		for _, sq := range payload.Questions {
			if sq.ID != "" {
				claimed[sq.ID] = true
			}
		}

		questions := make([]Question, 0, len(payload.Questions))
		next := 1
		for _, sq := range payload.Questions {
			text := sq.Text
			if text == "" {
				text = sq.Question
			}
			id := sq.ID
			if id == "" {
				for claimed[fmt.Sprintf("q%d", next)] {
					next++
				}
				id = fmt.Sprintf("q%d", next)
				claimed[id] = true
				next++
			}
			qtype := QuestionType(sq.Type)
			if sq.Type == "" {
				qtype = InferType(text)
			}
			questions = append(questions, Question{
				ID:      id,
				Text:    text,
				Type:    qtype,
				Options: sq.Options,
			})
		}
		return questions
	}

	return nil
}

func heuristicQuestions(visibleText string) []Question {
	var questions []Question
	var seen []string

	add := func(text string) {
		text = strings.TrimSpace(text)
		if len(text) < minQuestionLength {
			return
		}
		normalized := textutil.NormalizeName(text)
		for _, s := range seen {
			if strings.Contains(s, normalized) || strings.Contains(normalized, s) {
				return
			}
		}
		seen = append(seen, normalized)
		questions = append(questions, Question{
			ID:   fmt.Sprintf("q%d", len(questions)+1),
			Text: text,
			Type: InferType(text),
		})
	}

	for _, groups := range numberedItemRe.FindAllStringSubmatch(visibleText, -1) {
		add(groups[1])
	}
	for _, match := range sentenceRe.FindAllString(visibleText, -1) {
		add(match)
	}
	for _, groups := range qPrefixRe.FindAllStringSubmatch(visibleText, -1) {
		add(groups[1])
	}

	return questions
}

// keyword matching is word-bounded so e.g. "capital" does not read as
// an api question
var typeRules = []struct {
	qtype QuestionType
	re    *regexp.Regexp
}{
	{QuestionBoolean, regexp.MustCompile(`(?i)\btrue\s*(?:or|/)\s*false\b`)},
	{QuestionMultipleChoice, regexp.MustCompile(`(?i)\b(?:select|check)\s+all\b`)},
	{QuestionFile, regexp.MustCompile(`(?i)\b(?:file|upload)\b`)},
	{QuestionNumber, regexp.MustCompile(`(?i)\b(?:how many|count|number of)\b`)},
	{QuestionJSON, regexp.MustCompile(`(?i)\b(?:json|api|data)\b`)},
}

// InferType scans question text for type keywords; the first matching
// rule wins, in the order declared above.
func InferType(text string) QuestionType {
	for _, rule := range typeRules {
		if rule.re.MatchString(text) {
			return rule.qtype
		}
	}
	return QuestionText
}
