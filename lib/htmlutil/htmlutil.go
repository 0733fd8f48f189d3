package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("quizflow.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

type Anchor struct {
	Name       string
	Href       string
	IsDownload bool
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

var downloadExtensions = []string{
	".pdf", ".docx", ".doc", ".pptx", ".xlsx", ".csv",
	".txt", ".zip", ".png", ".jpg", ".jpeg", ".tiff", ".bmp",
}

func looksLikeDownload(n *html.Node, href string) bool {
	for _, a := range n.Attr {
		if a.Key == "download" {
			return true
		}
	}
	lower := strings.ToLower(href)
	for _, ext := range downloadExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func GetAnchors(ctx context.Context, sel *goquery.Selection) []Anchor {
	ctx, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		link, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			continue
		}

		name := GetText(n)
		name = removeNonPrintable(name)
		name = strings.Trim(name, " \t\n")
		name = innerWhitespace.ReplaceAllString(name, " ")

		linkStr := link.String()
		anchors = append(anchors, Anchor{
			Name:       name,
			Href:       linkStr,
			IsDownload: looksLikeDownload(n, linkStr),
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", linkStr),
		))
	}

	return anchors
}

type FormInput struct {
	Name     string
	Type     string
	Value    string
	Required bool
}

type Form struct {
	Action string
	Method string
	Inputs []FormInput
}

// GetForms walks every <form> in the document, collecting its
// action, method and declared controls (input, select, textarea).
func GetForms(ctx context.Context, doc *goquery.Document) []Form {
	ctx, span := tracer.Start(ctx, "GetForms")
	defer span.End()

	forms := []Form{}
	doc.Find("form").Each(func(_ int, formSel *goquery.Selection) {
		action, _ := formSel.Attr("action")
		method, _ := formSel.Attr("method")
		if method == "" {
			method = "get"
		}

		form := Form{
			Action: action,
			Method: strings.ToLower(method),
		}
		formSel.Find("input, select, textarea").Each(func(_ int, inputSel *goquery.Selection) {
			name, ok := inputSel.Attr("name")
			if !ok {
				name, _ = inputSel.Attr("id")
			}
			inputType, _ := inputSel.Attr("type")
			if inputType == "" {
				inputType = goquery.NodeName(inputSel)
			}
			value, _ := inputSel.Attr("value")
			_, required := inputSel.Attr("required")

			form.Inputs = append(form.Inputs, FormInput{
				Name:     name,
				Type:     strings.ToLower(inputType),
				Value:    value,
				Required: required,
			})
		})
		forms = append(forms, form)

		span.AddEvent("form", trace.WithAttributes(
			attribute.String("action", form.Action),
			attribute.Int("inputs", len(form.Inputs)),
		))
	})

	return forms
}

// VisibleText renders the text a user would see: script, style and
// head content stripped, whitespace collapsed per line.
func VisibleText(doc *goquery.Document) string {
	clone := doc.Selection.Clone()
	clone.Find("script, style, noscript, head").Remove()

	raw := clone.Text()
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Trim(line, " \t\r")
		line = innerWhitespace.ReplaceAllString(line, " ")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
