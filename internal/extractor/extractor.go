// Package extractor pulls article title and body text out of raw news pages.
//
// Pages are read in two tiers. The structured tier decodes the initialization
// data some sites embed in script blocks; the tag tier falls back to CSS
// selectors over the rendered markup. Extraction never fails: every problem
// degrades to placeholder text.
package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	DefaultScriptType   = "application/prs.init-data+json"
	DefaultBodySelector = "div.body-KX2tCBZq"

	emptyDocumentTitle   = "Error"
	emptyDocumentContent = "Empty HTML content provided."
	noTitle              = "No Title Found"
	noContent            = "No readable content found on this page after trying all methods."

	paragraphNode = "p"
)

// DefaultTitleSelectors are tried in order, most specific first.
var DefaultTitleSelectors = []string{
	"h1.title-KX2tCBZq",
	"h1.tv-news-article__title",
	"h1",
}

var errNotObject = errors.New("structured data is not an object")

// Options tunes where the extractor looks. Zero values select the defaults.
type Options struct {
	ScriptType     string
	TitleSelectors []string
	BodySelector   string
}

// Extractor implements the two-tier extraction strategy.
type Extractor struct {
	scriptSelector string
	titleSelectors []string
	bodySelector   string
}

var _ ports.Extractor = (*Extractor)(nil)

// New builds an extractor, filling unset options with defaults.
func New(opts Options) *Extractor {
	scriptType := strings.TrimSpace(opts.ScriptType)
	if scriptType == "" {
		scriptType = DefaultScriptType
	}

	titles := make([]string, 0, len(opts.TitleSelectors))
	for _, sel := range opts.TitleSelectors {
		if sel = strings.TrimSpace(sel); sel != "" {
			titles = append(titles, sel)
		}
	}
	if len(titles) == 0 {
		titles = append(titles, DefaultTitleSelectors...)
	}

	body := strings.TrimSpace(opts.BodySelector)
	if body == "" {
		body = DefaultBodySelector
	}

	return &Extractor{
		scriptSelector: fmt.Sprintf("script[type=%q]", scriptType),
		titleSelectors: titles,
		bodySelector:   body,
	}
}

// Extract runs the default extractor over document.
func Extract(document string) domain.ExtractionResult {
	return New(Options{}).Extract(document)
}

// Extract returns the title and newline-joined paragraphs of document.
func (e *Extractor) Extract(document string) domain.ExtractionResult {
	if document == "" {
		return domain.ExtractionResult{Title: emptyDocumentTitle, Content: emptyDocumentContent}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return domain.ExtractionResult{Title: noTitle, Content: noContent}
	}

	// Title and lines carry over between tiers: a structured title survives
	// when no heading matches, and partial structured text is kept.
	var st state
	if e.fromStructuredData(doc, &st) {
		return domain.ExtractionResult{
			Title:   strings.TrimSpace(st.title),
			Content: strings.Join(st.lines, "\n"),
		}
	}

	e.fromTags(doc, &st)
	return st.result()
}

type state struct {
	title string
	lines []string
}

func (s *state) complete() bool {
	return strings.TrimSpace(s.title) != "" && len(s.lines) > 0
}

func (s *state) result() domain.ExtractionResult {
	title := strings.TrimSpace(s.title)
	if title == "" {
		title = noTitle
	}
	if len(s.lines) == 0 {
		return domain.ExtractionResult{Title: title, Content: noContent}
	}
	return domain.ExtractionResult{Title: title, Content: strings.Join(s.lines, "\n")}
}

// fromStructuredData reports true once a story yields both title and text.
func (e *Extractor) fromStructuredData(doc *goquery.Document, st *state) bool {
	done := false
	doc.Find(e.scriptSelector).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		done = st.scanBlock(script.Text())
		return !done
	})
	return done
}

func (s *state) scanBlock(raw string) bool {
	if !json.Valid([]byte(raw)) {
		return false
	}

	entries, err := topLevelValues(raw)
	if err != nil {
		return false
	}

	for _, value := range entries {
		var holder map[string]json.RawMessage
		if err := json.Unmarshal(value, &holder); err != nil {
			continue
		}
		story, ok := holder["story"]
		if !ok {
			continue
		}
		if s.applyStory(story) {
			return true
		}
	}
	return false
}

// topLevelValues returns the values of a JSON object in document order.
func topLevelValues(raw string) ([]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}

	var values []json.RawMessage
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// applyStory folds one story object into the state. It only reports success
// for a story that carries a description tree.
func (s *state) applyStory(raw json.RawMessage) bool {
	var story map[string]json.RawMessage
	if err := json.Unmarshal(raw, &story); err != nil {
		return false
	}

	if rawTitle, ok := story["title"]; ok {
		var title string
		if err := json.Unmarshal(rawTitle, &title); err == nil {
			s.title = title
		}
	}

	children, ok := descriptionChildren(story["astDescription"])
	if !ok {
		return false
	}
	for _, child := range children {
		if line := paragraphText(child); line != "" {
			s.lines = append(s.lines, line)
		}
	}

	return s.complete()
}

func descriptionChildren(raw json.RawMessage) ([]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var tree map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, false
	}
	rawChildren, ok := tree["children"]
	if !ok {
		return nil, false
	}
	var children []json.RawMessage
	if err := json.Unmarshal(rawChildren, &children); err != nil {
		return nil, false
	}
	return children, true
}

// paragraphText concatenates the string children of a paragraph node.
func paragraphText(raw json.RawMessage) string {
	var node struct {
		Type     string            `json:"type"`
		Children []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(raw, &node); err != nil || node.Type != paragraphNode {
		return ""
	}

	var b strings.Builder
	for _, child := range node.Children {
		var text string
		if err := json.Unmarshal(child, &text); err == nil {
			b.WriteString(text)
		}
	}
	return b.String()
}

func (e *Extractor) fromTags(doc *goquery.Document, st *state) {
	for _, sel := range e.titleSelectors {
		if heading := doc.Find(sel).First(); heading.Length() > 0 {
			st.title = strings.TrimSpace(heading.Text())
			break
		}
	}

	doc.Find(e.bodySelector).First().Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			st.lines = append(st.lines, text)
		}
	})
}
