package processor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/aayush997726/kisan"
)

// TranslatableAttrs are attributes whose values are shown to the user.
var TranslatableAttrs = []string{"placeholder", "title", "alt", "aria-label"}

// HTMLProcessor extracts and applies translations to HTML content.
type HTMLProcessor struct {
	ignoredTags map[string]bool
	attrs       []string
}

// NewHTMLProcessor creates a new HTML processor with default ignored tags.
func NewHTMLProcessor() *HTMLProcessor {
	return &HTMLProcessor{
		ignoredTags: kisan.IgnoredTags,
		attrs:       TranslatableAttrs,
	}
}

// NewHTMLProcessorWithIgnoredTags creates a new HTML processor with custom ignored tags.
func NewHTMLProcessorWithIgnoredTags(tags []string) *HTMLProcessor {
	ignored := make(map[string]bool, len(tags))
	for _, tag := range tags {
		ignored[strings.ToLower(tag)] = true
	}
	return &HTMLProcessor{
		ignoredTags: ignored,
		attrs:       TranslatableAttrs,
	}
}

// ContentType returns "html".
func (p *HTMLProcessor) ContentType() string {
	return "html"
}

// Extract parses HTML and returns one node per distinct trimmed text.
func (p *HTMLProcessor) Extract(content string) (interface{}, []TextNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, nil, &kisan.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: "html",
		}
	}

	var nodes []TextNode
	seen := make(map[string]bool)
	add := func(text, nodeType, context string, meta map[string]string) {
		if seen[text] {
			return
		}
		seen[text] = true
		nodes = append(nodes, TextNode{
			ID:       fmt.Sprintf("node-%d", len(nodes)),
			Text:     text,
			NodeType: nodeType,
			Context:  context,
			Metadata: meta,
		})
	}

	p.walk(doc, func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				meta := map[string]string{}
				if n.Parent != nil {
					meta["parent_tag"] = n.Parent.Data
				}
				add(trimmed, "html_text", buildContext(n), meta)
			}
		case html.ElementNode:
			for _, attr := range n.Attr {
				if !p.translatableAttr(attr.Key) {
					continue
				}
				if trimmed := strings.TrimSpace(attr.Val); trimmed != "" {
					add(trimmed, "html_attr", fmt.Sprintf("%s of <%s>", attr.Key, n.Data), map[string]string{"attr": attr.Key})
				}
			}
		}
	})

	return doc, nodes, nil
}

// Apply writes translations, keyed by source text, back into the document.
func (p *HTMLProcessor) Apply(parsed interface{}, nodes []TextNode, translations map[string]string) (string, error) {
	doc, ok := parsed.(*goquery.Document)
	if !ok {
		return "", &kisan.ProcessorError{
			Message:     "invalid parsed content type",
			ContentType: "html",
		}
	}

	p.walk(doc, func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if translated, ok := translations[strings.TrimSpace(n.Data)]; ok {
				n.Data = preserveWhitespace(n.Data, translated)
			}
		case html.ElementNode:
			for i, attr := range n.Attr {
				if !p.translatableAttr(attr.Key) {
					continue
				}
				if translated, ok := translations[strings.TrimSpace(attr.Val)]; ok {
					n.Attr[i].Val = translated
				}
			}
		}
	})

	out, err := doc.Html()
	if err != nil {
		return "", &kisan.ProcessorError{
			Message:     "failed to serialize HTML",
			Cause:       err,
			ContentType: "html",
		}
	}
	return out, nil
}

// walk visits every node outside ignored tags and data-no-translate subtrees.
func (p *HTMLProcessor) walk(doc *goquery.Document, visit func(*html.Node)) {
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.ElementNode && p.skipElement(n) {
			return
		}
		visit(n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	for _, n := range doc.Nodes {
		rec(n)
	}
}

func (p *HTMLProcessor) skipElement(n *html.Node) bool {
	if p.ignoredTags[strings.ToLower(n.Data)] {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == "data-no-translate" {
			return true
		}
	}
	return false
}

func (p *HTMLProcessor) translatableAttr(key string) bool {
	for _, a := range p.attrs {
		if a == key {
			return true
		}
	}
	return false
}

// buildContext describes where a text node sits, e.g.
// `in <span class="price"> | inside: main > section`.
func buildContext(n *html.Node) string {
	parent := n.Parent
	if parent == nil {
		return ""
	}

	var parts []string
	var classAttr, idAttr string
	for _, attr := range parent.Attr {
		switch attr.Key {
		case "class":
			classAttr = attr.Val
		case "id":
			idAttr = attr.Val
		}
	}
	switch {
	case classAttr != "":
		parts = append(parts, fmt.Sprintf("in <%s class=%q>", parent.Data, classAttr))
	case idAttr != "":
		parts = append(parts, fmt.Sprintf("in <%s id=%q>", parent.Data, idAttr))
	default:
		parts = append(parts, fmt.Sprintf("in <%s>", parent.Data))
	}

	var ancestors []string
	for a, i := parent.Parent, 0; a != nil && i < 3; a, i = a.Parent, i+1 {
		if a.Type == html.ElementNode && a.Data != "html" && a.Data != "body" {
			ancestors = append([]string{a.Data}, ancestors...)
		}
	}
	if len(ancestors) > 0 {
		parts = append(parts, "inside: "+strings.Join(ancestors, " > "))
	}

	return strings.Join(parts, " | ")
}

// preserveWhitespace keeps the original leading and trailing whitespace.
func preserveWhitespace(original, translated string) string {
	leading := original[:len(original)-len(strings.TrimLeft(original, " \t\n\r"))]
	trailing := original[len(strings.TrimRight(original, " \t\n\r")):]
	return leading + translated + trailing
}

// Verify HTMLProcessor implements ContentProcessor
var _ ContentProcessor = (*HTMLProcessor)(nil)
