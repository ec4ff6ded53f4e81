// Package content renders journal texts from CommonMark markdown to HTML.
package content

import (
	"strings"

	"gitlab.com/golang-commonmark/markdown"

	"github.com/helixir/journal-service/internal/domain"
)

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md *markdown.Markdown
}

// NewRenderer returns a renderer with raw HTML, linkify and typographic
// replacements enabled.
func NewRenderer() *Renderer {
	return &Renderer{
		md: markdown.New(
			markdown.HTML(true),
			markdown.Linkify(true),
			markdown.Typographer(true),
			markdown.MaxNesting(10),
		),
	}
}

// Page is a rendered text.
type Page struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// Render converts markdown source to HTML.
func (r *Renderer) Render(source string) string {
	return r.md.RenderToString([]byte(source))
}

// RenderText renders a stored text. A text without a title takes the
// content of its first heading.
func (r *Renderer) RenderText(t *domain.Text) Page {
	tokens := r.md.Parse([]byte(t.Text))

	title := t.Title
	if strings.TrimSpace(title) == "" {
		title = firstHeading(tokens)
	}

	return Page{Key: t.Key, Title: title, HTML: r.md.RenderTokensToString(tokens)}
}

func firstHeading(tokens []markdown.Token) string {
	for i, tok := range tokens {
		if _, ok := tok.(*markdown.HeadingOpen); !ok || i+1 >= len(tokens) {
			continue
		}
		if inline, ok := tokens[i+1].(*markdown.Inline); ok {
			return inline.Content
		}
	}
	return ""
}
