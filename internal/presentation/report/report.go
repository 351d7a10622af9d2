// Package report renders "if you liked / you may also like" groupings.
package report

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/tesso57/rsscluster/internal/domain/corpus"
)

const separator = "-------------------------------------------------------------------------------"

// Text writes groupings as an indented plain-text listing.
type Text struct{}

// Begin writes nothing; the text report has no header.
func (Text) Begin(io.Writer) error { return nil }

// Group writes one grouping. Groupings with no related documents are omitted.
func (Text) Group(w io.Writer, g corpus.Grouping) error {
	if len(g.Related) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(separator + "\n")
	b.WriteString("If you liked:\n")
	writeTextEntry(&b, g.Seed.Payload.Title, g.Seed.ID)
	b.WriteString("You may also like:\n")
	for _, r := range g.Related {
		writeTextEntry(&b, r.Payload.Title, r.ID)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextEntry(b *strings.Builder, title, url string) {
	fmt.Fprintf(b, "    %s\n", title)
	fmt.Fprintf(b, "        URL: %s\n", url)
}

// End writes nothing.
func (Text) End(io.Writer) error { return nil }

// HTML writes groupings as a standalone UTF-8 HTML page.
type HTML struct{}

const htmlHead = `<html>
    <head>
        <meta charset="utf-8">
    </head>
<body>
`

const htmlFoot = "</body>\n</html>\n"

// Begin writes the document head.
func (HTML) Begin(w io.Writer) error {
	_, err := io.WriteString(w, htmlHead)
	return err
}

// Group writes one grouping as a link followed by a list of related links.
// Groupings with no related documents are omitted.
func (HTML) Group(w io.Writer, g corpus.Grouping) error {
	if len(g.Related) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("<p>If you liked:</p>")
	writeLink(&b, g.Seed.ID, g.Seed.Payload.Title)
	b.WriteString("<p>You may also like:</p><ul>")
	for _, r := range g.Related {
		b.WriteString("<li>")
		writeLink(&b, r.ID, r.Payload.Title)
		b.WriteString("</li>")
	}
	b.WriteString("</ul>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeLink(b *strings.Builder, url, title string) {
	fmt.Fprintf(b, `<a href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(title))
}

// End closes the document.
func (HTML) End(w io.Writer) error {
	_, err := io.WriteString(w, htmlFoot)
	return err
}
