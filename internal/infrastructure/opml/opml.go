// Package opml flattens OPML subscription lists into feed URLs.
package opml

import (
	"fmt"
	"os"
	"strings"

	goopml "github.com/gilliek/go-opml/opml"
)

// Load reads the OPML file at path and returns its feed URLs in document order.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse returns the feed URLs declared in an OPML document.
// Every outline carrying an xmlUrl contributes one entry, at any depth.
// Duplicates are kept.
func Parse(data []byte) ([]string, error) {
	doc, err := goopml.NewOPML(data)
	if err != nil {
		return nil, fmt.Errorf("parse opml: %w", err)
	}
	return flatten(doc.Body.Outlines, nil), nil
}

func flatten(outlines []goopml.Outline, feeds []string) []string {
	for _, outline := range outlines {
		if url := strings.TrimSpace(outline.XMLURL); url != "" {
			feeds = append(feeds, url)
		}
		if len(outline.Outlines) > 0 {
			feeds = flatten(outline.Outlines, feeds)
		}
	}
	return feeds
}

// Loader implements usecase.FeedListLoader.
type Loader struct{}

// Load reads feed URLs from the OPML file at path.
func (Loader) Load(path string) ([]string, error) {
	return Load(path)
}
