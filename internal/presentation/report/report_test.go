package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/tesso57/rsscluster/internal/application/usecase"
	"github.com/tesso57/rsscluster/internal/domain/corpus"
)

var (
	_ usecase.ReportRenderer = Text{}
	_ usecase.ReportRenderer = HTML{}
)

func sampleGrouping() corpus.Grouping {
	return corpus.Grouping{
		Seed: corpus.Document{
			ID:      "https://a.example.com/1",
			Payload: corpus.Payload{Feed: "https://a.example.com/rss", Title: "Seed story"},
		},
		Related: []corpus.Similar{
			{ID: "https://b.example.com/2", Score: 0.9, Payload: corpus.Payload{Feed: "https://b.example.com/rss", Title: "Related one"}},
			{ID: "https://c.example.com/3?a=1&b=2", Score: 0.7, Payload: corpus.Payload{Feed: "https://c.example.com/rss", Title: "Tom & <Jerry>"}},
		},
	}
}

func TestTextGroup(t *testing.T) {
	var buf bytes.Buffer
	r := Text{}
	if err := r.Begin(&buf); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := r.Group(&buf, sampleGrouping()); err != nil {
		t.Fatalf("Group() error = %v", err)
	}
	if err := r.End(&buf); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	want := strings.Repeat("-", 79) + "\n" +
		"If you liked:\n" +
		"    Seed story\n" +
		"        URL: https://a.example.com/1\n" +
		"You may also like:\n" +
		"    Related one\n" +
		"        URL: https://b.example.com/2\n" +
		"    Tom & <Jerry>\n" +
		"        URL: https://c.example.com/3?a=1&b=2\n"
	if buf.String() != want {
		t.Fatalf("output mismatch\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestGroupWithoutRelatedWritesNothing(t *testing.T) {
	g := sampleGrouping()
	g.Related = nil

	var text, page bytes.Buffer
	if err := (Text{}).Group(&text, g); err != nil {
		t.Fatalf("Text.Group() error = %v", err)
	}
	if err := (HTML{}).Group(&page, g); err != nil {
		t.Fatalf("HTML.Group() error = %v", err)
	}
	if text.Len() != 0 || page.Len() != 0 {
		t.Fatalf("expected no output, got %q and %q", text.String(), page.String())
	}
}

func TestHTMLReport(t *testing.T) {
	var buf bytes.Buffer
	r := HTML{}
	if err := r.Begin(&buf); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := r.Group(&buf, sampleGrouping()); err != nil {
		t.Fatalf("Group() error = %v", err)
	}
	if err := r.End(&buf); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "<html>\n    <head>\n        <meta charset=\"utf-8\">\n    </head>\n<body>\n") {
		t.Fatalf("unexpected head: %q", out)
	}
	if !strings.HasSuffix(out, "</body>\n</html>\n") {
		t.Fatalf("unexpected foot: %q", out)
	}
	if strings.Contains(out, "<Jerry>") {
		t.Fatalf("title was not escaped: %s", out)
	}
	if !strings.Contains(out, "Tom &amp; &lt;Jerry&gt;") {
		t.Fatalf("escaped title missing: %s", out)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	seed := doc.Find("body > a")
	if seed.Length() != 1 {
		t.Fatalf("seed links = %d, want 1", seed.Length())
	}
	if href, _ := seed.Attr("href"); href != "https://a.example.com/1" {
		t.Fatalf("seed href = %q", href)
	}

	var hrefs, titles []string
	doc.Find("ul li a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		hrefs = append(hrefs, href)
		titles = append(titles, s.Text())
	})
	if strings.Join(hrefs, " ") != "https://b.example.com/2 https://c.example.com/3?a=1&b=2" {
		t.Fatalf("related hrefs = %v", hrefs)
	}
	if titles[1] != "Tom & <Jerry>" {
		t.Fatalf("related title = %q", titles[1])
	}
}

func TestHTMLEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	r := HTML{}
	_ = r.Begin(&buf)
	_ = r.End(&buf)
	if !strings.Contains(buf.String(), "<body>\n</body>") {
		t.Fatalf("empty report = %q", buf.String())
	}
}
