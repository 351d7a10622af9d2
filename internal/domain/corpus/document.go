// Package corpus defines the document model shared by the fetcher,
// the similarity backend and the report renderer.
package corpus

import (
	"fmt"
	"time"
)

// DateLayout is the textual form of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day compared by exact equality.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the UTC calendar day of t.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: m, Day: d}
}

// LocalDateOf returns the calendar day of t in its own location.
func LocalDateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return LocalDateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Payload is the metadata carried alongside a document through the backend.
type Payload struct {
	Feed  string `json:"feed"`
	Title string `json:"title"`
}

// Document is one feed entry reduced to its tokens.
type Document struct {
	ID        string
	Tokens    []string
	Payload   Payload
	Published *Date
}

// PublishedOn reports whether the document was published on day.
// Documents without a publication date never match.
func (d Document) PublishedOn(day Date) bool {
	return d.Published != nil && *d.Published == day
}

// Similar is one neighbour returned by a similarity backend.
type Similar struct {
	ID      string
	Score   float64
	Payload Payload
}

// Grouping is a seed document together with the documents related to it.
type Grouping struct {
	Seed    Document
	Related []Similar
}
