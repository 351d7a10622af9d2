package corpus

import (
	"testing"
	"time"
)

func TestDocument_PublishedOn(t *testing.T) {
	day := Date{Year: 2026, Month: time.February, Day: 14}

	tests := []struct {
		name string
		doc  Document
		want bool
	}{
		{name: "no date", doc: Document{ID: "a"}, want: false},
		{name: "same day", doc: Document{ID: "b", Published: &Date{Year: 2026, Month: time.February, Day: 14}}, want: true},
		{name: "other day", doc: Document{ID: "c", Published: &Date{Year: 2026, Month: time.February, Day: 13}}, want: false},
		{name: "other year", doc: Document{ID: "d", Published: &Date{Year: 2025, Month: time.February, Day: 14}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.PublishedOn(day); got != tt.want {
				t.Fatalf("PublishedOn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDocument_UndatedNeverMatches(t *testing.T) {
	doc := Document{ID: "x"}
	for _, day := range []Date{{}, {Year: 1970, Month: time.January, Day: 1}, {Year: 2026, Month: time.December, Day: 31}} {
		if doc.PublishedOn(day) {
			t.Fatalf("undated document matched %v", day)
		}
	}
}

func TestDateOf_UsesUTC(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	got := DateOf(time.Date(2026, 2, 15, 3, 0, 0, 0, loc))
	want := Date{Year: 2026, Month: time.February, Day: 14}
	if got != want {
		t.Fatalf("DateOf() = %v, want %v", got, want)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-02-14")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if got.String() != "2026-02-14" {
		t.Fatalf("String() = %q", got.String())
	}

	if _, err := ParseDate("14/02/2026"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
