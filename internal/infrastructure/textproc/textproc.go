// Package textproc turns feed entry markup into plain text and word tokens.
package textproc

import (
	"html"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	minTokenLen = 2
	maxTokenLen = 15
)

var (
	stripPolicyOnce sync.Once
	stripPolicy     *bluemonday.Policy

	// Letters and underscores; digits always split a word.
	wordPattern = regexp.MustCompile(`[\p{L}\p{M}_]+`)

	newlines = strings.NewReplacer("\r\n", "", "\n", "", "\r", "")

	// Decoded entities must not turn back into markup on a later pass.
	markup = strings.NewReplacer("<", " ", ">", " ", "&", " ")
)

func policy() *bluemonday.Policy {
	stripPolicyOnce.Do(func() {
		p := bluemonday.StrictPolicy()
		p.AddSpaceWhenStrippingTag(true)
		stripPolicy = p
	})
	return stripPolicy
}

// StripHTML removes every tag from s, decodes entities and drops line breaks.
// Script and style bodies are discarded with their tags. Any '<', '>' or '&'
// left after decoding becomes a space, so StripHTML(StripHTML(s)) equals
// StripHTML(s).
func StripHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	text := html.UnescapeString(policy().Sanitize(s))
	text = markup.Replace(newlines.Replace(text))
	return strings.TrimSpace(text)
}

// Tokenize strips markup from s and splits the remaining text into
// lowercase alphabetic words of 2 to 15 characters.
func Tokenize(s string) []string {
	text := strings.ToLower(StripHTML(s))
	if text == "" {
		return nil
	}
	matches := wordPattern.FindAllString(text, -1)
	tokens := make([]string, 0, len(matches))
	for _, word := range matches {
		if strings.HasPrefix(word, "_") {
			continue
		}
		n := utf8.RuneCountInString(word)
		if n < minTokenLen || n > maxTokenLen {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// SingleLine collapses whitespace into single spaces.
func SingleLine(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}
