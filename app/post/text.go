package post

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText turns rendered HTML into comparable plain text: tags are
// stripped, entities decoded, case and diacritics folded, whitespace collapsed.
func NormalizeText(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}

	text := value
	if strings.ContainsAny(value, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
		if err == nil {
			text = doc.Text()
		}
	}

	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(folder, text); err == nil {
		text = folded
	}

	text = cases.Lower(language.Und).String(text)
	return strings.Join(strings.Fields(text), " ")
}

// PlainText strips markup from rendered HTML without folding case.
func PlainText(value string) string {
	if !strings.ContainsAny(value, "<&") {
		return strings.TrimSpace(value)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// MatchesTitle reports whether the normalized query is a substring of the
// normalized title.
func MatchesTitle(p Post, normalizedQuery string) bool {
	if normalizedQuery == "" {
		return false
	}
	return strings.Contains(NormalizeText(p.Title), normalizedQuery)
}
