package post

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "  Hello World  ", "hello world"},
		{"tags", "<p>Vesti <strong>dana</strong></p>", "vesti dana"},
		{"entities", "Rock &amp; Roll&nbsp;noć", "rock & roll noc"},
		{"diacritics", "Čačak i Šabac", "cacak i sabac"},
		{"cyrillic case", "БЕОГРАД", "београд"},
		{"whitespace", "a\n\t b", "a b"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	if got := PlainText("<p>Kratak &quot;opis&quot;</p>\n"); got != `Kratak "opis"` {
		t.Errorf("Expected markup to be stripped, got %q", got)
	}
	if got := PlainText("  no markup "); got != "no markup" {
		t.Errorf("Expected trimmed text, got %q", got)
	}
}

func TestMatchesTitle(t *testing.T) {
	p := Post{ID: 1, Title: "Novi most u <em>Čačku</em>"}

	if !MatchesTitle(p, NormalizeText("cacku")) {
		t.Error("Expected folded query to match the title")
	}
	if MatchesTitle(p, NormalizeText("Beograd")) {
		t.Error("Expected unrelated query not to match")
	}
	if MatchesTitle(p, "") {
		t.Error("Expected empty query not to match")
	}
}
