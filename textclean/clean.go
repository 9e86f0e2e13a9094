// Package textclean turns noisy scraped chat-UI text into prose the JSON
// localizer can work with. Structural over-matching means the same sentence
// tends to arrive several times, wrapped in markup and interleaved with
// injected script fragments.
package textclean

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// bannedPatterns flag lines that are script payloads or chat-UI boilerplate
// rather than response prose.
var bannedPatterns = []string{
	`^\s*\(function`, `use strict`, `\bconst\s`, `\blet\s`, `\bvar\s`, `\bclass\s`,
	`throw\s+Error`, `theme-host`, `google-sans`,
	`Sign in`, `Saving your chats`, `can make mistakes`,
	`Once you'?re signed in`, `iframe\s+src=`,
	`window\.`, `document\.`, `\.prototype\.`,
	`export\s+default`, `^\s*import\s`,
}

var bannedRegex = regexp.MustCompile("(?i)" + strings.Join(bannedPatterns, "|"))

var (
	markupHint = regexp.MustCompile(`<[a-zA-Z/!]`)
	multiSpace = regexp.MustCompile(`\s{2,}`)
	trailerRe  = regexp.MustCompile(`(?i)opens in a new window`)
)

// Clean runs the full pipeline: markup stripping, script-noise filtering,
// line-level and sentence-level deduplication.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = StripMarkup(text)

	seen := map[string]struct{}{}
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if LooksLikeScript(line) {
			continue
		}
		norm := normalizeUnit(line)
		// Very short lines are structural (braces, bullets); repeated
		// occurrences of those are legitimate, so never dedupe them.
		if len(norm) < 5 {
			kept = append(kept, line)
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		kept = append(kept, line)
	}

	out := strings.Join(kept, "\n")
	out = DedupeSentences(out)
	out = trailerRe.ReplaceAllString(out, "")
	out = multiSpace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// StripMarkup removes script/style payloads and tags while preserving inner
// text. Plain text without markup passes through untouched.
func StripMarkup(s string) string {
	if !markupHint.MatchString(s) {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style, noscript, iframe, link, meta").Remove()
	return doc.Text()
}

// LooksLikeScript reports whether a line reads like injected code or UI
// chrome instead of prose. Data lines (JSON fragments) are always kept: the
// punctuation-density heuristic would otherwise eat the payload we are
// trying to recover.
func LooksLikeScript(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	if isDataLine(trimmed) {
		return false
	}
	if bannedRegex.MatchString(trimmed) {
		return true
	}
	punct := 0
	for _, ch := range trimmed {
		switch ch {
		case '{', '}', '(', ')', ';', '[', ']', '=', '<', '>':
			punct++
		}
	}
	limit := len(trimmed) / 30
	if limit < 12 {
		limit = 12
	}
	return punct > limit
}

// isDataLine recognizes JSON-shaped lines so the noise filter leaves them
// alone.
func isDataLine(trimmed string) bool {
	switch trimmed[0] {
	case '{', '}', '[', ']', '"':
		return true
	}
	return strings.Contains(trimmed, `":`) || strings.HasPrefix(trimmed, "```")
}

// DedupeSentences splits text into sentence-like units and drops any unit
// already seen, case-insensitively, preserving first-seen order.
func DedupeSentences(text string) string {
	if text == "" {
		return text
	}
	units := splitSentences(text)
	seen := map[string]struct{}{}
	var out []string
	for _, u := range units {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		norm := normalizeUnit(u)
		if len(norm) < 5 {
			out = append(out, u)
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, u)
	}
	joined := strings.Join(out, " ")
	joined = regexp.MustCompile(`\s+([,.;:!?])`).ReplaceAllString(joined, "$1")
	return strings.TrimSpace(joined)
}

// splitSentences cuts text after sentence terminators followed by space, and
// at newlines. No lookbehind in Go regexp, so this is a manual scan.
func splitSentences(text string) []string {
	var units []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if ch == '\n' {
			units = append(units, string(runes[start:i]))
			start = i + 1
			continue
		}
		if (ch == '.' || ch == '?' || ch == '!' || ch == ';') && i+1 < len(runes) && runes[i+1] == ' ' {
			units = append(units, string(runes[start:i+1]))
			start = i + 1
		}
	}
	if start < len(runes) {
		units = append(units, string(runes[start:]))
	}
	return units
}

// normalizeUnit canonicalizes a unit for duplicate detection: lowercase,
// collapsed whitespace, stripped quotes and bullets, commas removed.
func normalizeUnit(s string) string {
	s = strings.TrimSpace(s)
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.Trim(s, "\"'`“”•–- ")
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, ",", "")
}
