// Package profilejson locates and parses the JSON company profile embedded
// in recovered response text. The text may be clean JSON, fenced markdown,
// an escaped string literal wrapping JSON, or prose with one or more brace
// spans buried in it.
package profilejson

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"companyscrapper/profile"
)

// ParseError reports that no candidate met the acceptance threshold. It
// carries the best candidate found so callers can log what almost worked.
type ParseError struct {
	KeysFound int
	Threshold int
	Best      string
}

func (e *ParseError) Error() string {
	if e.Best == "" {
		return fmt.Sprintf("no JSON candidate found (need %d of %d sections)", e.Threshold, len(profile.Sections))
	}
	return fmt.Sprintf("best JSON candidate has %d of %d sections, need %d", e.KeysFound, len(profile.Sections), e.Threshold)
}

var fencedBlocks = []*regexp.Regexp{
	regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```"),
	regexp.MustCompile("(?s)```\\s*(\\{.*?\\})\\s*```"),
}

// Parse extracts the profile object from text. Stages run in order and the
// first one producing an object with at least minSections non-empty sections
// wins. A failed stage never aborts the pipeline; the next stage gets its
// chance. Never fabricates sections: if nothing meets the threshold the best
// candidate is reported inside a ParseError.
func Parse(text string, minSections int) (profile.Record, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &ParseError{Threshold: minSections}
	}

	// Stage 1: fenced code block tagged as JSON.
	for _, re := range fencedBlocks {
		if m := re.FindStringSubmatch(text); m != nil {
			if rec, ok := accept(decodeObject(m[1]), minSections); ok {
				return rec, nil
			}
		}
	}

	// Stage 2: the whole trimmed text is the object.
	if strings.HasPrefix(trimmed, "{") {
		if rec, ok := accept(decodeObject(trimmed), minSections); ok {
			return rec, nil
		}
	}

	// Stage 3: escaped wrapper, the payload is a JSON string literal whose
	// content is itself JSON.
	if strings.HasPrefix(trimmed, `"`) {
		if inner, ok := unwrapEscaped(trimmed); ok {
			if rec, ok := accept(decodeObject(inner), minSections); ok {
				return rec, nil
			}
		}
	}

	// Stage 4: brace-matching scan over the raw text.
	candidates := ScanCandidates(text)
	best := selectBest(candidates)

	// Stage 5: repair pass. The usual failure is a nested sub-object
	// outranking its own parent because the parent does not parse as-is.
	if best != nil && best.Keys < minSections {
		if enclosing := repairEnclosing(text, best); enclosing != nil && enclosing.Keys > best.Keys {
			best = enclosing
		}
	}

	if best != nil {
		if rec, ok := accept(best.parsed, minSections); ok {
			return rec, nil
		}
		return nil, &ParseError{KeysFound: best.Keys, Threshold: minSections, Best: best.Text}
	}
	return nil, &ParseError{Threshold: minSections}
}

// accept normalizes a parsed object and checks the section threshold.
func accept(raw map[string]any, minSections int) (profile.Record, bool) {
	if raw == nil {
		return nil, false
	}
	rec := profile.Normalize(raw)
	if rec.SectionCount() < minSections {
		return nil, false
	}
	return rec, true
}

// unwrapEscaped unescapes one level of JSON string literal and returns the
// inner text when it looks like an object.
func unwrapEscaped(s string) (string, bool) {
	var inner string
	if err := json.Unmarshal([]byte(s), &inner); err != nil {
		// The literal may have trailing prose after the closing quote.
		if last := strings.LastIndex(s, `"`); last > 0 {
			if err := json.Unmarshal([]byte(s[:last+1]), &inner); err != nil {
				return "", false
			}
		} else {
			return "", false
		}
	}
	inner = strings.TrimSpace(inner)
	return inner, strings.HasPrefix(inner, "{")
}
