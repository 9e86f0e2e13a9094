package profilejson

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"golang.org/x/exp/slices"

	"companyscrapper/profile"
)

// Candidate is a text span believed to delimit a JSON object, with its
// offsets in the source text and the score components used for selection.
type Candidate struct {
	Start int
	End   int // exclusive
	Text  string

	// Keys is how many canonical section names appear at the object's top
	// level. Only set when the span parses.
	Keys   int
	parsed map[string]any
}

// maxCandidates caps the scan so pathological inputs with hundreds of brace
// spans stay cheap.
const maxCandidates = 64

// ScanCandidates walks text and emits every balanced brace span, starting at
// each '{' that is not inside a string literal. Brace counting respects
// string boundaries and escape characters, so braces inside JSON strings do
// not unbalance the span. Unbalanced spans are discarded. Spans that parse
// carry their decoded object and section-key count.
func ScanCandidates(text string) []Candidate {
	var out []Candidate
	for i := 0; i < len(text) && len(out) < maxCandidates; i++ {
		if text[i] != '{' {
			continue
		}
		end, ok := matchBrace(text, i)
		if !ok {
			continue
		}
		span := text[i:end]
		cand := Candidate{Start: i, End: end, Text: span}
		if obj := decodeObject(span); obj != nil {
			cand.parsed = obj
			cand.Keys = profile.KeyCount(obj)
		}
		out = append(out, cand)
	}
	return out
}

// matchBrace walks forward from the '{' at start and returns the exclusive
// offset one past its matching '}'. Braces inside string literals are
// skipped; backslash escapes inside strings are honored.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// selectBest ranks parseable candidates by section-key count, then by span
// length as the tie-break (a truncated candidate is likely incomplete, so
// longer wins). Returns nil when nothing parses.
func selectBest(candidates []Candidate) *Candidate {
	parseable := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.parsed != nil {
			parseable = append(parseable, c)
		}
	}
	if len(parseable) == 0 {
		return nil
	}
	slices.SortStableFunc(parseable, func(a, b Candidate) int {
		if a.Keys != b.Keys {
			return b.Keys - a.Keys
		}
		return (b.End - b.Start) - (a.End - a.Start)
	})
	best := parseable[0]
	return &best
}

// repairEnclosing looks for a larger brace span containing best that might
// carry the missing sections. The observed failure mode is a truncated
// parent object: its closing braces never arrived, so the balanced scan only
// saw a nested sub-object. For each '{' before best, the span running to the
// end of the enclosing brace region is handed to jsonrepair, which closes
// unterminated structures; if the result scores higher it substitutes.
func repairEnclosing(text string, best *Candidate) *Candidate {
	end := len(text)
	if last := strings.LastIndexByte(text, '}'); last >= best.End-1 {
		end = last + 1
	}
	var found *Candidate
	for i := 0; i < best.Start; i++ {
		if text[i] != '{' {
			continue
		}
		if matched, ok := matchBrace(text, i); ok {
			// Balanced spans were already scanned; skip to avoid rework.
			i = matched - 1
			continue
		}
		obj := decodeObject(text[i:end])
		if obj == nil {
			continue
		}
		cand := &Candidate{Start: i, End: end, Text: text[i:end], Keys: profile.KeyCount(obj), parsed: obj}
		if found == nil || cand.Keys > found.Keys {
			found = cand
		}
	}
	return found
}

// decodeObject decodes a span into an object: strict decode first, one
// repair retry, object results only.
func decodeObject(span string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(span), &obj); err == nil {
		return obj
	}
	repaired, err := jsonrepair.JSONRepair(span)
	if err != nil {
		return nil
	}
	obj = nil
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		return nil
	}
	// The repair must not have invented a different shape.
	if !strings.HasPrefix(strings.TrimSpace(repaired), "{") {
		return nil
	}
	return obj
}
