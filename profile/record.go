// Package profile defines the structured company profile record and its
// normalization rules.
package profile

import "strings"

// The five canonical section names every profile is organized around.
const (
	SectionWhat  = "What"  // identity: sector, industry, description
	SectionWhen  = "When"  // timeline: founding, IPO, milestones
	SectionWhere = "Where" // location: headquarters, footprint
	SectionHow   = "How"   // operations: business model, revenue
	SectionWho   = "Who"   // people: CEO, founders, shareholders
)

// SectionSources carries cited URLs and references when the response includes
// them. It rides along with the record but never counts toward acceptance.
const SectionSources = "Sources"

// Sections lists the canonical names in display order.
var Sections = []string{SectionWhat, SectionWhen, SectionWhere, SectionHow, SectionWho}

// aliases maps lowercased observed key variants to canonical section names.
// Responses occasionally label sections by topic instead of by question word.
var aliases = map[string]string{
	"what":       SectionWhat,
	"identity":   SectionWhat,
	"company":    SectionWhat,
	"when":       SectionWhen,
	"timeline":   SectionWhen,
	"history":    SectionWhen,
	"where":      SectionWhere,
	"location":   SectionWhere,
	"locations":  SectionWhere,
	"how":        SectionHow,
	"operations": SectionHow,
	"business":   SectionHow,
	"who":        SectionWho,
	"people":     SectionWho,
	"leadership": SectionWho,
	"sources":    SectionSources,
	"references": SectionSources,
}

// Record maps canonical section names to their attribute maps. Only non-empty
// sections are kept, so len(record) minus the optional Sources entry is the
// number of sections that carry content.
type Record map[string]map[string]any

// CanonicalSection resolves an observed top-level key to its canonical
// section name. Matching is case-insensitive. Returns "" for unknown keys.
func CanonicalSection(key string) string {
	return aliases[strings.ToLower(strings.TrimSpace(key))]
}

// Normalize builds a Record from a parsed top-level JSON object. Observed key
// variants are folded onto the canonical names, unknown keys are dropped, and
// empty sections are omitted. Section values that are plain strings are
// wrapped as a Description attribute so callers always see a mapping.
func Normalize(raw map[string]any) Record {
	rec := make(Record)
	for key, val := range raw {
		name := CanonicalSection(key)
		if name == "" {
			continue
		}
		section := asSection(val)
		if len(section) == 0 {
			continue
		}
		if existing, ok := rec[name]; ok {
			// Two variants mapped onto the same section; merge without
			// overwriting what arrived first.
			for k, v := range section {
				if _, dup := existing[k]; !dup {
					existing[k] = v
				}
			}
			continue
		}
		rec[name] = section
	}
	return rec
}

// SectionCount reports how many canonical content sections are present and
// non-empty. Sources is excluded.
func (r Record) SectionCount() int {
	n := 0
	for _, name := range Sections {
		if len(r[name]) > 0 {
			n++
		}
	}
	return n
}

// KeyCount reports how many of the five canonical sections appear as keys in
// a raw top-level object, regardless of content. Used to score candidate
// spans before normalization.
func KeyCount(raw map[string]any) int {
	n := 0
	for key := range raw {
		if name := CanonicalSection(key); name != "" && name != SectionSources {
			n++
		}
	}
	return n
}

// asSection coerces a section value into an attribute map. Strings become a
// Description attribute; empty values collapse to nil.
func asSection(val any) map[string]any {
	switch v := val.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			if s, ok := inner.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			out[k] = inner
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return map[string]any{"Description": v}
	case []any:
		if len(v) == 0 {
			return nil
		}
		return map[string]any{"Items": v}
	default:
		return nil
	}
}
