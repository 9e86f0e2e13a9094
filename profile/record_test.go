package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCanonicalKeys(t *testing.T) {
	raw := map[string]any{
		"What": map[string]any{"Sector": "Tech"},
		"When": map[string]any{"FoundedYear": "1998"},
		"Who":  map[string]any{"CEO": "Jane"},
	}
	rec := Normalize(raw)
	assert.Equal(t, 3, rec.SectionCount())
	assert.Equal(t, "Tech", rec[SectionWhat]["Sector"])
}

func TestNormalizeCaseInsensitiveVariants(t *testing.T) {
	raw := map[string]any{
		"identity":   map[string]any{"Sector": "Tech"},
		"TIMELINE":   map[string]any{"FoundedYear": "1998"},
		"Location":   map[string]any{"City": "Austin"},
		"operations": map[string]any{"BusinessModel": "SaaS"},
		"People":     map[string]any{"CEO": "Jane"},
	}
	rec := Normalize(raw)
	assert.Equal(t, 5, rec.SectionCount())
	assert.Equal(t, "Austin", rec[SectionWhere]["City"])
	assert.Equal(t, "SaaS", rec[SectionHow]["BusinessModel"])
}

func TestNormalizeDropsUnknownKeys(t *testing.T) {
	raw := map[string]any{
		"What":       map[string]any{"Sector": "Tech"},
		"Disclaimer": map[string]any{"Text": "not advice"},
		"raw_html":   "<div>...</div>",
	}
	rec := Normalize(raw)
	assert.Len(t, rec, 1)
	assert.Contains(t, rec, SectionWhat)
}

func TestNormalizeOmitsEmptySections(t *testing.T) {
	raw := map[string]any{
		"What":  map[string]any{"Sector": "Tech"},
		"Where": map[string]any{},
		"How":   "",
		"Who":   nil,
	}
	rec := Normalize(raw)
	assert.Equal(t, 1, rec.SectionCount())
	assert.NotContains(t, rec, SectionWhere)
	assert.NotContains(t, rec, SectionHow)
	assert.NotContains(t, rec, SectionWho)
}

func TestNormalizeWrapsScalarSections(t *testing.T) {
	raw := map[string]any{
		"What": "Designs and sells widgets.",
		"Who":  []any{"Jane Doe", "John Roe"},
	}
	rec := Normalize(raw)
	assert.Equal(t, "Designs and sells widgets.", rec[SectionWhat]["Description"])
	assert.Len(t, rec[SectionWho]["Items"], 2)
}

func TestNormalizeKeepsSourcesAside(t *testing.T) {
	raw := map[string]any{
		"What":    map[string]any{"Sector": "Tech"},
		"When":    map[string]any{"FoundedYear": "1998"},
		"Who":     map[string]any{"CEO": "Jane"},
		"Sources": map[string]any{"URLs": []any{"https://example.com"}},
	}
	rec := Normalize(raw)
	// Sources rides along but never counts toward acceptance.
	assert.Equal(t, 3, rec.SectionCount())
	assert.Contains(t, rec, SectionSources)
}

func TestKeyCount(t *testing.T) {
	raw := map[string]any{
		"what":    1,
		"WHEN":    2,
		"Where":   3,
		"Sources": 4,
		"junk":    5,
	}
	assert.Equal(t, 3, KeyCount(raw))
}
