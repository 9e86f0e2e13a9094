package recovery

import (
	"context"
	"log"
	"sort"
	"strings"

	"companyscrapper/selectors"
	"companyscrapper/textclean"
)

// scrapeStrategy is the last tier: sweep the latest response group with the
// full locator list, descend into shadow sub-trees, and clean the combined
// text until it stabilizes. Locators that worked for this target before are
// tried first via the selector memory.
type scrapeStrategy struct {
	engine *Engine
}

func (s *scrapeStrategy) Method() Method { return MethodScrape }

func (s *scrapeStrategy) Capture(ctx context.Context, sess Session) (RawCapture, error) {
	remembered := s.engine.memory.Lookup(s.engine.fingerprint)
	order := selectors.Order(remembered)

	working := map[string]struct{}{}

	stab := newStabilizer(s.engine.cfg.PollInterval, s.engine.cfg.StabilizeHold)
	text, err := stab.Wait(ctx, func(ctx context.Context) (string, error) {
		combined := s.sweep(ctx, sess, order, working)
		if len(combined) < s.engine.cfg.MinAcceptChars {
			return "", nil
		}
		return combined, nil
	})
	if err != nil {
		// The remembered locators may simply be stale for this target.
		if len(remembered) > 0 {
			s.engine.memory.Evict(s.engine.fingerprint)
		}
		return RawCapture{}, err
	}

	if echoesPrompt(text, sess.Prompt()) {
		return RawCapture{}, &ValidationError{Method: MethodScrape, Reason: "scraped text is the query, not the response"}
	}

	if len(working) > 0 {
		locs := make([]string, 0, len(working))
		for loc := range working {
			locs = append(locs, loc)
		}
		sort.Strings(locs)
		if err := s.engine.memory.Store(s.engine.fingerprint, locs); err != nil {
			log.Printf("selector memory save failed: %v", err)
		} else {
			log.Printf("saved %d working selectors for %s", len(locs), s.engine.fingerprint)
		}
	}
	return NewRawCapture(text, MethodScrape), nil
}

// sweep collects text from every locator plus the shadow sub-trees, cleans
// it, and records which locators produced substantial matches.
func (s *scrapeStrategy) sweep(ctx context.Context, sess Session, order []string, working map[string]struct{}) string {
	var chunks []string
	seen := map[string]struct{}{}

	for _, loc := range order {
		texts, err := sess.QuerySelectorAll(ctx, loc)
		if err != nil {
			continue
		}
		matched := false
		for _, t := range texts {
			t = strings.TrimSpace(t)
			if len(t) < 40 || textclean.LooksLikeScript(t) {
				continue
			}
			if echoesPrompt(t, sess.Prompt()) {
				continue
			}
			matched = true
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			chunks = append(chunks, t)
		}
		if matched {
			working[loc] = struct{}{}
		}
	}

	if shadow, err := sess.DeepShadowText(ctx); err == nil {
		shadow = strings.TrimSpace(shadow)
		if len(shadow) >= s.engine.cfg.MinAcceptChars && !textclean.LooksLikeScript(shadow) {
			if _, dup := seen[shadow]; !dup {
				chunks = append(chunks, shadow)
			}
		}
	}

	if len(chunks) == 0 {
		return ""
	}
	return textclean.Clean(strings.Join(chunks, "\n"))
}
