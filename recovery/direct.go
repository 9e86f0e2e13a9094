package recovery

import (
	"context"
	"strings"

	"companyscrapper/profile"
)

// directStrategy reads the latest response element's rendered text and
// accepts it when it is already clean JSON: starts with an opening brace and
// names at least one expected section. The cheapest path when the UI renders
// the payload verbatim.
type directStrategy struct {
	engine *Engine
}

func (s *directStrategy) Method() Method { return MethodDirect }

func (s *directStrategy) Capture(ctx context.Context, sess Session) (RawCapture, error) {
	stab := newStabilizer(s.engine.cfg.PollInterval, s.engine.cfg.StabilizeHold)
	text, err := stab.Wait(ctx, func(ctx context.Context) (string, error) {
		t, err := sess.LatestResponseText(ctx)
		if err != nil {
			return "", err
		}
		t = strings.TrimSpace(t)
		// Don't start the stability clock on an echo of the query.
		if echoesPrompt(t, sess.Prompt()) {
			return "", nil
		}
		return t, nil
	})
	if err != nil {
		return RawCapture{}, err
	}

	if !strings.HasPrefix(text, "{") {
		return RawCapture{}, &ValidationError{Method: MethodDirect, Reason: "not yet JSON: missing opening brace"}
	}
	if len(text) < s.engine.cfg.MinAcceptChars {
		return RawCapture{}, &ValidationError{Method: MethodDirect, Reason: "response below minimum length"}
	}
	if !containsSectionKey(text) {
		return RawCapture{}, &ValidationError{Method: MethodDirect, Reason: "no expected section key present"}
	}
	return NewRawCapture(text, MethodDirect), nil
}

// containsSectionKey looks for any of the five section names used as a JSON
// key, a cheap structural sniff before real parsing.
func containsSectionKey(text string) bool {
	lower := strings.ToLower(text)
	for _, name := range profile.Sections {
		if strings.Contains(lower, `"`+strings.ToLower(name)+`"`) {
			return true
		}
	}
	return false
}
