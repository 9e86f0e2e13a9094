package recovery

import (
	"context"
	"log"
	"strings"
)

// clipboardStrategy waits for the response to finish rendering, triggers the
// UI's copy action, and reads the copy back from the clipboard. The copy is
// usually cleaner than the rendered DOM text. Falls back from the in-session
// clipboard API to the host clipboard when the page denies access.
type clipboardStrategy struct {
	engine *Engine
}

func (s *clipboardStrategy) Method() Method { return MethodClipboard }

func (s *clipboardStrategy) Capture(ctx context.Context, sess Session) (RawCapture, error) {
	// The copy action snapshots whatever is rendered right now, so the
	// response must be stable before clicking.
	stab := newStabilizer(s.engine.cfg.PollInterval, s.engine.cfg.StabilizeHold)
	if _, err := stab.Wait(ctx, func(ctx context.Context) (string, error) {
		t, err := sess.LatestResponseText(ctx)
		if err != nil {
			return "", err
		}
		t = strings.TrimSpace(t)
		if echoesPrompt(t, sess.Prompt()) || len(t) < s.engine.cfg.MinAcceptChars {
			return "", nil
		}
		return t, nil
	}); err != nil {
		return RawCapture{}, err
	}

	if err := sess.TriggerCopy(ctx); err != nil {
		return RawCapture{}, &ValidationError{Method: MethodClipboard, Reason: "copy action failed: " + err.Error()}
	}

	text, err := sess.ReadClipboard(ctx)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			log.Printf("in-session clipboard read failed: %v, trying host clipboard", err)
		}
		text, err = sess.ReadHostClipboard()
		if err != nil {
			return RawCapture{}, &ValidationError{Method: MethodClipboard, Reason: "clipboard unreadable: " + err.Error()}
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return RawCapture{}, &ValidationError{Method: MethodClipboard, Reason: "clipboard empty after copy"}
	}
	// Guard against having copied the wrong element: the query's own copy
	// button sits right next to the response's.
	if echoesPrompt(text, sess.Prompt()) {
		return RawCapture{}, &ValidationError{Method: MethodClipboard, Reason: "clipboard contains the query, not the response"}
	}
	if len(text) < s.engine.cfg.MinAcceptChars {
		return RawCapture{}, &ValidationError{Method: MethodClipboard, Reason: "clipboard content below minimum length"}
	}
	return NewRawCapture(text, MethodClipboard), nil
}
