package recovery

import (
	"context"
	"time"
)

// Method tags how a capture was obtained, so callers can weight trust:
// direct > clipboard > scrape.
type Method string

const (
	MethodDirect    Method = "direct"
	MethodClipboard Method = "clipboard"
	MethodScrape    Method = "scrape"
)

// Session is the interactive browsing session the engine drives. One session
// is owned exclusively for the duration of a Recover call; implementations
// live in the browser package. Every method scoped to "the response" means
// the latest response group only, never earlier conversational turns.
type Session interface {
	// LatestResponseText returns the rendered text of the most recent
	// response element.
	LatestResponseText(ctx context.Context) (string, error)

	// TriggerCopy activates the response's copy action.
	TriggerCopy(ctx context.Context) error

	// ReadClipboard reads the in-session clipboard. An empty string with a
	// nil error means the clipboard had nothing usable.
	ReadClipboard(ctx context.Context) (string, error)

	// ReadHostClipboard reads the host-level clipboard facility, the
	// fallback when the in-session API is denied.
	ReadHostClipboard() (string, error)

	// QuerySelectorAll returns the visible text of every node matching
	// the locator within the latest response group.
	QuerySelectorAll(ctx context.Context, locator string) ([]string, error)

	// DeepShadowText descends into encapsulated shadow sub-trees and
	// returns the text a shallow traversal would miss.
	DeepShadowText(ctx context.Context) (string, error)

	// Prompt returns the query that was submitted, used to reject
	// captures that merely echo it.
	Prompt() string
}

// RawCapture is the immutable product of a capture strategy: the text blob,
// how it was obtained, and when.
type RawCapture struct {
	Text       string
	Method     Method
	CapturedAt time.Time
}

// NewRawCapture stamps a capture with the current time.
func NewRawCapture(text string, method Method) RawCapture {
	return RawCapture{Text: text, Method: method, CapturedAt: time.Now()}
}
