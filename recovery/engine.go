// Package recovery turns an unreliable chat-UI response into a validated
// structured company profile, or a definitive failure. Three capture
// strategies run in fixed priority order, each bounded by its own timeout;
// whichever produces acceptable text feeds the shared parse and
// normalization stage.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"companyscrapper/config"
	"companyscrapper/profile"
	"companyscrapper/profilejson"
	"companyscrapper/selectors"
)

// state is the dispatcher's position in the strategy sequence.
type state int

const (
	stateIdle state = iota
	stateTryingDirect
	stateTryingClipboard
	stateTryingScrape
	stateSucceeded
	stateFailed
)

// strategy is one capture tier. Capture blocks until it has stable text,
// fails over with a ValidationError or ErrStabilizationTimeout, and never
// returns partial text.
type strategy interface {
	Method() Method
	Capture(ctx context.Context, sess Session) (RawCapture, error)
}

// Engine is the response recovery engine. One Engine serves one target
// fingerprint; independent targets get independent engines, sharing only the
// read-mostly selector memory.
type Engine struct {
	cfg         config.Config
	memory      *selectors.Memory
	fingerprint string
}

// New builds an engine for a target fingerprint. The memory may be shared
// across engines; pass selectors.OpenMemory("") to run without persistence.
func New(cfg config.Config, memory *selectors.Memory, fingerprint string) *Engine {
	if memory == nil {
		memory = selectors.OpenMemory("")
	}
	return &Engine{cfg: cfg, memory: memory, fingerprint: fingerprint}
}

// Result is a recovered record plus the capture provenance callers use to
// weight trust in it.
type Result struct {
	Record     profile.Record
	Method     Method
	CapturedAt time.Time
}

// Recover drives the session through the strategy sequence until one yields
// a record meeting the section threshold. The session is used exclusively
// for the duration of the call. On cancellation the error wraps ctx.Err();
// if cancellation interrupted a strategy mid-interaction the error also
// matches ErrSessionDiscard and the session must not be reused.
func (e *Engine) Recover(ctx context.Context, sess Session) (*Result, error) {
	strategies := []struct {
		s       strategy
		timeout time.Duration
		next    state
	}{
		{&directStrategy{engine: e}, e.cfg.DirectTimeout, stateTryingClipboard},
		{&clipboardStrategy{engine: e}, e.cfg.ClipboardTimeout, stateTryingScrape},
		{&scrapeStrategy{engine: e}, e.cfg.ScrapeTimeout, stateFailed},
	}

	var attempts []Attempt
	st := stateTryingDirect

	for i := 0; st != stateSucceeded && st != stateFailed; i++ {
		tier := strategies[i]
		method := tier.s.Method()
		log.Printf("recovery[%s]: trying %s strategy", e.fingerprint, method)

		capture, err := e.runStrategy(ctx, tier.s, tier.timeout, sess)
		if err != nil {
			if ctx.Err() != nil {
				// Caller cancelled. A copy action or sweep may be half
				// done, so flag the session for discard.
				return nil, fmt.Errorf("recovery cancelled during %s: %w: %w", method, ErrSessionDiscard, ctx.Err())
			}
			log.Printf("recovery[%s]: %s strategy failed: %v", e.fingerprint, method, err)
			attempts = append(attempts, Attempt{Method: method, Err: err})
			st = tier.next
			continue
		}

		rec, err := profilejson.Parse(capture.Text, e.cfg.MinSections)
		if err != nil {
			// Unparseable text counts as a failed strategy; the next
			// tier may capture something better.
			log.Printf("recovery[%s]: %s capture did not parse: %v", e.fingerprint, method, err)
			attempts = append(attempts, Attempt{Method: method, Err: err})
			st = tier.next
			continue
		}

		log.Printf("recovery[%s]: recovered %d sections via %s", e.fingerprint, rec.SectionCount(), method)
		return &Result{Record: rec, Method: capture.Method, CapturedAt: capture.CapturedAt}, nil
	}

	return nil, &RecoveryError{Target: e.fingerprint, Attempts: attempts}
}

// runStrategy executes one tier under its own deadline so a hung strategy
// fails over instead of blocking the whole call.
func (e *Engine) runStrategy(ctx context.Context, s strategy, timeout time.Duration, sess Session) (RawCapture, error) {
	tierCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		tierCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	capture, err := s.Capture(tierCtx, sess)
	if err != nil && tierCtx.Err() != nil && ctx.Err() == nil && !errors.Is(err, ErrStabilizationTimeout) {
		return RawCapture{}, fmt.Errorf("%w: %s strategy deadline exceeded", ErrStabilizationTimeout, s.Method())
	}
	return capture, err
}

// ParseOnly runs just the localization, parsing and normalization stages on
// already-captured text. Used by the HTTP surface to re-parse stored raw
// captures without a browser.
func ParseOnly(text string, cfg config.Config) (profile.Record, error) {
	return profilejson.Parse(text, cfg.MinSections)
}
