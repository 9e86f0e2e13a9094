package recovery

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// stabilizer accepts sampled text once two consecutive samples are identical
// and the text has held unchanged for the full hold duration. This is the
// guard against capturing a partially-streamed response.
type stabilizer struct {
	interval time.Duration
	hold     time.Duration
	dmp      *diffmatchpatch.DiffMatchPatch
}

func newStabilizer(interval, hold time.Duration) *stabilizer {
	return &stabilizer{interval: interval, hold: hold, dmp: diffmatchpatch.New()}
}

// Wait polls sample until the text stabilizes or ctx expires. The sample
// function may return an empty string while the response has not started;
// empty samples never stabilize. On timeout the last observed text is
// returned alongside ErrStabilizationTimeout so callers can log it.
func (st *stabilizer) Wait(ctx context.Context, sample func(context.Context) (string, error)) (string, error) {
	var (
		last        string
		stableSince time.Time
	)

	ticker := time.NewTicker(st.interval)
	defer ticker.Stop()

	for {
		current, err := sample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return last, fmt.Errorf("%w: %w", ErrStabilizationTimeout, ctx.Err())
			}
			// Transient sampling errors reset stability but keep polling.
			current = ""
		}

		switch {
		case current == "" || current != last:
			if last != "" && current != "" {
				st.logGrowth(last, current)
			}
			last = current
			stableSince = time.Now()
		default:
			// Second consecutive identical sample; accept once the text
			// has held for the full window.
			if time.Since(stableSince) >= st.hold {
				return last, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, fmt.Errorf("%w: %w", ErrStabilizationTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// logGrowth reports how much the response moved between samples, which makes
// a stalled-vs-streaming response obvious in the logs.
func (st *stabilizer) logGrowth(prev, cur string) {
	diffs := st.dmp.DiffMain(prev, cur, false)
	ins, del := 0, 0
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			ins += len(d.Text)
		case diffmatchpatch.DiffDelete:
			del += len(d.Text)
		}
	}
	log.Printf("response still streaming: +%d/-%d chars (now %d)", ins, del, len(cur))
}
