package recovery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStabilizerWaitsOutStreamingText(t *testing.T) {
	const (
		interval  = 20 * time.Millisecond
		hold      = 200 * time.Millisecond
		changeFor = 600 * time.Millisecond
	)

	start := time.Now()
	sample := func(context.Context) (string, error) {
		elapsed := time.Since(start)
		if elapsed < changeFor {
			// Still streaming: a new suffix on every poll.
			return fmt.Sprintf("partial response %d", elapsed.Milliseconds()), nil
		}
		return "final stable response text", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st := newStabilizer(interval, hold)
	text, err := st.Wait(ctx, sample)
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.Equal(t, "final stable response text", text)
	assert.GreaterOrEqual(t, elapsed, changeFor+hold,
		"must not accept before the text held constant for the full threshold")
	assert.Less(t, elapsed, changeFor+hold+1500*time.Millisecond,
		"must accept shortly after the hold elapses")
}

func TestStabilizerTimesOutOnEndlessStreaming(t *testing.T) {
	n := 0
	sample := func(context.Context) (string, error) {
		n++
		return fmt.Sprintf("still changing %d", n), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	st := newStabilizer(10*time.Millisecond, time.Hour)
	_, err := st.Wait(ctx, sample)
	assert.ErrorIs(t, err, ErrStabilizationTimeout)
}

func TestStabilizerIgnoresEmptySamples(t *testing.T) {
	// Empty means "response not started yet"; it must never stabilize.
	calls := 0
	sample := func(context.Context) (string, error) {
		calls++
		if calls < 5 {
			return "", nil
		}
		return "content arrived", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st := newStabilizer(10*time.Millisecond, 50*time.Millisecond)
	text, err := st.Wait(ctx, sample)
	require.NoError(t, err)
	assert.Equal(t, "content arrived", text)
}

func TestStabilizerResetsAfterTransientError(t *testing.T) {
	calls := 0
	sample := func(context.Context) (string, error) {
		calls++
		if calls == 3 {
			return "", fmt.Errorf("transient read failure")
		}
		return "steady text", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st := newStabilizer(10*time.Millisecond, 60*time.Millisecond)
	text, err := st.Wait(ctx, sample)
	require.NoError(t, err)
	assert.Equal(t, "steady text", text)
}
