package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companyscrapper/config"
	"companyscrapper/selectors"
)

const validJSON = `{"What":{"Sector":"Technology","Industry":"Semiconductors"},` +
	`"When":{"FoundedYear":"1993"},"Who":{"CEO":"Jensen Huang"}}`

// fakeSession scripts the behavior of a live browsing session.
type fakeSession struct {
	prompt        string
	responseText  string
	responseErr   error
	copyErr       error
	clipboard     string
	clipboardErr  error
	hostClipboard string
	hostErr       error
	selectorText  map[string][]string
	shadow        string

	copyTriggered bool
}

func (f *fakeSession) LatestResponseText(context.Context) (string, error) {
	return f.responseText, f.responseErr
}
func (f *fakeSession) TriggerCopy(context.Context) error {
	f.copyTriggered = true
	return f.copyErr
}
func (f *fakeSession) ReadClipboard(context.Context) (string, error) {
	return f.clipboard, f.clipboardErr
}
func (f *fakeSession) ReadHostClipboard() (string, error) {
	return f.hostClipboard, f.hostErr
}
func (f *fakeSession) QuerySelectorAll(_ context.Context, locator string) ([]string, error) {
	return f.selectorText[locator], nil
}
func (f *fakeSession) DeepShadowText(context.Context) (string, error) {
	return f.shadow, nil
}
func (f *fakeSession) Prompt() string { return f.prompt }

func testConfig() config.Config {
	cfg := config.Default()
	cfg.PollInterval = 5 * time.Millisecond
	cfg.StabilizeHold = 30 * time.Millisecond
	cfg.DirectTimeout = 2 * time.Second
	cfg.ClipboardTimeout = 2 * time.Second
	cfg.ScrapeTimeout = 2 * time.Second
	cfg.MinAcceptChars = 40
	cfg.SelectorMemoryFile = ""
	return cfg
}

func TestRecoverDirectStrategy(t *testing.T) {
	sess := &fakeSession{
		prompt:       BuildPrompt("NVDA"),
		responseText: validJSON,
	}
	engine := New(testConfig(), nil, "company-profile:NVDA")

	result, err := engine.Recover(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, MethodDirect, result.Method)
	assert.Equal(t, 3, result.Record.SectionCount())
	assert.Equal(t, "Jensen Huang", result.Record["Who"]["CEO"])
	assert.False(t, sess.copyTriggered, "direct success must not touch the clipboard")
	assert.False(t, result.CapturedAt.IsZero())
}

func TestRecoverFailsOverToClipboard(t *testing.T) {
	// The rendered text is prose, so the direct strategy rejects it; the
	// clipboard carries the clean payload.
	sess := &fakeSession{
		prompt:       BuildPrompt("NVDA"),
		responseText: "Here is the company profile you asked for, rendered as rich text instead of JSON.",
		clipboard:    validJSON,
	}
	engine := New(testConfig(), nil, "company-profile:NVDA")

	result, err := engine.Recover(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, MethodClipboard, result.Method)
	assert.True(t, sess.copyTriggered)
}

func TestRecoverFallsBackToHostClipboard(t *testing.T) {
	sess := &fakeSession{
		prompt:        BuildPrompt("NVDA"),
		responseText:  "Here is the company profile you asked for, rendered as rich text instead of JSON.",
		clipboardErr:  errors.New("permission denied"),
		hostClipboard: validJSON,
	}
	engine := New(testConfig(), nil, "company-profile:NVDA")

	result, err := engine.Recover(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, MethodClipboard, result.Method)
}

func TestRecoverScrapeStrategyAndSelectorMemory(t *testing.T) {
	memory := selectors.OpenMemory("")
	sess := &fakeSession{
		prompt:       BuildPrompt("NVDA"),
		responseText: "Here is the company profile you asked for, rendered as rich text instead of JSON.",
		clipboardErr: errors.New("permission denied"),
		hostErr:      errors.New("no clipboard tool"),
		selectorText: map[string][]string{
			"model-response": {validJSON},
		},
	}
	engine := New(testConfig(), memory, "company-profile:NVDA")

	result, err := engine.Recover(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, MethodScrape, result.Method)
	assert.Equal(t, "Jensen Huang", result.Record["Who"]["CEO"])
	assert.Equal(t, []string{"model-response"}, memory.Lookup("company-profile:NVDA"),
		"confirmed success must persist the working locator")
}

func TestRecoverAllStrategiesExhausted(t *testing.T) {
	sess := &fakeSession{
		prompt:       BuildPrompt("NVDA"),
		responseText: "An answer that is long enough to stabilize but contains no structured payload at all.",
		clipboardErr: errors.New("permission denied"),
		hostErr:      errors.New("no clipboard tool"),
	}
	engine := New(testConfig(), nil, "company-profile:NVDA")

	_, err := engine.Recover(context.Background(), sess)
	require.Error(t, err)

	var recErr *RecoveryError
	require.ErrorAs(t, err, &recErr)
	require.Len(t, recErr.Attempts, 3)
	assert.Equal(t, MethodDirect, recErr.Attempts[0].Method)
	assert.Equal(t, MethodClipboard, recErr.Attempts[1].Method)
	assert.Equal(t, MethodScrape, recErr.Attempts[2].Method)
	for _, a := range recErr.Attempts {
		assert.Error(t, a.Err, "each attempt must carry its failure reason")
	}
}

func TestRecoverUnparseableCaptureStillFailsOver(t *testing.T) {
	// Direct accepts the text (it looks like JSON) but parsing cannot meet
	// the threshold; the scrape tier then finds the real payload.
	almostJSON := `{"What": {"Sector": "Tech"}, "notes": "only one section present, padding padding"}`
	sess := &fakeSession{
		prompt:       BuildPrompt("NVDA"),
		responseText: almostJSON,
		clipboardErr: errors.New("permission denied"),
		hostErr:      errors.New("no clipboard tool"),
		selectorText: map[string][]string{
			"model-response": {validJSON},
		},
	}
	engine := New(testConfig(), nil, "company-profile:NVDA")

	result, err := engine.Recover(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, MethodScrape, result.Method)
}

func TestRecoverRejectsPromptEcho(t *testing.T) {
	// The only text on the page is the query itself; nothing must be
	// accepted from it.
	sess := &fakeSession{
		prompt:       BuildPrompt("NVDA"),
		responseText: BuildPrompt("NVDA"),
		clipboardErr: errors.New("permission denied"),
		hostErr:      errors.New("no clipboard tool"),
	}
	cfg := testConfig()
	cfg.DirectTimeout = 150 * time.Millisecond
	cfg.ClipboardTimeout = 150 * time.Millisecond
	cfg.ScrapeTimeout = 150 * time.Millisecond
	engine := New(cfg, nil, "company-profile:NVDA")

	_, err := engine.Recover(context.Background(), sess)
	var recErr *RecoveryError
	require.ErrorAs(t, err, &recErr)
}

func TestRecoverCancellationFlagsSessionDiscard(t *testing.T) {
	sess := &fakeSession{prompt: BuildPrompt("NVDA")}
	// Keep the text changing forever so the engine sits in stabilization.
	n := 0
	sessFn := sessionFunc{
		fakeSession: sess,
		latest: func() (string, error) {
			n++
			return validJSON + string(rune('a'+n%26)), nil
		},
	}

	cfg := testConfig()
	cfg.StabilizeHold = time.Hour
	engine := New(cfg, nil, "company-profile:NVDA")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := engine.Recover(ctx, &sessFn)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionDiscard)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// sessionFunc overrides LatestResponseText with a closure.
type sessionFunc struct {
	*fakeSession
	latest func() (string, error)
}

func (s *sessionFunc) LatestResponseText(context.Context) (string, error) {
	return s.latest()
}
