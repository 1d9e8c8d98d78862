package applemail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

type fakeRunner struct {
	outputs []string
	err     error
	scripts []string
}

func (f *fakeRunner) Run(_ context.Context, script string) (string, error) {
	f.scripts = append(f.scripts, script)
	if f.err != nil {
		return "", f.err
	}
	if len(f.outputs) == 0 {
		return "", nil
	}
	out := f.outputs[0]
	f.outputs = f.outputs[1:]
	return out, nil
}

type fakeIngester struct {
	messages []domain.EmailMessage
	err      error
}

func (f *fakeIngester) IngestEmail(_ context.Context, msg domain.EmailMessage) (*domain.IngestResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.messages = append(f.messages, msg)
	return &domain.IngestResult{Status: domain.IngestCreated}, nil
}

func newTestPoller(runner *fakeRunner, ingester *fakeIngester, backfill int) *Poller {
	p := NewPoller(ingester, domain.EmailSettings{PollInterval: time.Hour, Backfill: backfill})
	p.SetRunner(runner)
	p.location = time.UTC
	return p
}

func TestNewPoller_Defaults(t *testing.T) {
	p := NewPoller(&fakeIngester{}, domain.EmailSettings{})

	assert.Equal(t, DefaultPollInterval, p.interval)
	assert.Equal(t, "applemail", p.Name())
}

func TestPoller_PollOnce(t *testing.T) {
	runner := &fakeRunner{outputs: []string{
		record("9", "m9", "a@b.c", "later", "2024-01-02T03:04:05", "second") +
			record("8", "m8", "a@b.c", "earlier", "2024-01-01T03:04:05", "first"),
		record("10", "m10", "a@b.c", "newest", "2024-01-03T03:04:05", "third"),
	}}
	ingester := &fakeIngester{}
	p := newTestPoller(runner, ingester, 20)

	n, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(9), p.lastID)
	assert.Contains(t, runner.scripts[0], "total - 20 + 1")
	assert.Contains(t, runner.scripts[0], "> 0 then")
	require.Len(t, ingester.messages, 2)
	assert.Equal(t, "first", ingester.messages[0].Body)

	n, err = p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(10), p.lastID)
	assert.Contains(t, runner.scripts[1], "total - 200 + 1")
	assert.Contains(t, runner.scripts[1], "> 9 then")
}

func TestPoller_PollOnce_IngestErrorStopsAtFailure(t *testing.T) {
	runner := &fakeRunner{outputs: []string{record("3", "m", "f", "s", "d", "body")}}
	p := newTestPoller(runner, &fakeIngester{err: errors.New("disk full")}, 0)

	_, err := p.PollOnce(context.Background())

	assert.ErrorContains(t, err, "disk full")
	assert.Zero(t, p.lastID)
}

func TestPoller_PollOnce_InvalidMessageSkipped(t *testing.T) {
	runner := &fakeRunner{outputs: []string{record("3", "m", "f", "s", "d", "")}}
	p := newTestPoller(runner, &fakeIngester{err: domain.ErrInvalidInput}, 0)

	n, err := p.PollOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(3), p.lastID)
}

func TestPoller_PollOnce_ParseError(t *testing.T) {
	p := newTestPoller(&fakeRunner{outputs: []string{"garbage" + recordSep}}, &fakeIngester{}, 0)

	_, err := p.PollOnce(context.Background())

	assert.ErrorContains(t, err, "parse inbox")
	assert.False(t, p.primed)
}

func TestPoller_Run_StopsOnUnsupportedPlatform(t *testing.T) {
	p := newTestPoller(&fakeRunner{err: ErrUnsupportedPlatform}, &fakeIngester{}, 0)

	err := p.Run(context.Background())

	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestPoller_Run_StopsOnCancel(t *testing.T) {
	p := newTestPoller(&fakeRunner{}, &fakeIngester{}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Run(ctx), context.Canceled)
}
