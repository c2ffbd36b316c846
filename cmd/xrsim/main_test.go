package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/xrsession/internal/config"
	"github.com/banshee-data/xrsession/internal/journal"
	"github.com/banshee-data/xrsession/internal/monitoring"
	"github.com/banshee-data/xrsession/internal/timeutil"
)

func TestFlagDefaults(t *testing.T) {
	if *mode != "native" {
		t.Errorf("expected -mode default native, got %q", *mode)
	}
	if *frames != 300 {
		t.Errorf("expected -frames default 300, got %d", *frames)
	}
	if *journalPath != "" || *debugListen != "" || *grpcListen != "" {
		t.Error("optional outputs should be disabled by default")
	}
}

// runWithMockClock runs xrsim for n frames, advancing the clock until the
// pump has delivered them.
func runWithMockClock(t *testing.T, opts options) string {
	t.Helper()
	monitoring.SetLogger(nil)

	clock := timeutil.NewMockClock(time.Unix(0, 0))
	var out bytes.Buffer
	opts.Clock = clock
	opts.Out = &out
	if opts.Config == nil {
		opts.Config = config.DefaultXRConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	var err error
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		err = run(ctx, opts)
	}()

	interval := opts.Config.GetFrameInterval()
	for {
		select {
		case <-done:
			wg.Wait()
			require.NoError(t, err)
			return out.String()
		default:
			clock.Advance(interval)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestRunNativePrintsNotifications(t *testing.T) {
	out := runWithMockClock(t, options{Native: true, Frames: 100})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "sessionstart", lines[0])
	assert.Contains(t, out, "controller[0] connected right-controller")
	assert.Contains(t, out, "controller[0] select right-controller")
	assert.Contains(t, out, "planeadded floor")
	assert.Contains(t, out, "planeadded table")
	assert.Contains(t, out, "planechanged table")
	assert.Contains(t, out, "planeremoved table")
	assert.Contains(t, out, "delivered 100 frames")
	assert.Contains(t, out, "controller[0] disconnected right-controller")
	assert.Contains(t, out, "sessionend")
}

func TestRunEmulatedWithJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	out := runWithMockClock(t, options{Native: false, Frames: 25, JournalPath: path})
	assert.Contains(t, out, "delivered 25 frames")

	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()
	sessions, err := j.Sessions(0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "emulated", sessions[0].Mode)
	assert.NotNil(t, sessions[0].EndedAt)

	events, err := j.Events(sessions[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}
