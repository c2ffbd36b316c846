package journal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/xrsession/internal/monitoring"
	"github.com/banshee-data/xrsession/internal/testutil"
	"github.com/banshee-data/xrsession/internal/timeutil"
	"github.com/banshee-data/xrsession/internal/xr"
	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xr/simhost"
	"github.com/banshee-data/xrsession/internal/xrmath"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func timeAt(t time.Time) *time.Time { return &t }

func openTestJournal(t *testing.T) (*Journal, *timeutil.MockClock) {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	clock := timeutil.NewMockClock(epoch)
	j, err := open(filepath.Join(t.TempDir(), "journal.db"), clock)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j, clock
}

func TestOpenMigratesToLatest(t *testing.T) {
	j, _ := openTestJournal(t)
	version, dirty, err := j.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
}

func TestReopenKeepsData(t *testing.T) {
	monitoring.SetLogger(nil)
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	id, err := j.BeginSession("emulated", "local-floor")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	sessions, err := j.Sessions(0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, id, sessions[0].ID)
	assert.NotNil(t, sessions[0].EndedAt, "Close ends the open session")
}

func TestSessionLifecycle(t *testing.T) {
	j, clock := openTestJournal(t)

	first, err := j.BeginSession("native", "local")
	require.NoError(t, err)
	assert.Equal(t, first, j.CurrentSession())

	clock.Advance(2 * time.Second)
	n := 3
	require.NoError(t, j.RecordEvent(xr.EventPlanesDetected, nil, &n))
	ts := 1.5
	require.NoError(t, j.RecordEvent(xr.EventPlaneAdded, &ts, nil))

	// Beginning again closes the first session.
	clock.Advance(time.Second)
	second, err := j.BeginSession("emulated", "local-floor")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	require.NoError(t, j.EndSession())
	assert.Empty(t, j.CurrentSession())
	require.NoError(t, j.EndSession(), "ending twice is a no-op")

	sessions, err := j.Sessions(0)
	require.NoError(t, err)
	want := []Session{
		{ID: second, Mode: "emulated", ReferenceSpaceType: "local-floor", StartedAt: epoch.Add(3 * time.Second), EndedAt: timeAt(epoch.Add(3 * time.Second))},
		{ID: first, Mode: "native", ReferenceSpaceType: "local", StartedAt: epoch, EndedAt: timeAt(epoch.Add(3 * time.Second))},
	}
	if diff := cmp.Diff(want, sessions); diff != "" {
		t.Errorf("sessions mismatch (-want +got):\n%s", diff)
	}

	limited, err := j.Sessions(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second, limited[0].ID)

	events, err := j.Events(first)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, xr.EventPlanesDetected, events[0].Type)
	require.NotNil(t, events[0].PlaneCount)
	assert.Equal(t, 3, *events[0].PlaneCount)
	assert.Nil(t, events[0].PlaneTime)
	require.NotNil(t, events[1].PlaneTime)
	assert.Equal(t, 1.5, *events[1].PlaneTime)
	assert.Equal(t, epoch.Add(2*time.Second), events[1].RecordedAt)
}

func TestRecordEventWithoutSession(t *testing.T) {
	j, _ := openTestJournal(t)
	err := j.RecordEvent(xr.EventPlaneAdded, nil, nil)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClosedJournal(t *testing.T) {
	monitoring.SetLogger(nil)
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	_, err = j.BeginSession("native", "local")
	assert.True(t, errors.Is(err, ErrClosed))
	assert.ErrorIs(t, j.EndSession(), ErrClosed)
	assert.ErrorIs(t, j.RecordEvent("x", nil, nil), ErrClosed)
	_, err = j.Sessions(0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = j.Events("x")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, j.Close(), ErrClosed)
}

func TestAttachRecordsManagerEvents(t *testing.T) {
	j, _ := openTestJournal(t)
	m := xr.NewManager(simhost.NewBackend(true), nil, nil)
	detach := j.Attach(m)

	s := simhost.NewSession(true)
	require.NoError(t, m.StartSession(context.Background(), s))
	id := j.CurrentSession()
	require.NotEmpty(t, id)

	floor := &simhost.Plane{Name: "floor", Changed: 4}
	frame := &simhost.Frame{
		Viewer:         simhost.StereoViewer(r3.Vec{Y: 1.6}, xrmath.IdentityQuat(), simhost.DefaultIPD, 0.1, 100),
		PlaneDetection: true,
		Planes:         []host.Plane{floor},
	}
	s.Tick(16, frame)
	frame.Planes = nil
	s.Tick(32, frame)
	s.Tick(48, frame)
	s.End()

	assert.Empty(t, j.CurrentSession())

	sessions, err := j.Sessions(0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "native", sessions[0].Mode)
	assert.Equal(t, "local-floor", sessions[0].ReferenceSpaceType)
	assert.NotNil(t, sessions[0].EndedAt)

	events, err := j.Events(id)
	require.NoError(t, err)
	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	want := []string{xr.EventPlanesDetected, xr.EventPlaneAdded, xr.EventPlanesDetected, xr.EventPlaneRemoved}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("event types mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4.0, *events[1].PlaneTime)

	// Nothing is recorded once detached.
	detach()
	require.NoError(t, m.StartSession(context.Background(), simhost.NewSession(false)))
	assert.Empty(t, j.CurrentSession())
}

func TestAdminSessionsRoute(t *testing.T) {
	j, _ := openTestJournal(t)
	id, err := j.BeginSession("emulated", "local-floor")
	require.NoError(t, err)
	n := 0
	require.NoError(t, j.RecordEvent(xr.EventPlanesDetected, nil, &n))

	mux := http.NewServeMux()
	require.NoError(t, j.AttachAdminRoutes(mux))

	rec := testutil.ServeLocal(mux, "/debug/xr-sessions")
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions []Session
	testutil.DecodeJSON(t, rec, &sessions)
	require.Len(t, sessions, 1)
	assert.Equal(t, id, sessions[0].ID)

	rec = testutil.ServeLocal(mux, "/debug/xr-sessions?session="+id)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []Event
	testutil.DecodeJSON(t, rec, &events)
	require.Len(t, events, 1)
	assert.Equal(t, xr.EventPlanesDetected, events[0].Type)

	rec = testutil.ServeLocal(mux, "/debug/xr-sessions?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionJSONOmitsEndWhileOpen(t *testing.T) {
	j, clock := openTestJournal(t)
	_, err := j.BeginSession("native", "local-floor")
	require.NoError(t, err)

	sessions, err := j.Sessions(0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Nil(t, sessions[0].EndedAt)

	b, err := json.Marshal(sessions[0])
	require.NoError(t, err)
	assert.NotContains(t, string(b), "ended_at")

	clock.Advance(time.Second)
	require.NoError(t, j.EndSession())
	sessions, err = j.Sessions(0)
	require.NoError(t, err)
	b, err = json.Marshal(sessions[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), `"ended_at":"2025-03-01T12:00:01Z"`)
}
