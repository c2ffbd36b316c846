package xr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/xrsession/internal/monitoring"
	"github.com/banshee-data/xrsession/internal/xr/event"
	"github.com/banshee-data/xrsession/internal/xr/simhost"
	"github.com/banshee-data/xrsession/internal/xrmath"
)

// muteLogs silences monitoring output for the test and returns the lines
// that would have been logged.
func muteLogs(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, format)
	})
	t.Cleanup(func() { monitoring.SetLogger(nil) })
	return &lines
}

// recordEvents collects the types of manager notifications in order.
func recordEvents(m *Manager, types ...string) *[]string {
	var got []string
	for _, typ := range types {
		m.AddEventListener(typ, func(ev event.Event) { got = append(got, ev.Type) })
	}
	return &got
}

func startEmulated(t *testing.T) (*Manager, *simhost.Backend, *simhost.Session) {
	t.Helper()
	muteLogs(t)
	backend := simhost.NewBackend(false)
	m := NewManager(backend, nil, nil)
	s := simhost.NewSession(false)
	require.NoError(t, m.StartSession(context.Background(), s))
	return m, backend, s
}

func startNative(t *testing.T) (*Manager, *simhost.Backend, *simhost.Session) {
	t.Helper()
	muteLogs(t)
	backend := simhost.NewBackend(true)
	m := NewManager(backend, nil, nil)
	s := simhost.NewSession(true)
	require.NoError(t, m.StartSession(context.Background(), s))
	return m, backend, s
}

func stereoFrame() *simhost.Frame {
	return &simhost.Frame{
		Viewer: simhost.StereoViewer(r3.Vec{Y: 1.6}, xrmath.IdentityQuat(), simhost.DefaultIPD, 0.1, 1000),
	}
}
