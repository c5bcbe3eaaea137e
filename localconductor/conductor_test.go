package localconductor

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/real-logic/aeron-go/internal/logbuffer"
)

func newTestLogBuffers(t *testing.T) *logbuffer.LogBuffers {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conductor.log")
	lb, err := logbuffer.CreateLogBuffers(path, logbuffer.MinTermLength, 1, 4096, make([]byte, logbuffer.HeaderLength))
	require.NoError(t, err)
	return lb
}

func TestIsPublicationConnectedUsesInjectedClock(t *testing.T) {
	var now int64 = 1_000_000_000
	c := New(nil, 5*time.Second, WithClock(func() int64 { return now }))

	require.False(t, c.IsPublicationConnected(0), "never-seen status message is not connected")

	lastStatus := now - int64(3*time.Second)
	require.True(t, c.IsPublicationConnected(lastStatus), "status message within timeout should be connected")

	now += int64(10 * time.Second)
	require.False(t, c.IsPublicationConnected(lastStatus), "status message past timeout should not be connected")
}

func TestReleasePublicationClosesLogBuffers(t *testing.T) {
	c := New(nil, time.Minute)
	lb := newTestLogBuffers(t)
	c.Register(1, lb)

	c.ReleasePublication(1)

	// A second release of the same, now-unknown id must not panic.
	c.ReleasePublication(1)
}

func TestAddAndRemoveDestination(t *testing.T) {
	c := New(nil, time.Minute)
	lb := newTestLogBuffers(t)
	t.Cleanup(func() { lb.Close() })
	c.Register(1, lb)

	require.NoError(t, c.AddDestination(1, "aeron:udp?endpoint=localhost:9000"))

	err := c.AddDestination(1, "aeron:udp?endpoint=localhost:9000")
	require.Error(t, err)
	require.Equal(t, codes.AlreadyExists, status.Code(err))

	require.NoError(t, c.RemoveDestination(1, "aeron:udp?endpoint=localhost:9000"))

	err = c.RemoveDestination(1, "aeron:udp?endpoint=localhost:9000")
	require.Error(t, err)
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestDestinationOperationsOnUnknownPublication(t *testing.T) {
	c := New(nil, time.Minute)

	err := c.AddDestination(99, "aeron:udp?endpoint=localhost:9000")
	require.Error(t, err)
	require.Equal(t, codes.NotFound, status.Code(err))
}
