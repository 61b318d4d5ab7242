package hostgroup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelcutops/envboot/envboot/commandmanager/cmtest"
	"github.com/steelcutops/envboot/envboot/host"
)

func newGroup(t *testing.T, names ...string) *HostGroup {
	t.Helper()
	hg := NewHostGroup()
	for _, name := range names {
		h, err := host.NewHost(name, host.WithCommandManager(cmtest.New()))
		require.NoError(t, err)
		hg.AddHost(h)
	}
	return hg
}

func TestHostnames(t *testing.T) {
	hg := newGroup(t, "web-2", "web-1", "db-1")
	assert.Equal(t, []string{"db-1", "web-1", "web-2"}, hg.Hostnames())
	assert.True(t, hg.HasHost("web-1"))
	assert.False(t, hg.HasHost("web-3"))
}

func TestEachBoundsConcurrency(t *testing.T) {
	hg := newGroup(t, "a", "b", "c", "d", "e", "f")

	var inFlight, peak int32
	err := hg.Each(context.Background(), 2, func(ctx context.Context, h *host.Host) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestEachAggregatesErrors(t *testing.T) {
	hg := newGroup(t, "a", "b", "c")

	err := hg.Each(context.Background(), 3, func(ctx context.Context, h *host.Host) error {
		if h.Hostname == "b" {
			return nil
		}
		return errors.New("boom")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "host a: boom")
	assert.Contains(t, err.Error(), "host c: boom")
	assert.NotContains(t, err.Error(), "host b")
}
