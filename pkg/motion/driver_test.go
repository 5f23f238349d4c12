package motion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octopoint/go-dsu/pkg/layers"
)

type recordingPublisher struct {
	mu      sync.Mutex
	samples []Sample
}

func (p *recordingPublisher) Publish(sample Sample) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples = append(p.samples, sample)
	return true
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.samples)
}

func TestTickSumsPendingRotation(t *testing.T) {
	p := &recordingPublisher{}
	d := NewDriver(p, time.Millisecond)

	d.Push(Sample{Rotation: layers.Vector3{X: 1, Y: 2, Z: 3}, Left: true})
	d.Push(Sample{Rotation: layers.Vector3{X: 0.5, Y: -2, Z: 1}, Left: true, Right: true})
	require.True(t, d.Tick())
	require.True(t, d.Tick())

	require.Len(t, p.samples, 2)
	assert.Equal(t, Sample{Rotation: layers.Vector3{X: 1.5, Y: 0, Z: 4}, Left: true, Right: true}, p.samples[0])
	assert.Equal(t, Sample{Left: true, Right: true}, p.samples[1], "buttons stay held, rotation is drained")
}

func TestRunPublishesUntilCancelled(t *testing.T) {
	p := &recordingPublisher{}
	d := NewDriver(p, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return p.count() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("driver did not stop")
	}
}
