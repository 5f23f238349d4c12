package session

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octopoint/go-dsu/pkg/clock"
	"github.com/octopoint/go-dsu/pkg/layers"
)

var (
	zeroMAC  = [6]byte{}
	otherMAC = [6]byte{1, 2, 3, 4, 5, 6}
	clientA  = &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 50000}
	clientB  = &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 50001}
)

func newTestSession() (*Session, *clock.MockClock) {
	c := clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewSession(5*time.Second, c), c
}

func TestRegistrationFilter(t *testing.T) {
	tests := []struct {
		name   string
		flags  layers.RegistrationFlags
		slot   uint8
		mac    [6]byte
		accept bool
	}{
		{"no filter", 0, 3, otherMAC, true},
		{"slot filter slot 0", layers.RegisterBySlot, 0, otherMAC, true},
		{"slot filter slot 1", layers.RegisterBySlot, 1, otherMAC, false},
		{"mac filter placeholder mac", layers.RegisterByMAC, 2, layers.PlaceholderMAC, true},
		{"mac filter other mac", layers.RegisterByMAC, 0, otherMAC, false},
		{"mac filter zero mac", layers.RegisterByMAC, 0, zeroMAC, false},
		{"both filters slot matches", layers.RegisterBySlot | layers.RegisterByMAC, 0, otherMAC, true},
		{"both filters mac matches", layers.RegisterBySlot | layers.RegisterByMAC, 1, layers.PlaceholderMAC, true},
		{"both filters nothing matches", layers.RegisterBySlot | layers.RegisterByMAC, 1, otherMAC, false},
		{"unknown flag only", 0x04, 0, layers.PlaceholderMAC, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSession()
			assert.Equal(t, tt.accept, s.Register(clientA, tt.flags, tt.slot, tt.mac))
			if tt.accept {
				assert.Equal(t, clientA.String(), s.CurrentEndpoint().String())
			} else {
				assert.Nil(t, s.CurrentEndpoint())
			}
		})
	}
}

func TestRejectedRegistrationKeepsSession(t *testing.T) {
	s, _ := newTestSession()
	require.True(t, s.Register(clientA, 0, 0, zeroMAC))
	assert.False(t, s.Register(clientB, layers.RegisterBySlot, 1, zeroMAC))
	assert.Equal(t, clientA.String(), s.CurrentEndpoint().String())
}

func TestExpiry(t *testing.T) {
	s, c := newTestSession()
	assert.Nil(t, s.CurrentEndpoint())

	require.True(t, s.Register(clientA, 0, 0, zeroMAC))
	require.NotNil(t, s.CurrentEndpoint())

	c.Advance(5 * time.Second)
	assert.NotNil(t, s.CurrentEndpoint(), "still live at exactly the timeout")

	c.Advance(time.Millisecond)
	assert.Nil(t, s.CurrentEndpoint())
	assert.False(t, s.Snapshot().Live)

	require.True(t, s.Register(clientB, 0, 0, zeroMAC))
	assert.Equal(t, clientB.String(), s.CurrentEndpoint().String())
}

func TestRefreshExtendsSession(t *testing.T) {
	s, c := newTestSession()
	require.True(t, s.Register(clientA, 0, 0, zeroMAC))
	c.Advance(4 * time.Second)
	require.True(t, s.Register(clientA, 0, 0, zeroMAC))
	c.Advance(4 * time.Second)
	assert.NotNil(t, s.CurrentEndpoint())
}

func TestRegisterCopiesEndpoint(t *testing.T) {
	s, _ := newTestSession()
	addr := &net.UDPAddr{IP: net.ParseIP("10.0.0.1"), Port: 1234}
	require.True(t, s.Register(addr, 0, 0, zeroMAC))
	addr.Port = 1
	assert.Equal(t, 1234, s.CurrentEndpoint().Port)
}

func TestSnapshot(t *testing.T) {
	s, c := newTestSession()
	snap := s.Snapshot()
	assert.Empty(t, snap.Endpoint)
	assert.False(t, snap.Live)
	assert.Equal(t, "5s", snap.Timeout)

	require.True(t, s.Register(clientA, 0, 0, zeroMAC))
	snap = s.Snapshot()
	assert.Equal(t, clientA.String(), snap.Endpoint)
	assert.Equal(t, c.Now(), snap.LastRegisteredAt)
	assert.True(t, snap.Live)
}

func TestRegisterNilEndpoint(t *testing.T) {
	s, _ := newTestSession()
	assert.False(t, s.Register(nil, 0, 0, zeroMAC))
}
