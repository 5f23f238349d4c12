/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package session

import (
	"net"
	"sync"
	"time"

	"github.com/octopoint/go-dsu/pkg/clock"
	"github.com/octopoint/go-dsu/pkg/layers"
)

// Session holds the only client that receives motion reports.
// A registration stays valid for timeout after it was last refreshed.
// Expired sessions are never removed, they are ignored until the next registration.
type Session struct {
	mu               sync.RWMutex
	endpoint         *net.UDPAddr
	lastRegisteredAt time.Time
	timeout          time.Duration
	clock            clock.Clock
}

// Snapshot is the state of the session at some moment
type Snapshot struct {
	Endpoint         string    `json:"endpoint,omitempty"`
	LastRegisteredAt time.Time `json:"last_registered_at,omitempty"`
	Timeout          string    `json:"timeout"`
	Live             bool      `json:"live"`
}

func NewSession(timeout time.Duration, c clock.Clock) *Session {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Session{
		timeout: timeout,
		clock:   c,
	}
}

// Unfiltered tells if a pad data request subscribes to the slot this server reports:
// no filter at all, a slot filter for slot 0 or a MAC filter for the placeholder MAC
func Unfiltered(flags layers.RegistrationFlags, slot uint8, mac [6]byte) bool {
	if flags == 0 {
		return true
	}
	if flags&layers.RegisterBySlot != 0 && slot == 0 {
		return true
	}
	if flags&layers.RegisterByMAC != 0 && mac == layers.PlaceholderMAC {
		return true
	}
	return false
}

// Register stores the endpoint and refreshes the registration time.
// Filtered registrations are ignored and leave the session unchanged.
func (s *Session) Register(endpoint *net.UDPAddr, flags layers.RegistrationFlags, slot uint8, mac [6]byte) bool {
	if endpoint == nil || !Unfiltered(flags, slot, mac) {
		return false
	}
	addr := &net.UDPAddr{
		IP:   append(net.IP{}, endpoint.IP...),
		Port: endpoint.Port,
		Zone: endpoint.Zone,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = addr
	s.lastRegisteredAt = s.clock.Now()
	return true
}

func (s *Session) expired(now time.Time) bool {
	return now.Sub(s.lastRegisteredAt) > s.timeout
}

// CurrentEndpoint returns nil if nobody registered or the registration expired
func (s *Session) CurrentEndpoint() *net.UDPAddr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.endpoint == nil || s.expired(s.clock.Now()) {
		return nil
	}
	return s.endpoint
}

func (s *Session) Timeout() time.Duration {
	return s.timeout
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Timeout: s.timeout.String()}
	if s.endpoint == nil {
		return snap
	}
	snap.Endpoint = s.endpoint.String()
	snap.LastRegisteredAt = s.lastRegisteredAt
	snap.Live = !s.expired(s.clock.Now())
	return snap
}
