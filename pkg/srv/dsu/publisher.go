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

package dsu

import (
	"sync"
	"sync/atomic"

	"github.com/octopoint/go-dsu/pkg/clock"
	"github.com/octopoint/go-dsu/pkg/layers"
	"github.com/octopoint/go-dsu/pkg/log"
	"github.com/octopoint/go-dsu/pkg/motion"
	"github.com/octopoint/go-dsu/pkg/session"
	"github.com/octopoint/go-dsu/pkg/srv"
)

type Sender interface {
	Send(p srv.OutPacket) bool
}

// Publisher turns motion samples into pad data reports for the registered client
type Publisher struct {
	session  *session.Session
	sender   Sender
	clock    clock.Clock
	serverID uint32
	counter  uint32

	mu       sync.Mutex
	rotation layers.Vector3
}

var _ motion.Publisher = &Publisher{}

func NewPublisher(sess *session.Session, sender Sender, c clock.Clock) *Publisher {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Publisher{
		session: sess,
		sender:  sender,
		clock:   c,
	}
}

func (p *Publisher) SetServerID(id uint32) {
	atomic.StoreUint32(&p.serverID, id)
}

// PacketCounter is the counter the next report will carry
func (p *Publisher) PacketCounter() uint32 {
	return atomic.LoadUint32(&p.counter)
}

// CurrentRotation is the sum of all rotations sent so far
func (p *Publisher) CurrentRotation() layers.Vector3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rotation
}

func (p *Publisher) report(sample motion.Sample) *layers.PadDataResponseLayer {
	report := &layers.PadDataResponseLayer{
		SlotInfo:      layers.NewPadSlotInfo(),
		PacketCounter: atomic.AddUint32(&p.counter, 1) - 1,
		Timestamp:     uint64(p.clock.Now().UnixMicro()),
		Gyro:          sample.Rotation,
	}
	if sample.Left {
		report.Buttons2 |= layers.ButtonSquare
		report.Face[0] = 0xff
	}
	if sample.Right {
		report.Buttons2 |= layers.ButtonCross
		report.Face[1] = 0xff
	}
	return report
}

// Publish sends one report to the registered client. It is a no-op when nobody
// is registered or the registration expired. The rotation is added to
// CurrentRotation only if the report was queued.
func (p *Publisher) Publish(sample motion.Sample) bool {
	endpoint := p.session.CurrentEndpoint()
	if endpoint == nil {
		return false
	}
	data, err := serializePacket(atomic.LoadUint32(&p.serverID), layers.MessageTypePadData, p.report(sample))
	if err != nil {
		log.Error("Error while serializing pad data report: %s", err)
		return false
	}
	if !p.sender.Send(srv.OutPacket{Data: data, UDPAddr: endpoint}) {
		log.Debug("Output queue is full, drop pad data report")
		return false
	}
	p.mu.Lock()
	p.rotation = p.rotation.Add(sample.Rotation)
	p.mu.Unlock()
	return true
}
