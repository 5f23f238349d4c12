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
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"

	"github.com/octopoint/go-dsu/pkg/capture"
	"github.com/octopoint/go-dsu/pkg/clock"
	"github.com/octopoint/go-dsu/pkg/config"
	"github.com/octopoint/go-dsu/pkg/layers"
	"github.com/octopoint/go-dsu/pkg/log"
	"github.com/octopoint/go-dsu/pkg/motion"
	"github.com/octopoint/go-dsu/pkg/session"
	"github.com/octopoint/go-dsu/pkg/srv"
)

const (
	// MaxDatagramSize is the size of the receive buffer
	MaxDatagramSize = 65536
)

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateListening
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	}
	return fmt.Sprintf("unknown(%d)", int32(s))
}

// Status is what the API reports about the server
type Status struct {
	State           string           `json:"state"`
	Addr            string           `json:"addr,omitempty"`
	ServerID        string           `json:"server_id"`
	PacketCounter   uint32           `json:"packet_counter"`
	CurrentRotation layers.Vector3   `json:"current_rotation"`
	Session         session.Snapshot `json:"session"`
}

type DSUServer struct {
	srv.Server
	clock    clock.Clock
	state    int32
	serverID uint32

	connMu sync.Mutex
	conn   *net.UDPConn

	session   *session.Session
	publisher *Publisher
	driver    *motion.Driver
	recorder  *capture.Recorder
	api       *ApiServer
}

var _ Controller = &DSUServer{}

// NewDSUServer prepares the server, the socket is not bound until Start or Run
func NewDSUServer(ctx context.Context, cfg *config.Config) (*DSUServer, error) {
	log.Debug("Initializing DSU server with address: %s port: %d", cfg.IP, cfg.Port)

	uaddr, err := cfg.UDPAddr()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.ClientTimeoutDuration()
	if err != nil {
		return nil, err
	}
	interval, err := cfg.MotionIntervalDuration()
	if err != nil {
		return nil, err
	}

	s := &DSUServer{
		Server: srv.NewServer(ctx, cfg, uaddr),
		clock:  clock.RealClock{},
	}
	s.session = session.NewSession(timeout, s.clock)
	s.publisher = NewPublisher(s.session, s, s.clock)
	s.driver = motion.NewDriver(s.publisher, interval)

	apiServer, err := NewApiServer(ctx, cfg, s)
	if err != nil {
		return nil, err
	}
	s.api = apiServer

	return s, nil
}

func (s *DSUServer) setState(state State) {
	atomic.StoreInt32(&s.state, int32(state))
}

func (s *DSUServer) State() State {
	return State(atomic.LoadInt32(&s.state))
}

func (s *DSUServer) ServerID() uint32 {
	return atomic.LoadUint32(&s.serverID)
}

func (s *DSUServer) Session() *session.Session {
	return s.session
}

func (s *DSUServer) Publisher() *Publisher {
	return s.publisher
}

// LocalAddr is the address the socket is bound to, nil when stopped
func (s *DSUServer) LocalAddr() *net.UDPAddr {
	conn := s.currentConn()
	if conn == nil {
		return nil
	}
	addr, _ := conn.LocalAddr().(*net.UDPAddr)
	return addr
}

func (s *DSUServer) currentConn() *net.UDPConn {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn
}

func randomServerID() uint32 {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		log.Warning("Can not generate random server id: %s", err)
		return uint32(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint32(b)
}

// Start binds the socket and starts receiving datagrams. A running server
// is restarted: the old socket is closed first.
func (s *DSUServer) Start() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn != nil {
		log.Info("Restarting DSU server")
		s.conn.Close()
		s.conn = nil
	}
	s.setState(StateStarting)

	conn, err := net.ListenUDP("udp", s.UDPAddr)
	if err != nil {
		log.Error("Can not bind DSU server to %s: %s", s.UDPAddr, err)
		s.setState(StateStopped)
		return srv.ErrBind{Addr: s.UDPAddr.String(), Err: err}
	}
	if err := disableConnReset(conn); err != nil {
		log.Warning("Can not disable connection reset reports: %s", err)
	}

	id := randomServerID()
	atomic.StoreUint32(&s.serverID, id)
	s.publisher.SetServerID(id)
	s.conn = conn
	s.setState(StateListening)
	log.Info("DSU server is listening on %s with server id %#08x", conn.LocalAddr(), id)

	go s.receive(conn)
	return nil
}

// Stop closes the socket, no more datagrams are received after it returns
func (s *DSUServer) Stop() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.closeConn()
}

func (s *DSUServer) closeConn() error {
	s.setState(StateStopped)
	if s.conn == nil {
		return nil
	}
	log.Info("Stopping DSU server on %s", s.conn.LocalAddr())
	err := s.conn.Close()
	s.conn = nil
	return err
}

// receive reads datagrams from the wire and puts them to the input queue.
// The buffer is copied right away so the next read is armed before anything
// is parsed.
func (s *DSUServer) receive(conn *net.UDPConn) {
	buffer := make([]byte, MaxDatagramSize)
	for {
		length, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Debug("DSU socket is closed, stop receiving")
				return
			}
			if isConnReset(err) {
				log.Debug("Connection reset reported by the socket, continue receiving")
				continue
			}
			log.Error("Error while reading from DSU socket: %s", err)
			s.connMu.Lock()
			if s.conn == conn {
				s.closeConn()
			}
			s.connMu.Unlock()
			return
		}

		data := make([]byte, length)
		copy(data, buffer[:length])
		captureInfo := gopacket.CaptureInfo{
			Timestamp:     s.clock.Now(),
			CaptureLength: length,
			Length:        length,
			AncillaryData: []interface{}{addr},
		}
		if !s.Receive(srv.InPacket{Data: data, CaptureInfo: captureInfo}) {
			log.Debug("Input queue is full, drop packet from %s", addr)
		}
	}
}

// dispatchLoop parses packets from the input queue until the context is done
func (s *DSUServer) dispatchLoop() {
	source := gopacket.NewPacketSource(s, layers.DSULayerType)
	for packet := range source.Packets() {
		if addr, err := srv.GetAddrPort(packet); err == nil {
			s.record(capture.Inbound, addr, packet.Data())
		}
		if err := s.dispatchPacket(packet); err != nil {
			log.Debug("Drop packet: %s", err)
		}
	}
}

// sendLoop writes packets from the output queue to the wire. Send errors are
// not retried, the next motion report goes out on the next tick anyway.
func (s *DSUServer) sendLoop() {
	for {
		select {
		case <-s.Done():
			return
		case outPacket := <-s.ChOut:
			conn := s.currentConn()
			if conn == nil {
				log.Debug("DSU server is stopped, drop packet to %s", outPacket.UDPAddr)
				continue
			}
			if _, err := conn.WriteToUDP(outPacket.Data, outPacket.UDPAddr); err != nil {
				log.Debug("Error while sending packet to %s: %s", outPacket.UDPAddr, err)
				continue
			}
			s.record(capture.Outbound, outPacket.UDPAddr, outPacket.Data)
		}
	}
}

func (s *DSUServer) record(direction capture.Direction, addr *net.UDPAddr, data []byte) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(direction, addr.String(), data, s.clock.Now()); err != nil {
		log.Debug("Error while recording packet: %s", err)
	}
}

// Run binds the socket and serves DSU clients and the HTTP API
// until the context is done
func (s *DSUServer) Run() error {
	if s.Config.CapturePath != "" {
		recorder, err := capture.Open(s.Config.CapturePath)
		if err != nil {
			return err
		}
		log.Info("Recording packets to %s", s.Config.CapturePath)
		s.recorder = recorder
		defer recorder.Close()
	}

	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	errChan := make(chan error, 1)

	go s.dispatchLoop()
	go s.sendLoop()
	go s.driver.Run(s.Context)
	go func() {
		if err := s.api.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-s.Done():
		log.Info("Shutting down DSU server")
		return nil
	case err := <-errChan:
		return err
	}
}

func (s *DSUServer) Status() Status {
	status := Status{
		State:           s.State().String(),
		ServerID:        fmt.Sprintf("%#08x", s.ServerID()),
		PacketCounter:   s.publisher.PacketCounter(),
		CurrentRotation: s.publisher.CurrentRotation(),
		Session:         s.session.Snapshot(),
	}
	if addr := s.LocalAddr(); addr != nil {
		status.Addr = addr.String()
	}
	return status
}

func (s *DSUServer) SessionSnapshot() session.Snapshot {
	return s.session.Snapshot()
}

// PushMotion hands a sample to the motion driver, it goes out on the next tick
func (s *DSUServer) PushMotion(sample motion.Sample) {
	s.driver.Push(sample)
}
