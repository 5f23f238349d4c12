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

package srv

import (
	"context"
	"io"
	"net"

	"github.com/google/gopacket"

	"github.com/octopoint/go-dsu/pkg/config"
)

const (
	// QueueSize is the capacity of input and output queues.
	// Packets are dropped when a queue is full.
	QueueSize = 256
)

type InPacket struct {
	Data []byte
	gopacket.CaptureInfo
}

type OutPacket struct {
	Data []byte
	*net.UDPAddr
}

// GetAddrPort returns the UDPAddr of the client that sent the packet
func GetAddrPort(packet gopacket.Packet) (*net.UDPAddr, error) {
	meta := packet.Metadata()
	if len(meta.CaptureInfo.AncillaryData) >= 1 {
		ancillary := meta.CaptureInfo.AncillaryData[0]
		udpAddr, ok := ancillary.(*net.UDPAddr)
		if !ok {
			return nil, ErrGetAddr{}
		}
		return udpAddr, nil
	}
	return nil, ErrGetAddr{}
}

type Server struct {
	context.Context
	*config.Config
	*net.UDPAddr
	ChIn  chan InPacket
	ChOut chan OutPacket
}

func NewServer(ctx context.Context, cfg *config.Config, uaddr *net.UDPAddr) Server {
	return Server{
		Context: ctx,
		Config:  cfg,
		UDPAddr: uaddr,
		ChIn:    make(chan InPacket, QueueSize),
		ChOut:   make(chan OutPacket, QueueSize),
	}
}

// ReadPacketData reads ChIn channel and returns packet data and metadata.
// This method is from PacketDataSource interface. It returns io.EOF once
// the context is done which closes the packet source.
func (s *Server) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	select {
	case <-s.Context.Done():
		return nil, gopacket.CaptureInfo{}, io.EOF
	case p := <-s.ChIn:
		return p.Data, p.CaptureInfo, nil
	}
}

// Receive puts a packet to the input queue, it never blocks
func (s *Server) Receive(p InPacket) bool {
	select {
	case s.ChIn <- p:
		return true
	default:
		return false
	}
}

// Send puts a packet to the output queue, it never blocks
func (s *Server) Send(p OutPacket) bool {
	select {
	case s.ChOut <- p:
		return true
	default:
		return false
	}
}
