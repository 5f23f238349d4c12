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
	"net"

	"github.com/google/gopacket"

	"github.com/octopoint/go-dsu/pkg/layers"
	"github.com/octopoint/go-dsu/pkg/log"
	"github.com/octopoint/go-dsu/pkg/session"
	"github.com/octopoint/go-dsu/pkg/srv"
)

// Dispatch parses a single datagram and handles it. The returned error
// tells why the datagram was dropped, the caller is not expected to do
// anything about it.
func (s *DSUServer) Dispatch(data []byte, from *net.UDPAddr) error {
	packet := gopacket.NewPacket(data, layers.DSULayerType, gopacket.Default)
	packet.Metadata().CaptureInfo = gopacket.CaptureInfo{
		Timestamp:     s.clock.Now(),
		CaptureLength: len(data),
		Length:        len(data),
		AncillaryData: []interface{}{from},
	}
	return s.dispatchPacket(packet)
}

func (s *DSUServer) dispatchPacket(packet gopacket.Packet) error {
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return errLayer.Error()
	}
	dsu, ok := packet.Layer(layers.DSULayerType).(*layers.DSULayer)
	if !ok {
		return layers.ErrMalformedPacket{What: "no DSU header"}
	}
	if !dsu.IsRequest() {
		return layers.ErrMalformedPacket{What: "not a client packet"}
	}
	from, err := srv.GetAddrPort(packet)
	if err != nil {
		return err
	}

	switch dsu.Type {
	case layers.MessageTypeVersion:
		log.Debug("Version request ignored: client: %s id: %#08x", from, dsu.ID)
		return nil
	case layers.MessageTypePortInfo:
		request, ok := packet.Layer(layers.PortInfoRequestLayerType).(*layers.PortInfoRequestLayer)
		if !ok {
			return layers.ErrMalformedPacket{What: "no port info request"}
		}
		return s.handlePortInfo(request, from)
	case layers.MessageTypePadData:
		request, ok := packet.Layer(layers.PadDataRequestLayerType).(*layers.PadDataRequestLayer)
		if !ok {
			return layers.ErrMalformedPacket{What: "no pad data request"}
		}
		return s.handlePadData(request, from)
	}
	return layers.ErrUnknownMessage{Type: dsu.Type}
}

// handlePortInfo answers with one placeholder slot description per requested slot
func (s *DSUServer) handlePortInfo(request *layers.PortInfoRequestLayer, from *net.UDPAddr) error {
	log.Debug("Port info request: client: %s slots: %v", from, request.Slots)
	for range request.Slots {
		data, err := serializePacket(s.ServerID(), layers.MessageTypePortInfo, layers.NewPlaceholderPortInfo())
		if err != nil {
			return err
		}
		if !s.Send(srv.OutPacket{Data: data, UDPAddr: from}) {
			log.Debug("Output queue is full, drop port info response to %s", from)
		}
	}
	return nil
}

func (s *DSUServer) handlePadData(request *layers.PadDataRequestLayer, from *net.UDPAddr) error {
	if !s.session.Register(from, request.Flags, request.Slot, request.MAC) {
		return session.ErrInvalidRegistration{Flags: request.Flags, Slot: request.Slot, MAC: request.MAC}
	}
	log.Debug("Pad data registration: client: %s", from)
	return nil
}
