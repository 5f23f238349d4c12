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

package layers

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// PortInfoRequestLayerNum identifies the layer
	PortInfoRequestLayerNum = 2003
	// PortInfoResponseLayerNum identifies the layer
	PortInfoResponseLayerNum = 2004
	// MaxPortInfoSlots is the max number of slots a client may ask about in one request
	MaxPortInfoSlots = 4
	// MaxSlotIndex is the highest slot index accepted in a port info request
	MaxSlotIndex = 4
	PortInfoResponseSize = SlotInfoSize
)

// PortInfoRequestLayer is the list of slots a client wants to know about
type PortInfoRequestLayer struct {
	layers.BaseLayer
	Slots []uint8
}

var PortInfoRequestLayerType = gopacket.RegisterLayerType(PortInfoRequestLayerNum,
	gopacket.LayerTypeMetadata{Name: "PortInfoRequestLayerType", Decoder: gopacket.DecodeFunc(decodePortInfoRequestLayer)})

func (pi *PortInfoRequestLayer) LayerType() gopacket.LayerType {
	return PortInfoRequestLayerType
}

func (pi *PortInfoRequestLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	buf, err := b.AppendBytes(4 + len(pi.Slots))
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(pi.Slots)))
	copy(buf[4:], pi.Slots)
	return nil
}

// DecodeFromBytes decodes the int32 slot count and the slot indices.
// The whole request is rejected if any of them is out of range.
func (pi *PortInfoRequestLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 4 {
		df.SetTruncated()
		return ErrMalformedPacket{What: "port info request too short"}
	}
	count := int32(binary.LittleEndian.Uint32(data[0:4]))
	if count < 0 || count > MaxPortInfoSlots {
		return ErrMalformedPacket{What: fmt.Sprintf("wrong number of requested slots %d", count)}
	}
	if len(data) < 4+int(count) {
		df.SetTruncated()
		return ErrMalformedPacket{What: "port info request too short"}
	}
	pi.Slots = make([]uint8, count)
	for i := range pi.Slots {
		slot := data[4+i]
		if slot > MaxSlotIndex {
			return ErrMalformedPacket{What: fmt.Sprintf("wrong slot index %d", slot)}
		}
		pi.Slots[i] = slot
	}
	pi.BaseLayer = layers.BaseLayer{Contents: data[:4+count], Payload: data[4+count:]}
	return nil
}

func decodePortInfoRequestLayer(data []byte, p gopacket.PacketBuilder) error {
	pi := &PortInfoRequestLayer{}
	err := pi.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(pi)
	return nil
}

// PortInfoResponseLayer describes one slot. This server does not enumerate any devices,
// all responses carry the same placeholder description.
type PortInfoResponseLayer struct {
	layers.BaseLayer
	SlotInfo
}

// NewPlaceholderPortInfo returns the slot description sent for every requested slot:
// slot type 0x00, markers 0x02 0x03 0x01, zero MAC, connection state 0xff, not active
func NewPlaceholderPortInfo() *PortInfoResponseLayer {
	return &PortInfoResponseLayer{
		SlotInfo: SlotInfo{
			Slot:       0x00,
			State:      0x02,
			Model:      0x03,
			Connection: 0x01,
			Battery:    0xff,
			Active:     0x00,
		},
	}
}

var PortInfoResponseLayerType = gopacket.RegisterLayerType(PortInfoResponseLayerNum,
	gopacket.LayerTypeMetadata{Name: "PortInfoResponseLayerType", Decoder: gopacket.DecodeFunc(decodePortInfoResponseLayer)})

func (pi *PortInfoResponseLayer) LayerType() gopacket.LayerType {
	return PortInfoResponseLayerType
}

func (pi *PortInfoResponseLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	buf, err := b.AppendBytes(PortInfoResponseSize)
	if err != nil {
		return err
	}
	pi.SlotInfo.Serialize(buf)
	return nil
}

func (pi *PortInfoResponseLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < PortInfoResponseSize {
		df.SetTruncated()
		return ErrMalformedPacket{What: "port info response too short"}
	}
	pi.SlotInfo = decodeSlotInfo(data)
	pi.BaseLayer = layers.BaseLayer{Contents: data[:PortInfoResponseSize], Payload: data[PortInfoResponseSize:]}
	return nil
}

func decodePortInfoResponseLayer(data []byte, p gopacket.PacketBuilder) error {
	pi := &PortInfoResponseLayer{}
	err := pi.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(pi)
	return nil
}
