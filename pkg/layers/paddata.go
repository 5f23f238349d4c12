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

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// PadDataRequestLayerNum identifies the layer
	PadDataRequestLayerNum = 2005
	// PadDataResponseLayerNum identifies the layer
	PadDataResponseLayerNum = 2006
	PadDataRequestSize      = 8
	// PadDataResponseSize is the size of the pad data body, the whole packet is 100 bytes
	PadDataResponseSize = 80
)

type RegistrationFlags uint8

const (
	RegisterBySlot RegistrationFlags = 0x01
	RegisterByMAC  RegistrationFlags = 0x02
)

// Second digital buttons byte: square, cross, circle, triangle, R1, L1, R2, L2 from the high bit
const (
	ButtonSquare   uint8 = 0x80
	ButtonCross    uint8 = 0x40
	ButtonCircle   uint8 = 0x20
	ButtonTriangle uint8 = 0x10
	ButtonR1       uint8 = 0x08
	ButtonL1       uint8 = 0x04
	ButtonR2       uint8 = 0x02
	ButtonL2       uint8 = 0x01
)

// PadDataRequestLayer subscribes the client to pad data reports
type PadDataRequestLayer struct {
	layers.BaseLayer
	Flags RegistrationFlags
	Slot  uint8
	MAC   [6]byte
}

var PadDataRequestLayerType = gopacket.RegisterLayerType(PadDataRequestLayerNum,
	gopacket.LayerTypeMetadata{Name: "PadDataRequestLayerType", Decoder: gopacket.DecodeFunc(decodePadDataRequestLayer)})

func (pd *PadDataRequestLayer) LayerType() gopacket.LayerType {
	return PadDataRequestLayerType
}

func (pd *PadDataRequestLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	buf, err := b.AppendBytes(PadDataRequestSize)
	if err != nil {
		return err
	}
	buf[0] = uint8(pd.Flags)
	buf[1] = pd.Slot
	copy(buf[2:8], pd.MAC[:])
	return nil
}

func (pd *PadDataRequestLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < PadDataRequestSize {
		df.SetTruncated()
		return ErrMalformedPacket{What: "pad data request too short"}
	}
	pd.Flags = RegistrationFlags(data[0])
	pd.Slot = data[1]
	copy(pd.MAC[:], data[2:8])
	pd.BaseLayer = layers.BaseLayer{Contents: data[:PadDataRequestSize], Payload: data[PadDataRequestSize:]}
	return nil
}

func decodePadDataRequestLayer(data []byte, p gopacket.PacketBuilder) error {
	pd := &PadDataRequestLayer{}
	err := pd.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(pd)
	return nil
}

type TouchPoint struct {
	Active uint8
	ID     uint8
	X      uint16
	Y      uint16
}

// PadDataResponseLayer is the motion report
type PadDataResponseLayer struct {
	layers.BaseLayer
	SlotInfo
	PacketCounter uint32
	// Buttons1: left, down, right, up, options, R3, L3, share from the high bit
	Buttons1 uint8
	Buttons2 uint8
	PS       uint8
	Touch    uint8
	// left x, left y, right x, right y
	Sticks [4]uint8
	// analog left, down, right, up
	DPad [4]uint8
	// analog square, cross, circle, triangle
	Face [4]uint8
	// analog R1, L1, R2, L2
	Shoulder    [4]uint8
	TouchPoints [2]TouchPoint
	// Timestamp of the motion data in microseconds
	Timestamp uint64
	// Accel goes to the wire as Y, -Z, X
	Accel Vector3
	Gyro  Vector3
}

// NewPadSlotInfo returns the description of the only emulated pad
func NewPadSlotInfo() SlotInfo {
	return SlotInfo{
		Slot:       0,
		State:      SlotStateConnected,
		Model:      ModelFullGyro,
		Connection: ConnectionUSB,
		MAC:        PlaceholderMAC,
		Battery:    BatteryCharged,
		Active:     1,
	}
}

var PadDataResponseLayerType = gopacket.RegisterLayerType(PadDataResponseLayerNum,
	gopacket.LayerTypeMetadata{Name: "PadDataResponseLayerType", Decoder: gopacket.DecodeFunc(decodePadDataResponseLayer)})

func (pd *PadDataResponseLayer) LayerType() gopacket.LayerType {
	return PadDataResponseLayerType
}

// Serialize writes every field in the wire order, buf must be PadDataResponseSize long
func (pd *PadDataResponseLayer) Serialize(buf []byte) {
	pd.SlotInfo.Serialize(buf[0:12])
	binary.LittleEndian.PutUint32(buf[12:16], pd.PacketCounter)
	buf[16] = pd.Buttons1
	buf[17] = pd.Buttons2
	buf[18] = pd.PS
	buf[19] = pd.Touch
	copy(buf[20:24], pd.Sticks[:])
	copy(buf[24:28], pd.DPad[:])
	copy(buf[28:32], pd.Face[:])
	copy(buf[32:36], pd.Shoulder[:])
	for i, tp := range pd.TouchPoints {
		off := 36 + i*6
		buf[off] = tp.Active
		buf[off+1] = tp.ID
		binary.LittleEndian.PutUint16(buf[off+2:off+4], tp.X)
		binary.LittleEndian.PutUint16(buf[off+4:off+6], tp.Y)
	}
	binary.LittleEndian.PutUint64(buf[48:56], pd.Timestamp)
	putFloat32(buf[56:60], pd.Accel.Y)
	putFloat32(buf[60:64], -pd.Accel.Z)
	putFloat32(buf[64:68], pd.Accel.X)
	putFloat32(buf[68:72], pd.Gyro.X)
	putFloat32(buf[72:76], pd.Gyro.Y)
	putFloat32(buf[76:80], pd.Gyro.Z)
}

func (pd *PadDataResponseLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	buf, err := b.AppendBytes(PadDataResponseSize)
	if err != nil {
		return err
	}
	pd.Serialize(buf)
	return nil
}

func (pd *PadDataResponseLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < PadDataResponseSize {
		df.SetTruncated()
		return ErrMalformedPacket{What: "pad data response too short"}
	}
	pd.SlotInfo = decodeSlotInfo(data[0:12])
	pd.PacketCounter = binary.LittleEndian.Uint32(data[12:16])
	pd.Buttons1 = data[16]
	pd.Buttons2 = data[17]
	pd.PS = data[18]
	pd.Touch = data[19]
	copy(pd.Sticks[:], data[20:24])
	copy(pd.DPad[:], data[24:28])
	copy(pd.Face[:], data[28:32])
	copy(pd.Shoulder[:], data[32:36])
	for i := range pd.TouchPoints {
		off := 36 + i*6
		pd.TouchPoints[i] = TouchPoint{
			Active: data[off],
			ID:     data[off+1],
			X:      binary.LittleEndian.Uint16(data[off+2 : off+4]),
			Y:      binary.LittleEndian.Uint16(data[off+4 : off+6]),
		}
	}
	pd.Timestamp = binary.LittleEndian.Uint64(data[48:56])
	pd.Accel = Vector3{
		X: getFloat32(data[64:68]),
		Y: getFloat32(data[56:60]),
		Z: -getFloat32(data[60:64]),
	}
	pd.Gyro = Vector3{
		X: getFloat32(data[68:72]),
		Y: getFloat32(data[72:76]),
		Z: getFloat32(data[76:80]),
	}
	pd.BaseLayer = layers.BaseLayer{Contents: data[:PadDataResponseSize], Payload: data[PadDataResponseSize:]}
	return nil
}

func decodePadDataResponseLayer(data []byte, p gopacket.PacketBuilder) error {
	pd := &PadDataResponseLayer{}
	err := pd.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(pd)
	return nil
}
