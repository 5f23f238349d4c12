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
	"math"
)

const (
	SlotInfoSize = 12

	SlotStateConnected uint8 = 0x02
	ModelFullGyro      uint8 = 0x02
	ConnectionUSB      uint8 = 0x01
	BatteryCharged     uint8 = 0xef
)

// PlaceholderMAC is the only MAC address the server reports, 00:00:00:00:00:ff
var PlaceholderMAC = [6]byte{0, 0, 0, 0, 0, 0xff}

// SlotInfo is the 12 byte slot description that starts both port info
// and pad data responses
type SlotInfo struct {
	Slot       uint8
	State      uint8
	Model      uint8
	Connection uint8
	MAC        [6]byte
	Battery    uint8
	Active     uint8
}

func (si *SlotInfo) Serialize(buf []byte) {
	buf[0] = si.Slot
	buf[1] = si.State
	buf[2] = si.Model
	buf[3] = si.Connection
	copy(buf[4:10], si.MAC[:])
	buf[10] = si.Battery
	buf[11] = si.Active
}

func decodeSlotInfo(buf []byte) SlotInfo {
	si := SlotInfo{
		Slot:       buf[0],
		State:      buf[1],
		Model:      buf[2],
		Connection: buf[3],
		Battery:    buf[10],
		Active:     buf[11],
	}
	copy(si.MAC[:], buf[4:10])
	return si
}

// Vector3 is a float triple as it goes to the wire: 3 little endian float32
type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func putFloat32(buf []byte, f float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
}

func getFloat32(buf []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf))
}
