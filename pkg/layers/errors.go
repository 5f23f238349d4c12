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
	"fmt"
)

// ErrMalformedPacket returned when a datagram does not look like a DSU packet
type ErrMalformedPacket struct {
	What string
}

func (e ErrMalformedPacket) Error() string {
	return fmt.Sprintf("Malformed DSU packet: %s", e.What)
}

// ErrChecksumMismatch returned when the CRC32 field does not match the packet contents
type ErrChecksumMismatch struct {
	Got  uint32
	Want uint32
}

func (e ErrChecksumMismatch) Error() string {
	return fmt.Sprintf("DSU checksum mismatch: got 0x%08x want 0x%08x", e.Got, e.Want)
}

// ErrUnknownMessage returned when the message type is not one of version/port info/pad data
type ErrUnknownMessage struct {
	Type MessageType
}

func (e ErrUnknownMessage) Error() string {
	return fmt.Sprintf("Unknown DSU message type 0x%06x", uint32(e.Type))
}
