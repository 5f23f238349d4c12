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
	"github.com/google/gopacket"

	"github.com/octopoint/go-dsu/pkg/layers"
)

// serializePacket wraps the message into a server packet with the length
// and the checksum filled in
func serializePacket(serverID uint32, msgType layers.MessageType, message gopacket.SerializableLayer) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	header := &layers.DSULayer{
		DSUHeader: layers.DSUHeader{
			Magic:   layers.MagicServer,
			Version: layers.MaxProtocolVersion,
			ID:      serverID,
		},
		Type: msgType,
	}
	if err := gopacket.SerializeLayers(buf, opts, header, message); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
