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

	"github.com/google/gopacket"
)

type MessageType uint32

const (
	MessageTypeVersion  MessageType = 0x100000
	MessageTypePortInfo MessageType = 0x100001
	MessageTypePadData  MessageType = 0x100002
)

// requests and responses share message type codes, the magic tells them apart
var requestLayerTypes = map[MessageType]gopacket.LayerType{}
var responseLayerTypes = map[MessageType]gopacket.LayerType{}

func init() {
	requestLayerTypes[MessageTypePortInfo] = PortInfoRequestLayerType
	requestLayerTypes[MessageTypePadData] = PadDataRequestLayerType
	responseLayerTypes[MessageTypeVersion] = VersionLayerType
	responseLayerTypes[MessageTypePortInfo] = PortInfoResponseLayerType
	responseLayerTypes[MessageTypePadData] = PadDataResponseLayerType
}

// LayerType returns the layer type of the message body.
// Version requests have no body, unknown messages are decoded as raw payload.
func (t MessageType) LayerType(request bool) gopacket.LayerType {
	lt, ok := responseLayerTypes[t]
	if request {
		lt, ok = requestLayerTypes[t]
	}
	if !ok {
		return gopacket.LayerTypePayload
	}
	return lt
}

func (t MessageType) String() string {
	switch t {
	case MessageTypeVersion:
		return "Version"
	case MessageTypePortInfo:
		return "PortInfo"
	case MessageTypePadData:
		return "PadData"
	}
	return fmt.Sprintf("Unknown(0x%06x)", uint32(t))
}
