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
	// VersionLayerNum identifies the layer
	VersionLayerNum = 2002
	VersionSize     = 4
)

// VersionLayer is the body of a version response: the max protocol version and 2 unused bytes.
// Version requests have no body at all.
type VersionLayer struct {
	layers.BaseLayer
	Version uint16
}

var VersionLayerType = gopacket.RegisterLayerType(VersionLayerNum,
	gopacket.LayerTypeMetadata{Name: "VersionLayerType", Decoder: gopacket.DecodeFunc(decodeVersionLayer)})

func (v *VersionLayer) LayerType() gopacket.LayerType {
	return VersionLayerType
}

func (v *VersionLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	buf, err := b.AppendBytes(VersionSize)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(buf[0:2], v.Version)
	buf[2] = 0
	buf[3] = 0
	return nil
}

func (v *VersionLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 2 {
		df.SetTruncated()
		return ErrMalformedPacket{What: "version response too short"}
	}
	v.BaseLayer = layers.BaseLayer{Contents: data, Payload: []byte{}}
	v.Version = binary.LittleEndian.Uint16(data[0:2])
	return nil
}

func decodeVersionLayer(data []byte, p gopacket.PacketBuilder) error {
	v := &VersionLayer{}
	err := v.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(v)
	return nil
}
