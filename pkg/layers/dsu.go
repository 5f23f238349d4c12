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
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// DSULayerNum identifies the layer
	DSULayerNum = 2001
	// HeaderSize is the size of the DSU header: magic, version, length, crc32, id
	HeaderSize = 16
	// MessageTypeSize is the size of the message type that follows the header.
	// It is counted in the header length field.
	MessageTypeSize = 4
	// ChecksumOffset is the offset of the crc32 field. The checksum is calculated
	// over the whole packet with these 4 bytes set to zero.
	ChecksumOffset = 8
	// MaxProtocolVersion is the highest protocol version the server understands
	MaxProtocolVersion uint16 = 1001
)

var (
	// MagicClient starts every packet sent by a client
	MagicClient = [4]byte{'D', 'S', 'U', 'C'}
	// MagicServer starts every packet sent by a server
	MagicServer = [4]byte{'D', 'S', 'U', 'S'}
)

type DSUHeader struct {
	Magic    [4]byte
	Version  uint16
	Length   uint16 // number of bytes after the header, message type included
	Checksum uint32
	ID       uint32 // server id for DSUS packets, client id for DSUC packets
}

type DSULayer struct {
	layers.BaseLayer
	DSUHeader
	Type MessageType
}

var DSULayerType = gopacket.RegisterLayerType(DSULayerNum,
	gopacket.LayerTypeMetadata{Name: "DSULayerType", Decoder: gopacket.DecodeFunc(decodeDSULayer)})

// LayerType returns the type of the DSU layer in the layer catalog
func (d *DSULayer) LayerType() gopacket.LayerType {
	return DSULayerType
}

func (d *DSULayer) NextLayerType() gopacket.LayerType {
	return d.Type.LayerType(d.Magic == MagicClient)
}

// IsRequest is true for packets sent by a client
func (d *DSULayer) IsRequest() bool {
	return d.Magic == MagicClient
}

func putHeader(buf []byte, h *DSUHeader) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Length)
	binary.LittleEndian.PutUint32(buf[8:12], h.Checksum)
	binary.LittleEndian.PutUint32(buf[12:16], h.ID)
}

// EncodeHeader returns a server header with the checksum field set to zero.
// The checksum is filled in by FinalizeChecksum once the payload is written.
func EncodeHeader(version, payloadLen uint16, serverID uint32) []byte {
	buf := make([]byte, HeaderSize)
	putHeader(buf, &DSUHeader{
		Magic:   MagicServer,
		Version: version,
		Length:  payloadLen,
		ID:      serverID,
	})
	return buf
}

func checksum(packet []byte) uint32 {
	// crc32 over the packet with the checksum field zeroed, without
	// touching the caller's bytes
	h := crc32.NewIEEE()
	h.Write(packet[:ChecksumOffset])
	h.Write([]byte{0, 0, 0, 0})
	h.Write(packet[ChecksumOffset+4:])
	return h.Sum32()
}

// FinalizeChecksum zeroes the checksum field, calculates crc32 over the whole packet
// and writes the result back. Must be called after the payload is in place.
func FinalizeChecksum(packet []byte) uint32 {
	binary.LittleEndian.PutUint32(packet[ChecksumOffset:ChecksumOffset+4], 0)
	sum := crc32.ChecksumIEEE(packet)
	binary.LittleEndian.PutUint32(packet[ChecksumOffset:ChecksumOffset+4], sum)
	return sum
}

// VerifyChecksum compares the checksum field with the crc32 of the packet
func VerifyChecksum(packet []byte) bool {
	if len(packet) < HeaderSize {
		return false
	}
	return binary.LittleEndian.Uint32(packet[ChecksumOffset:ChecksumOffset+4]) == checksum(packet)
}

// DecodeHeader decodes the header of a client packet. It returns the packet cut
// to the length declared in the header.
func DecodeHeader(data []byte) (*DSUHeader, []byte, error) {
	return decodeHeader(data, MagicClient)
}

// DecodeServerHeader is the same as DecodeHeader but for packets sent by a server
func DecodeServerHeader(data []byte) (*DSUHeader, []byte, error) {
	return decodeHeader(data, MagicServer)
}

func decodeHeader(data []byte, magic [4]byte) (*DSUHeader, []byte, error) {
	if len(data) < HeaderSize {
		return nil, nil, ErrMalformedPacket{What: fmt.Sprintf("packet too short: %d bytes", len(data))}
	}
	if !bytes.Equal(data[0:4], magic[:]) {
		return nil, nil, ErrMalformedPacket{What: fmt.Sprintf("wrong magic %q", data[0:4])}
	}
	h := &DSUHeader{
		Magic:    magic,
		Version:  binary.LittleEndian.Uint16(data[4:6]),
		Length:   binary.LittleEndian.Uint16(data[6:8]),
		Checksum: binary.LittleEndian.Uint32(data[8:12]),
		ID:       binary.LittleEndian.Uint32(data[12:16]),
	}
	if h.Version > MaxProtocolVersion {
		return nil, nil, ErrMalformedPacket{What: fmt.Sprintf("unsupported protocol version %d", h.Version)}
	}
	size := HeaderSize + int(h.Length)
	if size > len(data) {
		return nil, nil, ErrMalformedPacket{What: fmt.Sprintf("declared length %d exceeds %d received bytes", size, len(data))}
	}
	return h, data[:size], nil
}

// DecodeFromBytes attempts to decode the byte slice as a DSU packet.
// Trailing bytes beyond the declared length are ignored.
func (d *DSULayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	var h *DSUHeader
	var packet []byte
	var err error
	if len(data) >= 4 && bytes.Equal(data[0:4], MagicServer[:]) {
		h, packet, err = DecodeServerHeader(data)
	} else {
		h, packet, err = DecodeHeader(data)
	}
	if err != nil {
		df.SetTruncated()
		return err
	}
	if !VerifyChecksum(packet) {
		return ErrChecksumMismatch{Got: h.Checksum, Want: checksum(packet)}
	}
	if h.Length < MessageTypeSize {
		df.SetTruncated()
		return ErrMalformedPacket{What: "no message type"}
	}

	d.DSUHeader = *h
	d.Type = MessageType(binary.LittleEndian.Uint32(packet[HeaderSize : HeaderSize+MessageTypeSize]))
	d.BaseLayer = layers.BaseLayer{
		Contents: packet[:HeaderSize+MessageTypeSize],
		Payload:  packet[HeaderSize+MessageTypeSize:],
	}
	return nil
}

// SerializeTo prepends the header and the message type to the already serialized message.
// DSULayer must be the first layer passed to gopacket.SerializeLayers since with
// ComputeChecksums set the crc32 is calculated over everything in the buffer.
func (d *DSULayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	messageLen := len(b.Bytes())
	buf, err := b.PrependBytes(HeaderSize + MessageTypeSize)
	if err != nil {
		return err
	}
	if d.Magic == [4]byte{} {
		d.Magic = MagicServer
	}
	if opts.FixLengths {
		d.Length = uint16(MessageTypeSize + messageLen)
	}
	if opts.ComputeChecksums {
		d.Checksum = 0
	}
	putHeader(buf[:HeaderSize], &d.DSUHeader)
	binary.LittleEndian.PutUint32(buf[HeaderSize:HeaderSize+MessageTypeSize], uint32(d.Type))
	if opts.ComputeChecksums {
		d.Checksum = FinalizeChecksum(b.Bytes())
	}
	return nil
}

func decodeDSULayer(data []byte, p gopacket.PacketBuilder) error {
	d := &DSULayer{}
	err := d.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(d)
	return p.NextDecoder(d.NextLayerType())
}
