package dsu

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octopoint/go-dsu/pkg/config"
	"github.com/octopoint/go-dsu/pkg/layers"
	"github.com/octopoint/go-dsu/pkg/motion"
	"github.com/octopoint/go-dsu/pkg/session"
	"github.com/octopoint/go-dsu/pkg/srv"
)

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Port = 0
	cfg.ApiPort = 0
	// keep the motion driver quiet, tests publish by hand
	cfg.MotionInterval = "1h"
	return cfg
}

func newTestServer(t *testing.T) (*DSUServer, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewDSUServer(ctx, testConfig())
	require.NoError(t, err)
	return s, cancel
}

func request(t *testing.T, msgType layers.MessageType, body gopacket.SerializableLayer) []byte {
	t.Helper()
	header := &layers.DSULayer{
		DSUHeader: layers.DSUHeader{Magic: layers.MagicClient, Version: layers.MaxProtocolVersion, ID: 0xc0ffee},
		Type:      msgType,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if body == nil {
		body = gopacket.Payload{}
	}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, header, body))
	out := make([]byte, len(buf.Bytes()))
	copy(out, buf.Bytes())
	return out
}

func drain(s *DSUServer) []srv.OutPacket {
	var out []srv.OutPacket
	for {
		select {
		case p := <-s.ChOut:
			out = append(out, p)
		default:
			return out
		}
	}
}

func TestDispatchPadDataRegisters(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	data := request(t, layers.MessageTypePadData, &layers.PadDataRequestLayer{})
	require.NoError(t, s.Dispatch(data, testClient))
	assert.Equal(t, testClient.String(), s.Session().CurrentEndpoint().String())
	assert.Empty(t, drain(s))
}

func TestDispatchFilteredRegistration(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	data := request(t, layers.MessageTypePadData, &layers.PadDataRequestLayer{Flags: layers.RegisterBySlot, Slot: 1})
	err := s.Dispatch(data, testClient)
	var invalid session.ErrInvalidRegistration
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, uint8(1), invalid.Slot)
	assert.Nil(t, s.Session().CurrentEndpoint())
}

func TestDispatchTruncatesTrailingBytes(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	data := request(t, layers.MessageTypePadData, &layers.PadDataRequestLayer{})
	data = append(data, 0xde, 0xad, 0xbe, 0xef)
	require.NoError(t, s.Dispatch(data, testClient))
	assert.NotNil(t, s.Session().CurrentEndpoint())
}

func TestDispatchPortInfo(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	data := request(t, layers.MessageTypePortInfo, &layers.PortInfoRequestLayer{Slots: []uint8{0, 1}})
	require.NoError(t, s.Dispatch(data, testClient))

	out := drain(s)
	require.Len(t, out, 2)
	for _, p := range out {
		assert.Equal(t, testClient.String(), p.UDPAddr.String())
		require.Len(t, p.Data, 32)
		packet := gopacket.NewPacket(p.Data, layers.DSULayerType, gopacket.Default)
		require.Nil(t, packet.ErrorLayer())
		info, ok := packet.Layer(layers.PortInfoResponseLayerType).(*layers.PortInfoResponseLayer)
		require.True(t, ok)
		assert.Equal(t, uint8(0xff), info.Battery)
		assert.Equal(t, uint8(0x00), info.Active)
		assert.Equal(t, []byte{0x00, 0x02, 0x03, 0x01}, p.Data[20:24])
	}
	assert.Nil(t, s.Session().CurrentEndpoint())
}

func TestDispatchDrops(t *testing.T) {
	valid := request(t, layers.MessageTypePadData, &layers.PadDataRequestLayer{})
	badChecksum := append([]byte{}, valid...)
	badChecksum[len(badChecksum)-1] ^= 0x01
	badMagic := append([]byte{}, valid...)
	copy(badMagic[0:4], "DSUS")
	badVersion := request(t, layers.MessageTypePadData, &layers.PadDataRequestLayer{})
	badVersion[4] = 0xea // 1002
	truncated := valid[:len(valid)-3]

	tests := []struct {
		name string
		data []byte
	}{
		{"noise", []byte("hello")},
		{"empty", []byte{}},
		{"bad checksum", badChecksum},
		{"server magic", badMagic},
		{"unsupported version", badVersion},
		{"truncated", truncated},
		{"port info slot out of range", request(t, layers.MessageTypePortInfo, &layers.PortInfoRequestLayer{Slots: []uint8{5}})},
		{"port info too many slots", request(t, layers.MessageTypePortInfo, &layers.PortInfoRequestLayer{Slots: []uint8{0, 1, 2, 3, 4}})},
		{"unknown message", request(t, layers.MessageType(0x100003), gopacket.Payload{1, 2, 3, 4})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, cancel := newTestServer(t)
			defer cancel()
			assert.Error(t, s.Dispatch(tt.data, testClient))
			assert.Empty(t, drain(s))
			assert.Nil(t, s.Session().CurrentEndpoint())
		})
	}
}

func TestDispatchVersionIgnored(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	require.NoError(t, s.Dispatch(request(t, layers.MessageTypeVersion, nil), testClient))
	assert.Empty(t, drain(s))
}

func TestStartStop(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	assert.Equal(t, StateStopped, s.State())
	require.NoError(t, s.Start())
	assert.Equal(t, StateListening, s.State())
	first := s.LocalAddr()
	require.NotNil(t, first)
	assert.Equal(t, s.ServerID(), s.Publisher().serverID)

	// restart closes the old socket and binds a new one
	require.NoError(t, s.Start())
	assert.Equal(t, StateListening, s.State())
	require.NotNil(t, s.LocalAddr())

	require.NoError(t, s.Stop())
	assert.Equal(t, StateStopped, s.State())
	assert.Nil(t, s.LocalAddr())
	assert.Equal(t, "stopped", s.Status().State)
}

func TestBindFailure(t *testing.T) {
	busy, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer busy.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := testConfig()
	cfg.Port = busy.LocalAddr().(*net.UDPAddr).Port
	s, err := NewDSUServer(ctx, cfg)
	require.NoError(t, err)

	err = s.Start()
	var bindErr srv.ErrBind
	require.True(t, errors.As(err, &bindErr))
	assert.Equal(t, StateStopped, s.State())
	assert.Nil(t, s.LocalAddr())
}

func runTestServer(t *testing.T) (*DSUServer, *net.UDPConn, func()) {
	t.Helper()
	s, cancel := newTestServer(t)
	done := make(chan error, 1)
	go func() {
		done <- s.Run()
	}()
	require.Eventually(t, func() bool {
		return s.State() == StateListening && s.LocalAddr() != nil
	}, time.Second, 5*time.Millisecond)

	client, err := net.DialUDP("udp", nil, s.LocalAddr())
	require.NoError(t, err)
	return s, client, func() {
		client.Close()
		cancel()
		assert.NoError(t, <-done)
		assert.Equal(t, StateStopped, s.State())
	}
}

func readPacket(t *testing.T, client *net.UDPConn) gopacket.Packet {
	t.Helper()
	buf := make([]byte, 2048)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := client.Read(buf)
	require.NoError(t, err)
	packet := gopacket.NewPacket(buf[:n], layers.DSULayerType, gopacket.Default)
	require.Nil(t, packet.ErrorLayer())
	return packet
}

func TestEndToEnd(t *testing.T) {
	s, client, stop := runTestServer(t)
	defer stop()

	_, err := client.Write(request(t, layers.MessageTypePadData, &layers.PadDataRequestLayer{}))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return s.Session().CurrentEndpoint() != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, client.LocalAddr().String(), s.Session().CurrentEndpoint().String())

	require.True(t, s.Publisher().Publish(motion.Sample{Rotation: layers.Vector3{X: 1, Y: 2, Z: 3}, Left: true}))

	packet := readPacket(t, client)
	dsu := packet.Layer(layers.DSULayerType).(*layers.DSULayer)
	assert.Equal(t, layers.MagicServer, dsu.Magic)
	assert.Equal(t, s.ServerID(), dsu.ID)
	report, ok := packet.Layer(layers.PadDataResponseLayerType).(*layers.PadDataResponseLayer)
	require.True(t, ok)
	assert.Equal(t, layers.Vector3{X: 1, Y: 2, Z: 3}, report.Gyro)
	assert.NotZero(t, report.Buttons2&0x80)
	assert.Zero(t, report.Buttons2&0x40)
	assert.Equal(t, uint32(0), report.PacketCounter)
}

func TestEndToEndPortInfo(t *testing.T) {
	_, client, stop := runTestServer(t)
	defer stop()

	_, err := client.Write(request(t, layers.MessageTypePortInfo, &layers.PortInfoRequestLayer{Slots: []uint8{0, 3}}))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		packet := readPacket(t, client)
		info, ok := packet.Layer(layers.PortInfoResponseLayerType).(*layers.PortInfoResponseLayer)
		require.True(t, ok)
		assert.Equal(t, uint8(0xff), info.Battery)
		assert.Equal(t, uint8(0x00), info.Active)
	}

	buf := make([]byte, 2048)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, err = client.Read(buf)
	assert.Error(t, err)
}

func TestEndToEndMalformedDoesNotStopServer(t *testing.T) {
	s, client, stop := runTestServer(t)
	defer stop()

	for _, noise := range [][]byte{[]byte("DSUC"), []byte("garbage"), make([]byte, 100)} {
		_, err := client.Write(noise)
		require.NoError(t, err)
	}
	_, err := client.Write(request(t, layers.MessageTypePadData, &layers.PadDataRequestLayer{}))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return s.Session().CurrentEndpoint() != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateListening, s.State())
}
