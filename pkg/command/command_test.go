package command

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octopoint/go-dsu/pkg/capture"
	"github.com/octopoint/go-dsu/pkg/config"
	"github.com/octopoint/go-dsu/pkg/layers"
	"github.com/octopoint/go-dsu/pkg/motion"
	"github.com/octopoint/go-dsu/pkg/srv/dsu"
)

func clientFor(t *testing.T, server *httptest.Server) *ApiClient {
	t.Helper()
	host, port, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	cfg := config.NewDefaultConfig()
	cfg.ApiIP = host
	cfg.ApiPort, err = strconv.Atoi(port)
	require.NoError(t, err)
	return NewApiClient(cfg)
}

func TestApiClientStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status", r.URL.Path)
		json.NewEncoder(w).Encode(&dsu.Status{State: "listening", PacketCounter: 7})
	}))
	defer server.Close()

	status, err := clientFor(t, server).Status()
	require.NoError(t, err)
	assert.Equal(t, "listening", status.State)
	assert.Equal(t, uint32(7), status.PacketCounter)
}

func TestApiClientSendMotion(t *testing.T) {
	var got motion.Sample
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/motion", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"code":200}`))
	}))
	defer server.Close()

	sample := motion.Sample{Rotation: layers.Vector3{X: 1, Y: 2, Z: 3}, Right: true}
	require.NoError(t, clientFor(t, server).SendMotion(sample))
	assert.Equal(t, sample, got)
}

func TestApiClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer server.Close()

	c := clientFor(t, server)
	_, err := c.Status()
	assert.Error(t, err)
	_, err = c.Session()
	assert.Error(t, err)
	assert.Error(t, c.SendMotion(motion.Sample{}))
}

func TestDumpCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.db")
	recorder, err := capture.Open(path)
	require.NoError(t, err)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts,
		&layers.DSULayer{
			DSUHeader: layers.DSUHeader{Magic: layers.MagicClient, Version: layers.MaxProtocolVersion},
			Type:      layers.MessageTypePadData,
		},
		&layers.PadDataRequestLayer{},
	))
	require.NoError(t, recorder.Record(capture.Inbound, "127.0.0.1:40000", buf.Bytes(), time.Now()))
	require.NoError(t, recorder.Close())

	out := &bytes.Buffer{}
	require.NoError(t, DumpCapture(path, true, out))
	assert.Contains(t, out.String(), "127.0.0.1:40000")
	assert.Contains(t, out.String(), "PadDataRequestLayerType")

	out.Reset()
	require.NoError(t, DumpCapture(path, false, out))
	assert.Contains(t, out.String(), "direction: in")
}
