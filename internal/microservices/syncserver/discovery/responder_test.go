package discovery

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestResponder(t *testing.T) {
	log := logger.NewWithCore("test", zapcore.NewNopCore())
	r, err := Listen("127.0.0.1:0", syncpkg.Announcement{ServerID: "srv", Name: "office", HTTPPort: 3100, Version: "1.0"}, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.WriteTo([]byte("hello"), r.Addr())
	require.NoError(t, err)
	probe, _ := json.Marshal(syncpkg.Probe{Magic: syncpkg.Magic, DeviceID: "d1"})
	_, err = conn.WriteTo(probe, r.Addr())
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, maxDatagram)
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)

	var ann syncpkg.Announcement
	require.NoError(t, json.Unmarshal(buf[:n], &ann))
	assert.Equal(t, syncpkg.Magic, ann.Magic)
	assert.Equal(t, "srv", ann.ServerID)
	assert.Equal(t, 3100, ann.HTTPPort)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = conn.ReadFrom(buf)
	assert.Error(t, err, "garbage must not be answered")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("responder did not stop")
	}
}
