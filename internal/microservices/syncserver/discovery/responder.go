// Package discovery answers LAN probes of sales rep devices looking for a
// sync server.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"net"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

const maxDatagram = 2048

type Responder struct {
	conn net.PacketConn
	ann  syncpkg.Announcement
	log  *logger.Logger
}

// Listen binds a UDP socket on addr, e.g. ":41234".
func Listen(addr string, ann syncpkg.Announcement, log *logger.Logger) (*Responder, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}
	ann.Magic = syncpkg.Magic
	return &Responder{conn: conn, ann: ann, log: log}, nil
}

func (r *Responder) Addr() net.Addr { return r.conn.LocalAddr() }

// Serve answers probes until ctx is canceled; the socket is closed on return.
func (r *Responder) Serve(ctx context.Context) error {
	reply, err := json.Marshal(r.ann)
	if err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = r.conn.Close()
	}()

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := r.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		var p syncpkg.Probe
		if err := json.Unmarshal(buf[:n], &p); err != nil || p.Magic != syncpkg.Magic {
			r.log.Debug("discovery_ignored", map[string]any{"from": from.String(), "bytes": n})
			continue
		}
		if _, err := r.conn.WriteTo(reply, from); err != nil {
			r.log.Warn("discovery_reply_failed", map[string]any{"from": from.String(), "error": err.Error()})
			continue
		}
		r.log.Debug("discovery_answered", map[string]any{"from": from.String(), "device_id": p.DeviceID})
	}
}
