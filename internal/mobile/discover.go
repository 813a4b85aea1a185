// Package mobile is the sales rep device side of the LAN sync: discovery of
// sync servers, the HTTP client, the local SQLite store and the session that
// creates orders offline and synchronizes them.
package mobile

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"time"

	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

// Discover sends one probe to target (usually the broadcast address and the
// discovery port) and collects the distinct servers answering within wait.
func Discover(ctx context.Context, target, deviceID string, wait time.Duration) ([]syncpkg.Announcement, error) {
	dst, err := net.ResolveUDPAddr("udp4", target)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	probe, err := json.Marshal(syncpkg.Probe{Magic: syncpkg.Magic, DeviceID: deviceID})
	if err != nil {
		return nil, err
	}
	if _, err := conn.WriteTo(probe, dst); err != nil {
		return nil, err
	}

	if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	var (
		found []syncpkg.Announcement
		seen  = map[string]bool{}
		buf   = make([]byte, 2048)
	)
	for {
		n, from, err := conn.ReadFrom(buf)
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return found, nil
		}
		if err != nil {
			return found, err
		}
		var ann syncpkg.Announcement
		if err := json.Unmarshal(buf[:n], &ann); err != nil || ann.Magic != syncpkg.Magic || seen[ann.ServerID] {
			continue
		}
		seen[ann.ServerID] = true
		if udp, ok := from.(*net.UDPAddr); ok {
			ann.Host = udp.IP.String()
		}
		found = append(found, ann)
	}
}
