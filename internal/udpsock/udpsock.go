// Package udpsock opens UDP sockets with the options the ambilight protocol
// relies on: address reuse so a restarted server can rebind at once, and
// broadcast so Hello probes can reach every server on the segment.
package udpsock

import (
	"context"
	"fmt"
	"net"
)

// Options selects socket options to set before bind.
type Options struct {
	ReuseAddr bool
	Broadcast bool
}

// Listen binds a UDP socket on addr ("host:port", port 0 for ephemeral).
func Listen(ctx context.Context, addr string, opts Options) (net.PacketConn, error) {
	lc := net.ListenConfig{Control: control(opts)}
	conn, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP socket on %s: %w", addr, err)
	}
	return conn, nil
}
