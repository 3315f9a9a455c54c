//go:build !unix

package udpsock

import "syscall"

// The runtime's defaults apply on platforms without x/sys/unix.
func control(Options) func(network, address string, c syscall.RawConn) error {
	return nil
}
