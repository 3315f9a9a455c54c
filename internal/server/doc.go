// Package server implements the ambilight UDP server.
//
// The server listens on a single UDP socket (port 52772 by default) and runs
// two loops:
//
//   - the receive loop decodes each datagram and dispatches it: Hello gets a
//     two byte reply to the sender, SetActive moves write access to another
//     device, SendPixels and SetPixel update the pixel buffer when they come
//     from the active device;
//   - the transmit loop snapshots the buffer, encodes it into a pulse train
//     and hands it to the transmitter once per interval.
//
// The pixel buffer is the only state the two loops share.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{
//	    Port:      protocol.DefaultPort,
//	    Broadcast: true,
//	    LEDCount:  60,
//	    Interval:  time.Second,
//	    Timing:    leds.WS2812Timing,
//	    LogLevel:  "info",
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
//
// Start blocks until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then closes the socket, waits for both loops and closes the
// transmitter.
//
// # Optional Services
//
// With MDNS set the server advertises "_ambilight._udp" so clients on
// networks that drop broadcast traffic can still find it. With
// MonitorListen set it serves the monitor endpoints (see package monitor).
package server
