// Package discovery finds ambilight servers over mDNS and advertises them.
//
// Servers register a "_ambilight._udp" service carrying their UDP port and
// TXT records:
//
//	id=<server instance uuid>
//	leds=<strip length>
//	version=<build version>
//
// Clients browse for the service type and turn each answer into a Server.
// mDNS is an alternative to the protocol's own broadcast Hello, useful on
// networks that filter broadcast traffic.
//
// # Usage Example
//
//	servers, err := discovery.Scan(ctx, 3*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, s := range servers {
//	    fmt.Println(s)
//	}
package discovery
