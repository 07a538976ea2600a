// Package netinfo resolves the address clients on the hotspot should use.
package netinfo

import "net"

// LANAddr returns the server's outbound IPv4 on the local network. The UDP
// dial never sends a packet; it only asks the kernel for a route. Falls back
// to 127.0.0.1 when no interface is up.
func LANAddr() string {
	conn, err := net.Dial("udp", "192.168.1.1:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP != nil {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
