package net

import (
	"net"
	"strconv"
)

// OutgoingIP finds the local address other machines on the network would
// reach this host at. It is used to print a share link.
func OutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return localIPFallback()
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// localIPFallback is used on networks without internet access.
func localIPFallback() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.Warn("listing interface addresses failed", "err", err)
		return "127.0.0.1"
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	log.Warn("no suitable local IP found, share link may not be reachable")
	return "127.0.0.1"
}

// ShareLink returns the address viewers pass to watch for a server bound to
// port.
func ShareLink(port int) string {
	return net.JoinHostPort(OutgoingIP(), strconv.Itoa(port))
}
