package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_doodleboard._tcp"

// ErrNoStream is returned by Discover when no share server answered.
var ErrNoStream = errors.New("no share stream found")

// Announcement is a share stream found on the local network.
type Announcement struct {
	Instance string
	Addr     string
	Info     []string
}

// Advertise announces a share server listening on port. info is published
// as TXT records. Shut the returned server down to withdraw it.
func Advertise(instance string, port int, info ...string) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	if instance == "" {
		instance = host
	}
	ips := []net.IP{firstIPv4()}

	service, err := mdns.NewMDNSService(instance, serviceType, "", host+".", port, ips, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	log.Info("advertising share stream", "instance", instance, "port", port, "ip", ips[0].String())
	return server, nil
}

// Browse queries the network for share streams for at most timeout and
// calls found for each one with an IPv4 address.
func Browse(ctx context.Context, timeout time.Duration, found func(Announcement)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found(Announcement{
				Instance: strings.TrimSuffix(e.Name, "."+serviceType+".local."),
				Addr:     fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port),
				Info:     e.InfoFields,
			})
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.QueryContext(ctx, params)
	close(entries)
	<-done
	if err != nil {
		return fmt.Errorf("mdns query: %w", err)
	}
	return nil
}

// Discover returns the first share stream that answers within timeout.
func Discover(ctx context.Context, timeout time.Duration) (Announcement, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var first *Announcement
	err := Browse(ctx, timeout, func(a Announcement) {
		if first == nil {
			first = &a
			cancel()
		}
	})
	if first != nil {
		return *first, nil
	}
	if err != nil && ctx.Err() == nil {
		return Announcement{}, err
	}
	return Announcement{}, ErrNoStream
}

func firstIPv4() net.IP {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	return net.IPv4(127, 0, 0, 1)
}
