package nostr

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrUnsafeAddress is returned when a relay host resolves to an address that
// must not be dialed.
var ErrUnsafeAddress = errors.New("relay address not allowed")

var metadataIP = net.ParseIP("169.254.169.254")

// IsRelayIPSafe reports whether a relay may be dialed at ip. Private,
// link-local, unspecified and multicast addresses are refused. Loopback is
// accepted only when allowLoopback is set.
func IsRelayIPSafe(ip net.IP, allowLoopback bool) bool {
	switch {
	case ip == nil:
		return false
	case ip.IsLoopback():
		return allowLoopback
	case ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsUnspecified(),
		ip.IsMulticast(),
		ip.Equal(metadataIP):
		return false
	}
	return true
}

// SafeDialContext wraps dialer so every resolved address of the target host
// is checked before connecting. The connection goes to the checked address,
// not a second lookup.
func SafeDialContext(dialer *net.Dialer, allowLoopback bool) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, err
		}
		if len(ips) == 0 {
			return nil, fmt.Errorf("%w: %s has no addresses", ErrUnsafeAddress, host)
		}
		for _, ip := range ips {
			if !IsRelayIPSafe(ip.IP, allowLoopback) {
				return nil, fmt.Errorf("%w: %s resolves to %s", ErrUnsafeAddress, host, ip.IP)
			}
		}

		return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].IP.String(), port))
	}
}
