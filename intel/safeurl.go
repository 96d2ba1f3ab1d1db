package intel

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// ErrUnsafeURL is returned for feed URLs that are not plain http(s) or that
// point at a private, loopback or link-local address.
var ErrUnsafeURL = errors.New("unsafe feed url")

var privatePrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("fc00::/7"),
}

// ValidateURL rejects non-http(s) URLs and hosts that resolve to private
// addresses. Unresolvable hosts pass; the fetch fails on its own.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: scheme %q", ErrUnsafeURL, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: no host", ErrUnsafeURL)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return checkAddr(host, addr)
	}
	addrs, err := net.LookupHost(host)
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if addr, err := netip.ParseAddr(a); err == nil {
			if err := checkAddr(host, addr); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkAddr(host string, addr netip.Addr) error {
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() || addr.IsUnspecified() {
		return fmt.Errorf("%w: %s is not public", ErrUnsafeURL, host)
	}
	for _, p := range privatePrefixes {
		if p.Contains(addr) {
			return fmt.Errorf("%w: %s is not public", ErrUnsafeURL, host)
		}
	}
	return nil
}
