package utils

import (
	"net"
	"net/url"
	"strings"
)

// OriginChecker decides which Origin header values may use the API from a
// browser. Local and private-network origins are always trusted so the
// bundled frontend works out of the box; anything else must be listed
// explicitly via Extra.
type OriginChecker struct {
	extra map[string]struct{}
}

// NewOriginChecker builds a checker that additionally trusts the given
// origins verbatim (scheme included, e.g. "https://cinetile.example.com").
func NewOriginChecker(extra []string) *OriginChecker {
	c := &OriginChecker{extra: make(map[string]struct{}, len(extra))}
	for _, origin := range extra {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			c.extra[origin] = struct{}{}
		}
	}
	return c
}

// Allowed reports whether the Origin header value should be trusted.
// It allows localhost, private/RFC1918 IPs, link-local IPs, .local
// hostnames, single-label hostnames and any explicitly configured origin.
// Other public internet origins are blocked.
func (c *OriginChecker) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if _, ok := c.extra[strings.TrimRight(origin, "/")]; ok {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	hostname := parsed.Hostname()

	if hostname == "localhost" {
		return true
	}

	// .local mDNS hostnames (e.g. mybox.local)
	if strings.HasSuffix(hostname, ".local") {
		return true
	}

	// Single-label hostnames (no dots = LAN names)
	if !strings.Contains(hostname, ".") {
		return true
	}

	if ip := net.ParseIP(hostname); ip != nil {
		return isPrivateIP(ip)
	}

	return false
}

// isPrivateIP returns true for RFC1918, loopback, and link-local addresses.
func isPrivateIP(ip net.IP) bool {
	privateRanges := []struct {
		network *net.IPNet
	}{
		{mustParseCIDR("10.0.0.0/8")},
		{mustParseCIDR("172.16.0.0/12")},
		{mustParseCIDR("192.168.0.0/16")},
		{mustParseCIDR("127.0.0.0/8")},
		{mustParseCIDR("169.254.0.0/16")}, // link-local IPv4
		{mustParseCIDR("::1/128")},        // loopback IPv6
		{mustParseCIDR("fe80::/10")},      // link-local IPv6
		{mustParseCIDR("fc00::/7")},       // unique local IPv6
	}

	for _, r := range privateRanges {
		if r.network.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDR(s string) *net.IPNet {
	_, network, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return network
}
