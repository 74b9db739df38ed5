package http

import (
	"net"
	"net/http"
	"strings"
)

// ClientIPExtractor resolves the real client address of a request.
// Forwarding headers are honored only when the direct peer is inside a
// trusted proxy range, so clients cannot spoof their source IP by
// setting X-Forwarded-For themselves.
type ClientIPExtractor struct {
	trusted []*net.IPNet
}

// NewClientIPExtractor parses the trusted proxy CIDR list. Invalid
// entries are skipped.
func NewClientIPExtractor(trustedCIDRs []string) *ClientIPExtractor {
	e := &ClientIPExtractor{}
	for _, cidr := range trustedCIDRs {
		if _, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr)); err == nil {
			e.trusted = append(e.trusted, ipNet)
		}
	}
	return e
}

// FromRequest returns the client IP: the first valid X-Forwarded-For or
// X-Real-IP entry when the peer is a trusted proxy, otherwise the
// peer address itself.
func (e *ClientIPExtractor) FromRequest(r *http.Request) string {
	remoteIP := remoteAddr(r)

	if e != nil && e.isTrusted(remoteIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			for _, part := range strings.Split(xff, ",") {
				candidate := strings.TrimSpace(part)
				if net.ParseIP(candidate) != nil {
					return candidate
				}
			}
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return remoteIP
}

func (e *ClientIPExtractor) isTrusted(ip string) bool {
	if e == nil || len(e.trusted) == 0 {
		return false
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	for _, ipNet := range e.trusted {
		if ipNet.Contains(parsed) {
			return true
		}
	}
	return false
}

func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
