package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ParseTrustedProxies parses CIDRs or bare addresses ("10.0.0.0/8",
// "127.0.0.1"). Blank entries are ignored.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q is neither a CIDR nor an IP", e)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// TrustedRealIP rewrites r.RemoteAddr to the client address reported by a
// proxy, but only when the connection itself comes from a trusted proxy.
// Everyone else gets their connection address, so clients cannot dodge
// the rate limiter by sending their own X-Real-IP.
//
// X-Real-IP wins over X-Forwarded-For. In X-Forwarded-For the right-most
// address that is not itself a trusted proxy is taken as the client.
// After this middleware RemoteAddr holds a bare IP, without port.
func TrustedRealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remote, ok := parseAddr(r.RemoteAddr)
			if ok {
				client := remote
				if isTrusted(remote, trusted) {
					if ip, ok := fromHeaders(r, trusted); ok {
						client = ip
					}
				}
				r.RemoteAddr = client.String()
			}
			next.ServeHTTP(w, r)
		})
	}
}

func fromHeaders(r *http.Request, trusted []netip.Prefix) (netip.Addr, bool) {
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		if ip, ok := parseAddr(rip); ok {
			return ip, true
		}
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		ip, ok := parseAddr(hops[i])
		if !ok {
			return netip.Addr{}, false
		}
		if !isTrusted(ip, trusted) {
			return ip, true
		}
	}
	return netip.Addr{}, false
}

// parseAddr accepts "ip" or "ip:port", with or without surrounding spaces.
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

func isTrusted(ip netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
