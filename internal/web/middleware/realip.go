package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

type clientIPKey struct{}

// TrustedRealIP resolves the client address of each request and stores it
// for ClientIP. Proxy headers count only when the connection comes from one
// of trustedCIDRs; entries may be CIDRs or single addresses.
//
// X-Real-IP wins when present. Otherwise X-Forwarded-For is walked from the
// right and the first hop that is not a trusted proxy is the client, so a
// client cannot pick its own address by prepending entries. For proxied
// requests RemoteAddr is rewritten to the bare client IP.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	trusted := parseTrusted(trustedCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remote := hostAddr(r.RemoteAddr)
			client := remote
			if isTrusted(remote, trusted) {
				if ip, ok := forwardedFor(r.Header, trusted); ok {
					client = ip
					r.RemoteAddr = ip.String()
				}
			}
			if client.IsValid() {
				r = r.WithContext(context.WithValue(r.Context(), clientIPKey{}, client))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the address TrustedRealIP resolved, falling back to the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(netip.Addr); ok {
		return ip.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func parseTrusted(cidrs []string) []netip.Prefix {
	var out []netip.Prefix
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if p, err := netip.ParsePrefix(cidr); err == nil {
			out = append(out, p.Masked())
			continue
		}
		ip, err := netip.ParseAddr(cidr)
		if err != nil {
			slog.Warn("realip: invalid trusted proxy, skipping", "cidr", cidr, "error", err)
			continue
		}
		ip = ip.Unmap()
		out = append(out, netip.PrefixFrom(ip, ip.BitLen()))
	}
	return out
}

func forwardedFor(h http.Header, trusted []netip.Prefix) (netip.Addr, bool) {
	if rip := h.Get("X-Real-IP"); rip != "" {
		ip, err := netip.ParseAddr(strings.TrimSpace(rip))
		return ip.Unmap(), err == nil
	}

	hops := strings.Split(strings.Join(h.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		ip, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			return netip.Addr{}, false
		}
		ip = ip.Unmap()
		if !isTrusted(ip, trusted) {
			return ip, true
		}
	}
	return netip.Addr{}, false
}

// hostAddr parses a host:port string or a bare address.
func hostAddr(addr string) netip.Addr {
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return ap.Addr().Unmap()
	}
	ip, _ := netip.ParseAddr(addr)
	return ip.Unmap()
}

func isTrusted(ip netip.Addr, trusted []netip.Prefix) bool {
	if !ip.IsValid() {
		return false
	}
	for _, p := range trusted {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
