package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the client address from X-Real-IP, then the first entry
// of X-Forwarded-For, then the connection's remote address.
func ClientIP(r *http.Request) net.IP {
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}

// WithSubnet rejects requests whose client address is outside the CIDR
// subnet. An empty subnet lets every request through.
func WithSubnet(subnet string) (func(next http.Handler) http.Handler, error) {
	if subnet == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	_, ipNet, err := net.ParseCIDR(subnet)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if ip == nil || !ipNet.Contains(ip) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
