package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"tempiaops/internal/apperror"
	"tempiaops/internal/respond"
)

const (
	visitorIdle = 10 * time.Minute
	gcInterval  = 5 * time.Minute
)

type visitor struct {
	limiter *rate.Limiter
	last    time.Time
}

// RateLimiter is a per-IP token bucket.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	trusted  []*net.IPNet
	stop     chan struct{}
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	l := &RateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		stop:     make(chan struct{}),
	}
	go l.gc()
	return l
}

// TrustProxies lists the proxies (CIDRs or single IPs) whose
// X-Forwarded-For header is believed. Requests from anywhere else are keyed
// by their remote address.
func (l *RateLimiter) TrustProxies(proxies ...string) error {
	nets := make([]*net.IPNet, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return fmt.Errorf("invalid trusted proxy %q", p)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			p = fmt.Sprintf("%s/%d", ip.String(), bits)
		}
		_, n, err := net.ParseCIDR(p)
		if err != nil {
			return fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		nets = append(nets, n)
	}
	l.trusted = nets
	return nil
}

func (l *RateLimiter) isTrusted(ip net.IP) bool {
	for _, n := range l.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func (l *RateLimiter) gc() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			for k, v := range l.visitors {
				if time.Since(v.last) > visitorIdle {
					delete(l.visitors, k)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

// Stop ends the background cleanup.
func (l *RateLimiter) Stop() {
	close(l.stop)
}

func (l *RateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.last = time.Now()
	return v.limiter.Allow()
}

func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(l.clientIP(r)) {
			respond.Fail(w, http.StatusTooManyRequests, apperror.CodeUnavailable, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the remote address unless that is a trusted proxy. Then the
// forwarded chain is walked from the right and the first untrusted hop wins.
func (l *RateLimiter) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	remote := net.ParseIP(host)
	if remote == nil || !l.isTrusted(remote) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		ip := net.ParseIP(hop)
		if ip == nil {
			break
		}
		if !l.isTrusted(ip) {
			return hop
		}
	}
	return host
}
