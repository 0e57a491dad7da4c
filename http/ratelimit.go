package http

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiters holds one token bucket per host so a burst of concurrent
// fetches cannot overwhelm a single mirror instance or endpoint.
type hostLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

func newHostLimiters(rps float64, burst int) *hostLimiters {
	if burst < 1 {
		burst = 1
	}
	return &hostLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

// wait blocks until the host's bucket has a token or ctx is done. A zero or
// negative rate disables limiting.
func (h *hostLimiters) wait(ctx context.Context, rawURL string) error {
	if h.rps <= 0 {
		return nil
	}
	return h.limiter(extractHost(rawURL)).Wait(ctx)
}

func (h *hostLimiters) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(h.rps), h.burst)
		h.limiters[host] = l
	}
	return l
}

func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
