package rest

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

const limiterSweepInterval = time.Minute

// RateLimiter throttles requests per client address.
type RateLimiter struct {
	logger            *slog.Logger
	requestsPerSecond float64
	burst             int

	mu        sync.Mutex
	clients   map[string]*rate.Limiter
	lastSweep time.Time
}

// NewRateLimiter returns nil when requestsPerSecond is not positive; a nil
// limiter lets every request through.
func NewRateLimiter(logger *slog.Logger, requestsPerSecond float64, burst int) *RateLimiter {
	if requestsPerSecond <= 0 {
		return nil
	}

	return &RateLimiter{
		logger:            logger,
		requestsPerSecond: requestsPerSecond,
		burst:             max(1, burst),
		clients:           make(map[string]*rate.Limiter),
		lastSweep:         time.Now(),
	}
}

func (that *RateLimiter) limiter(ip string) *rate.Limiter {
	that.mu.Lock()
	defer that.mu.Unlock()

	now := time.Now()
	if now.Sub(that.lastSweep) > limiterSweepInterval {
		// a full bucket means the client has been idle
		for client, limiter := range that.clients {
			if limiter.TokensAt(now) >= float64(that.burst) {
				delete(that.clients, client)
			}
		}
		that.lastSweep = now
	}

	limiter, ok := that.clients[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(that.requestsPerSecond), that.burst)
		that.clients[ip] = limiter
	}

	return limiter
}

func (that *RateLimiter) Middleware(next http.Handler) http.Handler {
	if that == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if !that.limiter(ip).Allow() {
			that.logger.Warn("rate limit exceeded", "client_ip", ip, "path", r.URL.Path)

			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// NewCORS allows the given origins to call the API from a browser.
func NewCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
}
