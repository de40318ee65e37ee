package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit ограничивает число запросов в минуту с одного IP, всплеск до rpm.
// Записи неактивных клиентов вычищаются при обращениях.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	if rpm <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	var (
		mtx       sync.Mutex
		visitors  = make(map[string]*visitor)
		lastSweep = time.Now()
		every     = rate.Every(time.Minute / time.Duration(rpm))
	)
	const idle = 3 * time.Minute

	get := func(ip string, now time.Time) *rate.Limiter {
		mtx.Lock()
		defer mtx.Unlock()

		if now.Sub(lastSweep) > idle {
			for key, v := range visitors {
				if now.Sub(v.lastSeen) > idle {
					delete(visitors, key)
				}
			}
			lastSweep = now
		}

		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(every, rpm)}
			visitors[ip] = v
		}
		v.lastSeen = now
		return v.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			limiter := get(getIp(r), now)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rpm))

			if !limiter.AllowN(now, 1) {
				retry := limiter.Reserve()
				wait := retry.DelayFrom(now)
				retry.CancelAt(now)

				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeJSON(w, http.StatusTooManyRequests, map[string]any{
					"detail":      "Too many requests. Try again later.",
					"error":       "RATE_LIMIT_EXCEEDED",
					"retry_after": int(math.Ceil(wait.Seconds())),
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}

			remaining := int(limiter.TokensAt(now))
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}
