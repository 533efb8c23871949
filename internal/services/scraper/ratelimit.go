package scraper

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// delayRange is the per-request sleep window for one site, in seconds.
type delayRange struct {
	Low  float64
	High float64
}

// rateLimits holds the per-site delay windows. Sites absent from the table
// use the configured defaults.
var rateLimits = map[string]delayRange{
	"indeed_es":   {4.0, 9.0},
	"infojobs":    {4.0, 9.0},
	"jobtoday":    {3.0, 7.0},
	"mercadona":   {5.0, 12.0},
	"lidl_es":     {3.0, 7.0},
	"amazon_es":   {6.0, 14.0},
	"manfred":     {3.0, 7.0},
	"tecnoempleo": {3.0, 7.0},
	"greenhouse":  {2.0, 5.0},
	"lever":       {2.0, 5.0},
	"teamtailor":  {2.0, 5.0},
	"personio":    {2.0, 5.0},
	"workday":     {5.0, 12.0},
	"career_page": {3.0, 8.0},
}

// cookieTTL is the per-site cookie freshness window in hours. Sites not
// listed never report stale cookies.
var cookieTTL = map[string]int{
	"indeed_es": 24,
	"infojobs":  48,
	"amazon_es": 12,
	"mercadona": 6,
}

// RateLimiter combines a token-bucket limiter per site (floor pacing) with
// the uniform random extra sleep the sites expect from human-ish traffic.
type RateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	defaultLow  float64
	defaultHigh float64
	rng         *rand.Rand
}

// NewRateLimiter creates the limiter with config defaults for unlisted sites.
func NewRateLimiter(defaultLow, defaultHigh float64) *RateLimiter {
	return &RateLimiter{
		limiters:    make(map[string]*rate.Limiter),
		defaultLow:  defaultLow,
		defaultHigh: defaultHigh,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *RateLimiter) window(site string) delayRange {
	if w, ok := rateLimits[site]; ok {
		return w
	}
	return delayRange{Low: r.defaultLow, High: r.defaultHigh}
}

func (r *RateLimiter) limiter(site string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	lim, ok := r.limiters[site]
	if !ok {
		w := r.window(site)
		// One request per minimum delay, with a burst of one.
		lim = rate.NewLimiter(rate.Every(time.Duration(w.Low*float64(time.Second))), 1)
		r.limiters[site] = lim
	}
	return lim
}

// Wait blocks until the site's pacing allows another request, then sleeps a
// uniform random extra inside the site's window. Also used between pages.
func (r *RateLimiter) Wait(ctx context.Context, site string) error {
	if err := r.limiter(site).Wait(ctx); err != nil {
		return err
	}

	w := r.window(site)
	spread := w.High - w.Low
	if spread <= 0 {
		return nil
	}
	r.mu.Lock()
	extra := time.Duration(r.rng.Float64() * spread * float64(time.Second))
	r.mu.Unlock()

	select {
	case <-time.After(extra):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CookieMaxAge returns the cookie freshness window for a site and whether
// the site tracks cookie staleness at all.
func CookieMaxAge(site string) (time.Duration, bool) {
	hours, ok := cookieTTL[site]
	if !ok {
		return 0, false
	}
	return time.Duration(hours) * time.Hour, true
}
