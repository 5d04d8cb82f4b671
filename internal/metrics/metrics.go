// Package metrics exposes Prometheus collectors for the API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	LikesToggled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "likes_toggled_total",
		Help: "Total like toggles by resulting action",
	}, []string{"action"})

	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messages_sent_total",
		Help: "Total messages successfully sent",
	})

	MessagesDeleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_deleted_total",
		Help: "Total message deletions by kind (soft or purged)",
	}, []string{"kind"})

	PhotosUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "photos_uploaded_total",
		Help: "Total photos uploaded",
	})

	PhotosModerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "photos_moderated_total",
		Help: "Total moderation decisions",
	}, []string{"decision"})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Redis cache lookups by cache and result",
	}, []string{"cache", "result"})
)

func init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(LikesToggled)
	prometheus.MustRegister(MessagesSent)
	prometheus.MustRegister(MessagesDeleted)
	prometheus.MustRegister(PhotosUploaded)
	prometheus.MustRegister(PhotosModerated)
	prometheus.MustRegister(CacheLookups)
}

// CacheResult records a hit or miss for cache.
func CacheResult(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

// GinMiddleware tracks request timing and status code per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
