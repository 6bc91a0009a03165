package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	XPAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "metrika_xp_awarded_total", Help: "Total xp awarded, by event"},
		[]string{"event"},
	)
	TasksCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "metrika_tasks_completed_total", Help: "Total task transitions into Done"},
	)
	AchievementsUnlocked = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "metrika_achievements_unlocked_total", Help: "Total achievements unlocked"},
	)
	NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "metrika_notifications_created_total", Help: "Total notifications created, by type"},
		[]string{"type"},
	)
	SideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "metrika_side_effect_failures_total", Help: "Failed side-effect steps after a committed write"},
		[]string{"step"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "metrika_http_requests_total", Help: "HTTP requests by method, route and status"},
		[]string{"method", "route", "status"},
	)
)

func Register() {
	prometheus.MustRegister(XPAwarded, TasksCompleted, AchievementsUnlocked, NotificationsCreated, SideEffectFailures, HTTPRequests)
}

// Middleware counts requests by the matched route template, not the raw path.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
