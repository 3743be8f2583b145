// Package metrics exposes the prometheus collectors of the app.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shule"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"method", "route", "code"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "logins_total", Help: "Login attempts by outcome",
	}, []string{"outcome"})
	AccessDenied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "access_denied_total", Help: "Requests refused by the role guard",
	}, []string{"capability"})
	AttendanceUpserted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "attendance_rows_upserted_total", Help: "Attendance rows created or overwritten",
	})
	AssignmentsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "assignments_created_total", Help: "Assignment rows created",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, Logins, AccessDenied, AttendanceUpserted, AssignmentsCreated, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveRequest(method, route string, code int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// login outcomes
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)
