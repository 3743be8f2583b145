package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/services/metrics"
)

const pingTimeout = 800 * time.Millisecond

type healthStatus struct {
	Status string `json:"status"`
	Build  string `json:"build"`
	DB     string `json:"db"`
}

// healthz reports liveness and whether the database answers a ping.
func (s *Server) healthz(ctx echo.Context) error {
	status := healthStatus{Status: "ok", Build: s.deps.Conf.Build, DB: "ok"}
	if s.deps.Pinger == nil {
		return ctx.JSON(http.StatusOK, status)
	}

	c, cancel := context.WithTimeout(ctx.Request().Context(), pingTimeout)
	defer cancel()

	start := time.Now()
	err := s.deps.Pinger.PingContext(c)
	metrics.ObserveDBPing(time.Since(start))
	if err != nil {
		s.deps.Logger.Warn("db ping failed", err)
		status.Status, status.DB = "unavailable", err.Error()
		return ctx.JSON(http.StatusServiceUnavailable, status)
	}
	return ctx.JSON(http.StatusOK, status)
}
