package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthHandler reports whether the booking store is reachable, with a
// snapshot of the pool so a saturated pool is visible before it turns into
// failed bookings. Ping failures are reported as a state, never as the raw
// driver error.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		stat := pool.Stat()
		poolInfo := map[string]interface{}{
			"total_conns":    stat.TotalConns(),
			"idle_conns":     stat.IdleConns(),
			"acquired_conns": stat.AcquiredConns(),
			"max_conns":      stat.MaxConns(),
		}

		if err := pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"service":  "healthconnect",
				"status":   "unhealthy",
				"database": "unreachable",
				"pool":     poolInfo,
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"service":  "healthconnect",
			"status":   "healthy",
			"database": "reachable",
			"pool":     poolInfo,
		})
	}
}
