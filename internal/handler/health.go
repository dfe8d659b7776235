package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health reports liveness for load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready checks the database and, when configured, Redis.  Redis is
// optional, so its failure is reported without failing the probe.
func Ready(db *sql.DB, rdb *redis.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		resp := echo.Map{"database": "ok", "redis": "disabled"}
		if err := db.PingContext(ctx); err != nil {
			resp["database"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		if rdb != nil {
			resp["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				resp["redis"] = err.Error()
			}
		}
		return c.JSON(http.StatusOK, resp)
	}
}
