package handler

import (
	"context"
	"net/http"
	"time"

	"repairpos/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Health checks the database and, when configured, redis. rdb and smsCB may
// be nil. It never exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client, smsCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus, redisStatus := "connected", "disabled"
		var g errgroup.Group
		g.Go(func() error {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				dbStatus = "error"
			}
			return err
		})
		if rdb != nil {
			redisStatus = "connected"
			g.Go(func() error {
				err := rdb.Ping(ctx).Err()
				if err != nil {
					redisStatus = "error"
				}
				return err
			})
		}

		status := http.StatusOK
		if g.Wait() != nil {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
		}
		if smsCB != nil {
			body["sms_gateway"] = smsCB.State().String()
		}
		c.JSON(status, body)
	}
}
