package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"
)

// RateLimit enforces a per-route request quota over a sliding window, keyed
// by client address. Window state lives in a Redis sorted set so limits
// hold across replicas. A Redis outage fails open: throttling is protective,
// not load-bearing.
func RateLimit(client *redisv9.Client, route string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", route, c.ClientIP())
		now := time.Now().UnixNano()
		windowStart := now - window.Nanoseconds()

		pipe := client.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
		countCmd := pipe.ZCard(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("rate limit check failed for %s: %v", route, err)
			c.Next()
			return
		}

		if countCmd.Val() >= int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("rate limit exceeded for %s, try again later", route),
			})
			return
		}

		record := client.TxPipeline()
		record.ZAdd(ctx, key, redisv9.Z{Score: float64(now), Member: now})
		record.Expire(ctx, key, window)
		if _, err := record.Exec(ctx); err != nil {
			log.Printf("rate limit record failed for %s: %v", route, err)
		}

		c.Next()
	}
}
