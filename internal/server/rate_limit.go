package server

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/narzo/internal/observability/logger"
	"github.com/smallbiznis/narzo/internal/ratelimit"
	"go.uber.org/zap"
)

type allowFunc func(ctx context.Context, clientIP string) (*ratelimit.RateLimitResult, error)

// CheckoutRateLimit throttles order intake per client IP.
func (s *Server) CheckoutRateLimit() gin.HandlerFunc {
	return s.rateLimit(ratelimit.EndpointCheckout, s.limiter.AllowCheckout)
}

// DownloadRateLimit throttles redemption attempts per client IP, on top of
// the per-entitlement download quota.
func (s *Server) DownloadRateLimit() gin.HandlerFunc {
	return s.rateLimit(ratelimit.EndpointDownload, s.limiter.AllowDownload)
}

func (s *Server) rateLimit(endpoint string, allow allowFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		res, err := allow(ctx, c.ClientIP())
		if err != nil {
			// redis trouble must not take the storefront down
			logger.FromContext(ctx).Warn("rate limit check failed",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if res.Allowed {
			c.Next()
			return
		}

		logger.FromContext(ctx).Warn("rate limit exceeded",
			zap.String("endpoint", endpoint),
			zap.Duration("retry_after", res.RetryAfter),
		)
		c.Header("Retry-After", retryAfterSeconds(res.RetryAfter))
		AbortWithError(c, ErrRateLimited)
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
