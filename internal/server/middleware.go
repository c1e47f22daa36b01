package server

import (
	"context"
	"math"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/lpt/internal/observability/context"
	"github.com/smallbiznis/lpt/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/lpt/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	contextUserIDKey    = "user_id"
	contextSessionToken = "session_token"

	rateLimitReasonUserRate = "user-rate"
)

// AuthRequired rejects requests without a valid bearer token or session cookie.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authenticate(c) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// AuthOptional attaches the user when a valid session is present and
// otherwise lets the request through anonymously.
func (s *Server) AuthOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = s.authenticate(c)
		c.Next()
	}
}

func (s *Server) authenticate(c *gin.Context) bool {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		return false
	}
	sess, err := s.authsvc.Authenticate(c.Request.Context(), token)
	if err != nil {
		logger.FromContext(c.Request.Context()).Debug("session rejected", zap.Error(err))
		return false
	}

	ctx := obscontext.WithUserID(c.Request.Context(), sess.UserID.String())
	c.Request = c.Request.WithContext(ctx)
	c.Set(contextUserIDKey, sess.UserID)
	c.Set(contextSessionToken, token)
	return true
}

// userIDFromContext returns zero for anonymous requests.
func userIDFromContext(c *gin.Context) snowflake.ID {
	v, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(snowflake.ID)
	return id
}

// SubmitThrottle applies the per-user burst limiter to chat submissions.
func (s *Server) SubmitThrottle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.submitLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)
		res, err := s.submitLimiter.AllowUser(ctx, userIDFromContext(c))
		if err != nil {
			logger.FromContext(ctx).Warn("submit rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !res.Allowed {
			logger.FromContext(ctx).Warn("submit rate limit exceeded",
				zap.String("reason", rateLimitReasonUserRate),
				zap.String("endpoint", endpoint),
			)
			recordRateLimitDenied(ctx, endpoint, rateLimitReasonUserRate, s.obsMetrics)

			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-Rate-Limited-Reason", rateLimitReasonUserRate)
			AbortWithError(c, ErrRateLimited)
			return
		}

		recordRateLimitAllowed(ctx, endpoint, s.obsMetrics)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Next()
	}
}

func recordRateLimitAllowed(ctx context.Context, endpoint string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitAllowed(ctx, endpoint)
}

func recordRateLimitDenied(ctx context.Context, endpoint, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = c.Request.URL.Path
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
