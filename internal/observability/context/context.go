package context

import (
	stdcontext "context"
	"strings"
)

type ctxKey string

const (
	requestIDKey    ctxKey = "request_id"
	userIDKey       ctxKey = "user_id"
	submissionIDKey ctxKey = "submission_id"
)

func WithRequestID(ctx stdcontext.Context, requestID string) stdcontext.Context {
	return withString(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx stdcontext.Context) string {
	return stringFrom(ctx, requestIDKey)
}

func WithUserID(ctx stdcontext.Context, userID string) stdcontext.Context {
	return withString(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx stdcontext.Context) string {
	return stringFrom(ctx, userIDKey)
}

func WithSubmissionID(ctx stdcontext.Context, submissionID string) stdcontext.Context {
	return withString(ctx, submissionIDKey, submissionID)
}

func SubmissionIDFromContext(ctx stdcontext.Context) string {
	return stringFrom(ctx, submissionIDKey)
}

func withString(ctx stdcontext.Context, key ctxKey, value string) stdcontext.Context {
	if ctx == nil {
		ctx = stdcontext.Background()
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return stdcontext.WithValue(ctx, key, value)
}

func stringFrom(ctx stdcontext.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
