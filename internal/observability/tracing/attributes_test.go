package tracing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsContent(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/v1/chat/submit"),
		attribute.String("prompt", "secret question"),
		attribute.String("Authorization", "Bearer x"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorTruncates(t *testing.T) {
	assert.Nil(t, SafeError(nil))

	err := SafeError(errors.New("provider failed\nbody: {\"prompt\":\"x\"}"))
	assert.Equal(t, "provider failed", err.Error())

	long := SafeError(errors.New(strings.Repeat("a", 400)))
	assert.Len(t, long.Error(), 256)
}
