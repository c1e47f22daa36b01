package context

import (
	stdcontext "context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationValues(t *testing.T) {
	ctx := stdcontext.Background()
	ctx = WithRequestID(ctx, " req-1 ")
	ctx = WithUserID(ctx, "42")
	ctx = WithSubmissionID(ctx, "01HZX")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "42", UserIDFromContext(ctx))
	assert.Equal(t, "01HZX", SubmissionIDFromContext(ctx))
}

func TestEmptyValuesAreNotStored(t *testing.T) {
	ctx := WithUserID(stdcontext.Background(), "  ")
	assert.Equal(t, "", UserIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(nil))
}
