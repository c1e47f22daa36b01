package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", Timestamp: "2025-06-14T09:00:00Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.Equal(t, "2025-06-14T09:00:00Z", cursor.Timestamp)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"%%%", "bm90LWpzb24", "e30"} {
		_, err := DecodeCursor(token)
		assert.ErrorIs(t, err, ErrInvalidCursor, token)
	}
}

func TestSize(t *testing.T) {
	assert.Equal(t, 20, Pagination{}.Size(20, 100))
	assert.Equal(t, 100, Pagination{PageSize: 500}.Size(20, 100))
	assert.Equal(t, 7, Pagination{PageSize: 7}.Size(20, 100))
}

func TestTrim(t *testing.T) {
	a, b, c := 1, 2, 3
	rows := []*int{&a, &b, &c}
	id := func(v *int) string { return string(rune('0' + *v)) }

	kept, info := Trim(rows, 2, id)
	assert.Len(t, kept, 2)
	assert.True(t, info.HasMore)
	assert.Equal(t, "2", info.NextPageToken)

	kept, info = Trim(rows, 3, id)
	assert.Len(t, kept, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
