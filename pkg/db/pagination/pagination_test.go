package pagination

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2026-08-01T20:00:00Z"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.Equal(t, "2026-08-01T20:00:00Z", cursor.CreatedAt)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not-base64!!!")
	assert.Error(t, err)
}

type row struct{ id int }

func TestBuildCursorPageInfo(t *testing.T) {
	extract := func(r *row) string { return fmt.Sprintf("%d", r.id) }

	t.Run("empty", func(t *testing.T) {
		info := BuildCursorPageInfo(nil, 10, extract)
		assert.False(t, info.HasMore)
		assert.Empty(t, info.NextPageToken)
	})

	t.Run("partial page", func(t *testing.T) {
		info := BuildCursorPageInfo([]*row{{1}, {2}}, 10, extract)
		assert.False(t, info.HasMore)
		assert.Equal(t, "2", info.NextPageToken)
	})

	t.Run("overflow row signals more", func(t *testing.T) {
		info := BuildCursorPageInfo([]*row{{1}, {2}, {3}}, 2, extract)
		assert.True(t, info.HasMore)
		assert.Equal(t, "2", info.NextPageToken)
	})
}
