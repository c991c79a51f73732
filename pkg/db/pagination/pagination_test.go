package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorTokenIsURLSafe(t *testing.T) {
	at := time.Date(2025, 5, 1, 10, 0, 0, 123456789, time.FixedZone("WIB", 7*3600))
	token := EncodeCursor(Cursor{ID: "1789245361234567890", CreatedAt: at})
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "=")

	got, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "1789245361234567890", got.ID)
	assert.True(t, got.CreatedAt.Equal(at))
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"%%%", "bm90LWpzb24", EncodeCursor(Cursor{})} {
		_, err := DecodeCursor(token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestPage(t *testing.T) {
	cursor := func(n int) Cursor {
		return Cursor{ID: string(rune('a' + n)), CreatedAt: time.Unix(int64(n), 0)}
	}

	rows, info := Page([]int{1, 2, 3, 4}, 3, cursor)
	assert.Equal(t, []int{1, 2, 3}, rows)
	assert.True(t, info.HasMore)
	next, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "d", next.ID)

	rows, info = Page([]int{1, 2}, 3, cursor)
	assert.Equal(t, []int{1, 2}, rows)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 50, Pagination{}.Clamp(50, 250))
	assert.Equal(t, 250, Pagination{PageSize: 1000}.Clamp(50, 250))
	assert.Equal(t, 7, Pagination{PageSize: 7}.Clamp(50, 250))
}
