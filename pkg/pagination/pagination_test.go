package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	want := Cursor{At: time.Date(2026, 3, 1, 10, 30, 0, 123, time.UTC), ID: uuid.New()}
	got, err := ParseCursor(EncodeCursor(want))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, want.At.Equal(got.At))
	assert.Equal(t, want.ID, got.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	t.Parallel()

	cursor, err := ParseCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)

	_, err = ParseCursor("not-base64!!")
	assert.Error(t, err)
}

func TestNormalizeLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, 8, LimitWithBuffer(7))
}

func TestTrimProducesCursorOnlyWhenMoreRowsExist(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []Cursor{
		{At: base.Add(3 * time.Hour), ID: uuid.New()},
		{At: base.Add(2 * time.Hour), ID: uuid.New()},
		{At: base.Add(time.Hour), ID: uuid.New()},
	}
	identity := func(c Cursor) Cursor { return c }

	page, next := Trim(rows, 2, identity)
	require.Len(t, page, 2)
	decoded, err := ParseCursor(next)
	require.NoError(t, err)
	assert.Equal(t, rows[1].ID, decoded.ID)

	page, next = Trim(rows, 5, identity)
	assert.Len(t, page, 3)
	assert.Empty(t, next)
}
