package pagination

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openpipe/connectorhub/internal/config"
)

func TestCursorRoundTrip(t *testing.T) {
	type position struct {
		CreateTime time.Time `json:"create_time"`
		Uid        string    `json:"uid"`
	}

	ctx := context.Background()
	key := &config.KeyData{}

	pos := position{
		CreateTime: time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC),
		Uid:        "6f1f9c15-1a2b-4d0a-b3d8-966c073a1a11",
	}

	cursor, err := MakeCursor(ctx, key, pos)
	require.NoError(t, err)
	require.NotEmpty(t, cursor)

	parsed, err := ParseCursor[position](ctx, key, cursor)
	require.NoError(t, err)
	require.Equal(t, pos, *parsed)

	// A client cannot fabricate or alter cursors
	_, err = ParseCursor[position](ctx, key, "bm90LWEtY3Vyc29y")
	require.Error(t, err)

	_, err = ParseCursor[position](ctx, &config.KeyData{}, cursor)
	require.Error(t, err, "cursor from a different key must not parse")
}
