package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingStore(t *testing.T) {
	r := newTestRepos(t)
	s := NewSettingStore(r.db)
	ctx := context.Background()

	type counter struct {
		Date  string
		Count int
	}
	var c counter
	found, err := s.Get(ctx, "counter", &c)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "counter", counter{Date: "2026-10-17", Count: 1}))
	require.NoError(t, s.Set(ctx, "counter", counter{Date: "2026-10-17", Count: 2}))
	found, err = s.Get(ctx, "counter", &c)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, counter{Date: "2026-10-17", Count: 2}, c)

	require.NoError(t, s.Delete(ctx, "counter"))
	found, err = s.Get(ctx, "counter", &c)
	require.NoError(t, err)
	assert.False(t, found)
}
