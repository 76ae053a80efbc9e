package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, KeyAccessToken)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, m.Set(ctx, KeyAccessToken, "access"))
	require.NoError(t, m.Set(ctx, KeyRefreshToken, "refresh"))

	got, err := m.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access", got)
	assert.Equal(t, 2, m.Len())

	// Удаление отсутствующего ключа не ошибка
	require.NoError(t, m.Delete(ctx, SessionKeys...))
	assert.Equal(t, 0, m.Len())
	require.NoError(t, m.Delete(ctx, SessionKeys...))
}
