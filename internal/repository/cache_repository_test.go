package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/timeslots-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "slots", nil)
	ctx := context.Background()

	_, err := repo.Get(ctx, "export:abc")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "export:abc", []byte("x"), time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "export:abc:*"))
}

func TestCacheRepositoryKeyPrefix(t *testing.T) {
	assert.Equal(t, "slots:export:1", NewCacheRepository(nil, "slots", nil).key("export:1"))
	assert.Equal(t, "export:1", NewCacheRepository(nil, "", nil).key("export:1"))
}
