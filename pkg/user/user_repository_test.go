package user

import (
	"context"
	"testing"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/testinfra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertFollowingReportsDuplicateEdge(t *testing.T) {
	db := testinfra.NewTestDB(t)
	ctx := context.Background()
	author := testinfra.CreateUser(t, db, "author", false)
	reader := testinfra.CreateUser(t, db, "reader", false)

	require.NoError(t, insertFollowing(ctx, db, &entities.FollowingAuthor{UserID: reader.ID, AuthorID: author.ID}))

	// a second writer that passed the count check before the first committed
	err := insertFollowing(ctx, db, &entities.FollowingAuthor{UserID: reader.ID, AuthorID: author.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)

	var edges int64
	require.NoError(t, db.Model(&entities.FollowingAuthor{}).Count(&edges).Error)
	assert.Equal(t, int64(1), edges)

	// the reverse direction is a different edge
	assert.NoError(t, insertFollowing(ctx, db, &entities.FollowingAuthor{UserID: author.ID, AuthorID: reader.ID}))
}

func TestCreateFollowing(t *testing.T) {
	db := testinfra.NewTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)
	author := testinfra.CreateUser(t, db, "author", false)
	reader := testinfra.CreateUser(t, db, "reader", false)

	require.NoError(t, repo.CreateFollowing(ctx, reader.ID, author.ID))
	assert.ErrorIs(t, repo.CreateFollowing(ctx, reader.ID, author.ID), domain.ErrAlreadySubscribed)

	require.NoError(t, repo.DeleteFollowing(ctx, reader.ID, author.ID))
	assert.ErrorIs(t, repo.DeleteFollowing(ctx, reader.ID, author.ID), domain.ErrNotSubscribed)
}
