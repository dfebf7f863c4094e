package recipe

import (
	"context"
	"testing"

	"foodgram/domain"
	"foodgram/internal/testinfra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRecipesFilteredQueryHonoursContext(t *testing.T) {
	db := testinfra.NewTestDB(t)
	repo := NewRecipeRepository(db)
	author := testinfra.CreateUser(t, db, "author", false)
	lunch := testinfra.CreateTag(t, db, "Lunch", "lunch")
	soup := testinfra.CreateRecipe(t, db, author, "Soup", nil)
	require.NoError(t, db.Model(soup).Association("Tags").Append(lunch))
	require.NoError(t, repo.AddFavorite(context.Background(), author.ID, soup.ID))
	require.NoError(t, repo.AddToBasket(context.Background(), author.ID, soup.ID))

	filter := domain.RecipeFilter{
		Tags:             []string{"lunch"},
		IsFavorited:      true,
		IsInShoppingCart: true,
		Page:             1,
		Limit:            6,
	}

	recipes, count, err := repo.GetRecipes(context.Background(), filter, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.Len(t, recipes, 1)
	assert.Equal(t, soup.ID, recipes[0].ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = repo.GetRecipes(ctx, filter, author.ID)
	assert.ErrorIs(t, err, context.Canceled)
}
