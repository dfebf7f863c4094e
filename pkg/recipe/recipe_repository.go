package recipe

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"foodgram/domain"
	"foodgram/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	RecipeRepository interface {
		SaveRecipe(ctx context.Context, recipe *entities.Recipe, tagIDs []uint, amounts []*entities.IngredientAmount) error
		GetRecipeByID(ctx context.Context, id uint) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID uint) ([]*entities.Recipe, int64, error)
		DeleteRecipe(ctx context.Context, id uint) error
		GetRecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]*entities.Recipe, error)
		CountRecipesByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error)

		AddFavorite(ctx context.Context, userID, recipeID uint) error
		RemoveFavorite(ctx context.Context, userID, recipeID uint) error
		AddToBasket(ctx context.Context, userID, recipeID uint) error
		RemoveFromBasket(ctx context.Context, userID, recipeID uint) error
		FavoritedIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)
		BasketIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)
		FollowedAuthorIDs(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error)

		GetBasketRecipes(ctx context.Context, userID uint) ([]*entities.Recipe, error)
		AggregateBasket(ctx context.Context, userID uint) ([]entities.ShoppingListItem, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// SaveRecipe writes the scalar columns, the tag set and the ingredient
// amounts of recipe in one transaction. A zero recipe.ID creates a new row.
// Unknown tag or ingredient ids roll everything back with a
// *domain.ValidationError.
func (r *recipeRepository) SaveRecipe(ctx context.Context, recipe *entities.Recipe, tagIDs []uint, amounts []*entities.IngredientAmount) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if recipe.ID == 0 {
			if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
				return err
			}
		} else {
			// pub_date and author are never rewritten
			if err := tx.Model(&entities.Recipe{}).
				Where("id = ?", recipe.ID).
				Updates(map[string]any{
					"name":         recipe.Name,
					"text":         recipe.Text,
					"image":        recipe.Image,
					"cooking_time": recipe.CookingTime,
				}).Error; err != nil {
				return err
			}
		}

		var tags []*entities.Tag
		if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
			return err
		}
		if missing := missingIDs(tagIDs, tags, func(t *entities.Tag) uint { return t.ID }); len(missing) > 0 {
			return domain.NewValidationError("tags", "unknown tag id "+joinIDs(missing))
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.IngredientAmount{}).Error; err != nil {
			return err
		}

		ingredientIDs := make([]uint, 0, len(amounts))
		for _, a := range amounts {
			ingredientIDs = append(ingredientIDs, a.IngredientID)
		}
		var ingredients []*entities.Ingredient
		if err := tx.Select("id").Where("id IN ?", ingredientIDs).Find(&ingredients).Error; err != nil {
			return err
		}
		if missing := missingIDs(ingredientIDs, ingredients, func(i *entities.Ingredient) uint { return i.ID }); len(missing) > 0 {
			return domain.NewValidationError("ingredients", "unknown ingredient id "+joinIDs(missing))
		}

		if len(amounts) == 0 {
			return nil
		}
		for _, a := range amounts {
			a.ID = 0
			a.RecipeID = recipe.ID
		}
		return tx.Omit(clause.Associations).Create(&amounts).Error
	})
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id uint) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.withDetails(r.db.WithContext(ctx)).Where("id = ?", id).First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name asc") }).
		Preload("IngredientAmounts", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("IngredientAmounts.Ingredient")
}

func (r *recipeRepository) filtered(ctx context.Context, filter domain.RecipeFilter, viewerID uint) *gorm.DB {
	db := r.db.WithContext(ctx)
	query := db.Model(&entities.Recipe{})

	if filter.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.Tags) > 0 {
		query = query.Where("recipes.id IN (?)", db.
			Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.Tags))
	}
	if filter.IsFavorited {
		query = query.Where("recipes.id IN (?)", db.
			Model(&entities.FavoriteRecipe{}).
			Select("recipe_id").
			Where("user_id = ?", viewerID))
	}
	if filter.IsInShoppingCart {
		query = query.Where("recipes.id IN (?)", db.
			Model(&entities.BasketRecipe{}).
			Select("recipe_id").
			Where("user_id = ?", viewerID))
	}
	return query
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID uint) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (filter.Page - 1) * filter.Limit

	if err := r.filtered(ctx, filter, viewerID).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.withDetails(r.filtered(ctx, filter, viewerID)).
		Order("recipes.pub_date desc").
		Order("recipes.id desc").
		Offset(offset).
		Limit(filter.Limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

// DeleteRecipe removes the recipe together with every row that points at it.
func (r *recipeRepository) DeleteRecipe(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&entities.IngredientAmount{}, &entities.FavoriteRecipe{}, &entities.BasketRecipe{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}

		res := tx.Delete(&entities.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// GetRecipesByAuthor returns the newest recipes of an author; limit <= 0
// returns all of them.
func (r *recipeRepository) GetRecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]*entities.Recipe, error) {
	var recipes []*entities.Recipe

	query := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("pub_date desc").
		Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) CountRecipesByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID uint
		Total    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, userID, recipeID uint) error {
	link := &entities.FavoriteRecipe{UserID: userID, RecipeID: recipeID}
	return linkRecipe(ctx, r.db, link, userID, recipeID, domain.ErrAlreadyFavorited)
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return unlinkRecipe[entities.FavoriteRecipe](ctx, r.db, userID, recipeID, domain.ErrNotFavorited)
}

func (r *recipeRepository) AddToBasket(ctx context.Context, userID, recipeID uint) error {
	link := &entities.BasketRecipe{UserID: userID, RecipeID: recipeID}
	return linkRecipe(ctx, r.db, link, userID, recipeID, domain.ErrAlreadyInCart)
}

func (r *recipeRepository) RemoveFromBasket(ctx context.Context, userID, recipeID uint) error {
	return unlinkRecipe[entities.BasketRecipe](ctx, r.db, userID, recipeID, domain.ErrNotInCart)
}

func (r *recipeRepository) FavoritedIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return linkedRecipeIDs[entities.FavoriteRecipe](ctx, r.db, userID, recipeIDs)
}

func (r *recipeRepository) BasketIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return linkedRecipeIDs[entities.BasketRecipe](ctx, r.db, userID, recipeIDs)
}

func (r *recipeRepository) FollowedAuthorIDs(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error) {
	followed := make(map[uint]bool)
	if userID == 0 || len(authorIDs) == 0 {
		return followed, nil
	}

	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&entities.FollowingAuthor{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error; err != nil {
		return nil, err
	}

	for _, id := range ids {
		followed[id] = true
	}
	return followed, nil
}

func (r *recipeRepository) GetBasketRecipes(ctx context.Context, userID uint) ([]*entities.Recipe, error) {
	var recipes []*entities.Recipe
	if err := r.db.WithContext(ctx).
		Joins("JOIN basket_recipes ON recipes.id = basket_recipes.recipe_id").
		Where("basket_recipes.user_id = ?", userID).
		Order("basket_recipes.created_at asc").
		Order("basket_recipes.id asc").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// AggregateBasket sums ingredient amounts over the recipes in the user's
// basket, one row per (ingredient name, measurement unit).
func (r *recipeRepository) AggregateBasket(ctx context.Context, userID uint) ([]entities.ShoppingListItem, error) {
	var items []entities.ShoppingListItem
	if err := r.db.WithContext(ctx).
		Table("ingredient_amounts").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_amounts.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = ingredient_amounts.ingredient_id").
		Joins("JOIN basket_recipes ON basket_recipes.recipe_id = ingredient_amounts.recipe_id").
		Where("basket_recipes.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name asc").
		Order("ingredients.measurement_unit asc").
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func missingIDs[T any](want []uint, found []T, id func(T) uint) []uint {
	seen := make(map[uint]bool, len(found))
	for _, f := range found {
		seen[id(f)] = true
	}

	var missing []uint
	for _, w := range want {
		if !seen[w] && !slices.Contains(missing, w) {
			missing = append(missing, w)
		}
	}
	return missing
}

func joinIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	return strings.Join(parts, ", ")
}
