package recipe

import (
	"context"
	"errors"

	"foodgram/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRecipeLink is a (user, recipe) join row with a unique pair constraint.
type userRecipeLink interface {
	entities.FavoriteRecipe | entities.BasketRecipe
}

// linkRecipe inserts link unless the pair already exists, in which case
// exists is returned. A concurrent insert that loses the race on the unique
// index is reported the same way.
func linkRecipe[T userRecipeLink](ctx context.Context, db *gorm.DB, link *T, userID, recipeID uint, exists error) error {
	var count int64
	if err := db.WithContext(ctx).
		Model(new(T)).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return exists
	}
	return insertLink(ctx, db, link, exists)
}

// insertLink creates link and maps a unique index violation to exists.
func insertLink[T userRecipeLink](ctx context.Context, db *gorm.DB, link *T, exists error) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return exists
		}
		return err
	}
	return nil
}

// unlinkRecipe deletes the pair, returning missing when there was none.
func unlinkRecipe[T userRecipeLink](ctx context.Context, db *gorm.DB, userID, recipeID uint, missing error) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missing
	}
	return nil
}

func linkedRecipeIDs[T userRecipeLink](ctx context.Context, db *gorm.DB, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	linked := make(map[uint]bool)
	if userID == 0 || len(recipeIDs) == 0 {
		return linked, nil
	}

	var ids []uint
	if err := db.WithContext(ctx).
		Model(new(T)).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}

	for _, id := range ids {
		linked[id] = true
	}
	return linked, nil
}
