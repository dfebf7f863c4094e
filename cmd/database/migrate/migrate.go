package migration

import (
	"fmt"

	"foodgram/entities"
	"foodgram/internal/logging"

	"gorm.io/gorm"
)

// Models lists every table owned by the service, parents first.
func Models() []any {
	return []any{
		&entities.User{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.IngredientAmount{},
		&entities.FavoriteRecipe{},
		&entities.BasketRecipe{},
		&entities.FollowingAuthor{},
		&entities.RevokedToken{},
	}
}

func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}

	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}

	logging.Info().Msg("database migration complete")
	return nil
}
