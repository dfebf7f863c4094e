// Package seed loads the static tag and ingredient lists.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/logging"
	"foodgram/internal/utils"
	"foodgram/pkg/ingredient"
	"foodgram/pkg/tag"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// decodeSeed reads a JSON array of T and validates every element.
func decodeSeed[T any](r io.Reader) ([]T, error) {
	var records []T
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	utils.InitValidator()
	for i := range records {
		if err := utils.Validate.Struct(&records[i]); err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
	}
	return records, nil
}

func Ingredients(ctx context.Context, db *gorm.DB, r io.Reader) (int, error) {
	records, err := decodeSeed[domain.IngredientSeed](r)
	if err != nil {
		return 0, err
	}

	rows := make([]*entities.Ingredient, 0, len(records))
	for _, rec := range records {
		rows = append(rows, &entities.Ingredient{Name: rec.Name, MeasurementUnit: rec.MeasurementUnit})
	}
	if err := ingredient.NewIngredientRepository(db).UpsertIngredients(ctx, rows); err != nil {
		return 0, fmt.Errorf("upsert ingredients: %w", err)
	}
	return len(rows), nil
}

func Tags(ctx context.Context, db *gorm.DB, r io.Reader) (int, error) {
	records, err := decodeSeed[domain.TagSeed](r)
	if err != nil {
		return 0, err
	}

	rows := make([]*entities.Tag, 0, len(records))
	for _, rec := range records {
		rows = append(rows, &entities.Tag{Name: rec.Name, Color: rec.Color, Slug: rec.Slug})
	}
	if err := tag.NewTagRepository(db).UpsertTags(ctx, rows); err != nil {
		return 0, fmt.Errorf("upsert tags: %w", err)
	}
	return len(rows), nil
}

// FromFile runs load on the file at path.
func FromFile(ctx context.Context, db *gorm.DB, path string, load func(context.Context, *gorm.DB, io.Reader) (int, error)) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	n, err := load(ctx, db, file)
	if err != nil {
		return err
	}
	logging.Info().Str("file", path).Int("records", n).Msg("seed data loaded")
	return nil
}
