// Package testinfra provides fixtures shared by package tests.
package testinfra

import (
	"fmt"
	"testing"
	"time"

	migration "foodgram/cmd/database/migrate"
	"foodgram/entities"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with every table
// migrated. It is closed when the test ends.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migration.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite database: %v", err)
	}
	return db
}

const TestPassword = "Qwerty123qwe123"

// CreateUser inserts a user whose password is TestPassword.
func CreateUser(t testing.TB, db *gorm.DB, username string, admin bool) *entities.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := &entities.User{
		Email:     username + "@foodgram.test",
		Username:  username,
		FirstName: username,
		LastName:  username,
		Password:  string(hash),
		IsAdmin:   admin,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func CreateTag(t testing.TB, db *gorm.DB, name, slug string) *entities.Tag {
	t.Helper()

	tag := &entities.Tag{Name: name, Color: "#E26C2D", Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("create tag: %v", err)
	}
	return tag
}

func CreateIngredient(t testing.TB, db *gorm.DB, name, unit string) *entities.Ingredient {
	t.Helper()

	ingredient := &entities.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	return ingredient
}

// Amount pairs an ingredient with a quantity for CreateRecipe.
type Amount struct {
	Ingredient *entities.Ingredient
	Amount     int
}

// CreateRecipe inserts a recipe directly, bypassing the service layer.
func CreateRecipe(t testing.TB, db *gorm.DB, author *entities.User, name string, tags []*entities.Tag, amounts ...Amount) *entities.Recipe {
	t.Helper()

	recipe := &entities.Recipe{
		Name:        name,
		AuthorID:    &author.ID,
		Text:        name + " text",
		Image:       "recipes/" + name + ".png",
		CookingTime: 10,
	}
	if err := db.Omit("Tags", "IngredientAmounts", "Author").Create(recipe).Error; err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	if len(tags) > 0 {
		if err := db.Model(recipe).Association("Tags").Append(tags); err != nil {
			t.Fatalf("append recipe tags: %v", err)
		}
	}
	for _, a := range amounts {
		row := &entities.IngredientAmount{RecipeID: recipe.ID, IngredientID: a.Ingredient.ID, Amount: a.Amount}
		if err := db.Omit("Ingredient").Create(row).Error; err != nil {
			t.Fatalf("create ingredient amount: %v", err)
		}
	}
	return recipe
}
