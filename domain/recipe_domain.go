package domain

import (
	"errors"
	"time"
)

const (
	ShoppingListFormatText = "txt"
	ShoppingListFormatPDF  = "pdf"
)

var (
	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"
	MessageFailedAddFavorite     = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite  = "failed to remove recipe from favorites"
	MessageFailedAddToCart       = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart  = "failed to remove recipe from shopping cart"
	MessageFailedDownloadCart    = "failed to download shopping cart"

	ErrRecipeNotFound    = errors.New("recipe not found")
	ErrAlreadyFavorited  = errors.New("recipe is already in favorites")
	ErrNotFavorited      = errors.New("recipe is not in favorites")
	ErrAlreadyInCart     = errors.New("recipe is already in the shopping cart")
	ErrNotInCart         = errors.New("recipe is not in the shopping cart")
	ErrShoppingCartEmpty = errors.New("shopping cart is empty")
	ErrInvalidImage      = errors.New("invalid image")
	ErrUnsupportedFormat = errors.New("unsupported shopping list format")
)

type (
	RecipeIngredientRequest struct {
		ID     uint `json:"id" validate:"required"`
		Amount int  `json:"amount" validate:"required,min=1,max=32767"`
	}

	// RecipeWriteRequest is the payload of recipe create and update. Image
	// holds a data URI; multipart uploads fill ImagePayload instead.
	RecipeWriteRequest struct {
		Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"required,min=1,dive"`
		Tags        []uint                    `json:"tags" validate:"required,min=1,dive,required"`
		Image       string                    `json:"image" validate:"omitempty"`
		Name        string                    `json:"name" validate:"required,max=200"`
		Text        string                    `json:"text" validate:"required"`
		CookingTime int                       `json:"cooking_time" validate:"required,min=1,max=32767"`

		ImagePayload *ImagePayload `json:"-"`
	}

	ImagePayload struct {
		Data      []byte
		Extension string
	}

	RecipeFilter struct {
		AuthorID         uint
		Tags             []string
		IsFavorited      bool
		IsInShoppingCart bool
		Page             int
		Limit            int
	}

	RecipeMinResponse struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	RecipeIngredientResponse struct {
		ID              uint   `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeResponse struct {
		ID               uint                       `json:"id"`
		Tags             []TagResponse              `json:"tags"`
		Author           *UserResponse              `json:"author"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
		Name             string                     `json:"name"`
		Image            string                     `json:"image"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
		PubDate          time.Time                  `json:"pub_date"`
	}

	ShoppingListFile struct {
		FileName    string
		ContentType string
		Body        []byte
	}
)
