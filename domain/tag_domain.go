package domain

import "errors"

var (
	MessageFailedGetTags        = "failed to get tags"
	MessageFailedGetIngredients = "failed to get ingredients"

	ErrTagNotFound        = errors.New("tag not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
)

type (
	TagResponse struct {
		ID    uint   `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Slug  string `json:"slug"`
	}

	IngredientResponse struct {
		ID              uint   `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}

	// TagSeed and IngredientSeed are the records of the static data files.
	TagSeed struct {
		Name  string `json:"name" validate:"required,max=200"`
		Color string `json:"color" validate:"omitempty,hexcolor"`
		Slug  string `json:"slug" validate:"required,max=200,slug"`
	}

	IngredientSeed struct {
		Name            string `json:"name" validate:"required,max=200"`
		MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
	}
)
