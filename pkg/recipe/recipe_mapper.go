package recipe

import (
	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/utils/storage"
	"foodgram/pkg/tag"
)

// viewerFlags holds what the current actor has done with the recipes and
// authors of one response.
type viewerFlags struct {
	favorited map[uint]bool
	inCart    map[uint]bool
	following map[uint]bool
}

func ToRecipeMinResponse(r *entities.Recipe, store storage.Storage) domain.RecipeMinResponse {
	return domain.RecipeMinResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       imageURL(r.Image, store),
		CookingTime: r.CookingTime,
	}
}

// ToUserResponse is shared with the user package so both render authors the
// same way.
func ToUserResponse(u *entities.User, isSubscribed bool) domain.UserResponse {
	return domain.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
	}
}

func toRecipeResponse(r *entities.Recipe, store storage.Storage, flags viewerFlags) domain.RecipeResponse {
	res := domain.RecipeResponse{
		ID:               r.ID,
		Tags:             make([]domain.TagResponse, 0, len(r.Tags)),
		Ingredients:      make([]domain.RecipeIngredientResponse, 0, len(r.IngredientAmounts)),
		IsFavorited:      flags.favorited[r.ID],
		IsInShoppingCart: flags.inCart[r.ID],
		Name:             r.Name,
		Image:            imageURL(r.Image, store),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		PubDate:          r.PubDate,
	}

	if r.Author != nil {
		author := ToUserResponse(r.Author, flags.following[r.Author.ID])
		res.Author = &author
	}
	for _, t := range r.Tags {
		res.Tags = append(res.Tags, tag.ToTagResponse(t))
	}
	for _, a := range r.IngredientAmounts {
		item := domain.RecipeIngredientResponse{ID: a.IngredientID, Amount: a.Amount}
		if a.Ingredient != nil {
			item.Name = a.Ingredient.Name
			item.MeasurementUnit = a.Ingredient.MeasurementUnit
		}
		res.Ingredients = append(res.Ingredients, item)
	}
	return res
}

// toIngredientAmounts converts the write payload into rows; RecipeID is set
// by the repository.
func toIngredientAmounts(items []domain.RecipeIngredientRequest) []*entities.IngredientAmount {
	amounts := make([]*entities.IngredientAmount, 0, len(items))
	for _, item := range items {
		amounts = append(amounts, &entities.IngredientAmount{
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}
	return amounts
}

func imageURL(key string, store storage.Storage) string {
	if key == "" || store == nil {
		return key
	}
	return store.GetPublicLink(key)
}
