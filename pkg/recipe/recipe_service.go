package recipe

import (
	"context"
	"errors"
	"fmt"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/logging"
	"foodgram/internal/utils/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		GetRecipes(ctx context.Context, actor domain.Actor, filter domain.RecipeFilter) ([]domain.RecipeResponse, int64, error)
		GetRecipeByID(ctx context.Context, actor domain.Actor, id uint) (domain.RecipeResponse, error)
		CreateRecipe(ctx context.Context, actor domain.Actor, req domain.RecipeWriteRequest) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, actor domain.Actor, id uint, req domain.RecipeWriteRequest) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, actor domain.Actor, id uint) error

		AddFavorite(ctx context.Context, actor domain.Actor, id uint) (domain.RecipeMinResponse, error)
		RemoveFavorite(ctx context.Context, actor domain.Actor, id uint) error
		AddToShoppingCart(ctx context.Context, actor domain.Actor, id uint) (domain.RecipeMinResponse, error)
		RemoveFromShoppingCart(ctx context.Context, actor domain.Actor, id uint) error
		DownloadShoppingCart(ctx context.Context, actor domain.Actor, format string) (domain.ShoppingListFile, error)
	}

	recipeService struct {
		recipeRepository RecipeRepository
		storage          storage.Storage
		pdfFont          []byte
	}

	Option func(*recipeService)
)

// WithPDFFont sets the UTF-8 TrueType font of PDF shopping lists.
func WithPDFFont(font []byte) Option {
	return func(s *recipeService) { s.pdfFont = font }
}

func NewRecipeService(recipeRepository RecipeRepository, storage storage.Storage, opts ...Option) RecipeService {
	s := &recipeService{
		recipeRepository: recipeRepository,
		storage:          storage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *recipeService) GetRecipes(ctx context.Context, actor domain.Actor, filter domain.RecipeFilter) ([]domain.RecipeResponse, int64, error) {
	if (filter.IsFavorited || filter.IsInShoppingCart) && !actor.IsAuthenticated() {
		return []domain.RecipeResponse{}, 0, nil
	}

	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, actor.UserID)
	if err != nil {
		return nil, 0, err
	}

	flags, err := s.viewerFlags(ctx, actor, recipes)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		res = append(res, toRecipeResponse(r, s.storage, flags))
	}
	return res, count, nil
}

func (s *recipeService) GetRecipeByID(ctx context.Context, actor domain.Actor, id uint) (domain.RecipeResponse, error) {
	r, err := s.getRecipe(ctx, id)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	flags, err := s.viewerFlags(ctx, actor, []*entities.Recipe{r})
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	return toRecipeResponse(r, s.storage, flags), nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, actor domain.Actor, req domain.RecipeWriteRequest) (domain.RecipeResponse, error) {
	if !actor.IsAuthenticated() {
		return domain.RecipeResponse{}, domain.ErrUnauthenticated
	}
	if err := checkWriteRequest(req); err != nil {
		return domain.RecipeResponse{}, err
	}

	payload, err := imagePayload(req)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if payload == nil {
		return domain.RecipeResponse{}, domain.NewValidationError("image", "this field is required")
	}

	key, err := s.uploadImage(ctx, payload)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	authorID := actor.UserID
	r := &entities.Recipe{
		Name:        req.Name,
		AuthorID:    &authorID,
		Text:        req.Text,
		Image:       key,
		CookingTime: req.CookingTime,
	}
	if err := s.recipeRepository.SaveRecipe(ctx, r, req.Tags, toIngredientAmounts(req.Ingredients)); err != nil {
		s.deleteImage(ctx, key)
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeByID(ctx, actor, r.ID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, actor domain.Actor, id uint, req domain.RecipeWriteRequest) (domain.RecipeResponse, error) {
	if !actor.IsAuthenticated() {
		return domain.RecipeResponse{}, domain.ErrUnauthenticated
	}

	r, err := s.getRecipe(ctx, id)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if !actor.CanModify(r.AuthorID) {
		return domain.RecipeResponse{}, domain.ErrForbidden
	}
	if err := checkWriteRequest(req); err != nil {
		return domain.RecipeResponse{}, err
	}

	payload, err := imagePayload(req)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	oldKey := r.Image
	if payload != nil {
		key, err := s.uploadImage(ctx, payload)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		r.Image = key
	}

	r.Name = req.Name
	r.Text = req.Text
	r.CookingTime = req.CookingTime
	if err := s.recipeRepository.SaveRecipe(ctx, r, req.Tags, toIngredientAmounts(req.Ingredients)); err != nil {
		if r.Image != oldKey {
			s.deleteImage(ctx, r.Image)
		}
		return domain.RecipeResponse{}, err
	}
	if r.Image != oldKey {
		s.deleteImage(ctx, oldKey)
	}

	return s.GetRecipeByID(ctx, actor, r.ID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, actor domain.Actor, id uint) error {
	if !actor.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}

	r, err := s.getRecipe(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanModify(r.AuthorID) {
		return domain.ErrForbidden
	}

	if err := s.recipeRepository.DeleteRecipe(ctx, r.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}
	s.deleteImage(ctx, r.Image)
	return nil
}

func (s *recipeService) AddFavorite(ctx context.Context, actor domain.Actor, id uint) (domain.RecipeMinResponse, error) {
	return s.link(ctx, actor, id, s.recipeRepository.AddFavorite)
}

func (s *recipeService) RemoveFavorite(ctx context.Context, actor domain.Actor, id uint) error {
	return s.unlink(ctx, actor, id, s.recipeRepository.RemoveFavorite)
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, actor domain.Actor, id uint) (domain.RecipeMinResponse, error) {
	return s.link(ctx, actor, id, s.recipeRepository.AddToBasket)
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, actor domain.Actor, id uint) error {
	return s.unlink(ctx, actor, id, s.recipeRepository.RemoveFromBasket)
}

func (s *recipeService) DownloadShoppingCart(ctx context.Context, actor domain.Actor, format string) (domain.ShoppingListFile, error) {
	if !actor.IsAuthenticated() {
		return domain.ShoppingListFile{}, domain.ErrUnauthenticated
	}

	recipes, err := s.recipeRepository.GetBasketRecipes(ctx, actor.UserID)
	if err != nil {
		return domain.ShoppingListFile{}, err
	}
	if len(recipes) == 0 {
		return domain.ShoppingListFile{}, domain.ErrShoppingCartEmpty
	}

	items, err := s.recipeRepository.AggregateBasket(ctx, actor.UserID)
	if err != nil {
		return domain.ShoppingListFile{}, err
	}
	return renderShoppingList(format, recipes, items, s.pdfFont)
}

func (s *recipeService) link(ctx context.Context, actor domain.Actor, id uint, add func(context.Context, uint, uint) error) (domain.RecipeMinResponse, error) {
	if !actor.IsAuthenticated() {
		return domain.RecipeMinResponse{}, domain.ErrUnauthenticated
	}

	r, err := s.getRecipe(ctx, id)
	if err != nil {
		return domain.RecipeMinResponse{}, err
	}
	if err := add(ctx, actor.UserID, r.ID); err != nil {
		return domain.RecipeMinResponse{}, err
	}
	return ToRecipeMinResponse(r, s.storage), nil
}

func (s *recipeService) unlink(ctx context.Context, actor domain.Actor, id uint, remove func(context.Context, uint, uint) error) error {
	if !actor.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}

	r, err := s.getRecipe(ctx, id)
	if err != nil {
		return err
	}
	return remove(ctx, actor.UserID, r.ID)
}

func (s *recipeService) getRecipe(ctx context.Context, id uint) (*entities.Recipe, error) {
	r, err := s.recipeRepository.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *recipeService) viewerFlags(ctx context.Context, actor domain.Actor, recipes []*entities.Recipe) (viewerFlags, error) {
	flags := viewerFlags{}
	if !actor.IsAuthenticated() || len(recipes) == 0 {
		return flags, nil
	}

	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		if r.AuthorID != nil {
			authorIDs = append(authorIDs, *r.AuthorID)
		}
	}

	var err error
	if flags.favorited, err = s.recipeRepository.FavoritedIDs(ctx, actor.UserID, recipeIDs); err != nil {
		return flags, err
	}
	if flags.inCart, err = s.recipeRepository.BasketIDs(ctx, actor.UserID, recipeIDs); err != nil {
		return flags, err
	}
	if flags.following, err = s.recipeRepository.FollowedAuthorIDs(ctx, actor.UserID, authorIDs); err != nil {
		return flags, err
	}
	return flags, nil
}

func (s *recipeService) uploadImage(ctx context.Context, payload *domain.ImagePayload) (string, error) {
	body, contentType, err := storage.NormalizeImage(payload)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidImage) {
			return "", domain.NewValidationError("image", err.Error())
		}
		return "", err
	}

	key := "recipes/" + uuid.NewString() + payload.Extension
	if err := s.storage.Upload(ctx, key, body, contentType); err != nil {
		return "", fmt.Errorf("upload recipe image: %w", err)
	}
	return key, nil
}

func (s *recipeService) deleteImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		logging.Warn().Err(err).Str("object_key", key).Msg("failed to delete recipe image")
	}
}

// imagePayload prefers a multipart upload over the data URI field; nil means
// no image was sent.
func imagePayload(req domain.RecipeWriteRequest) (*domain.ImagePayload, error) {
	if req.ImagePayload != nil {
		return req.ImagePayload, nil
	}
	if req.Image == "" {
		return nil, nil
	}

	payload, err := storage.ParseDataURI(req.Image)
	if err != nil {
		return nil, domain.NewValidationError("image", err.Error())
	}
	return payload, nil
}

// checkWriteRequest rejects repeated tag or ingredient ids.
func checkWriteRequest(req domain.RecipeWriteRequest) error {
	seenTags := make(map[uint]bool, len(req.Tags))
	for _, id := range req.Tags {
		if seenTags[id] {
			return domain.NewValidationError("tags", fmt.Sprintf("tag %d is listed more than once", id))
		}
		seenTags[id] = true
	}

	seenIngredients := make(map[uint]bool, len(req.Ingredients))
	for _, item := range req.Ingredients {
		if seenIngredients[item.ID] {
			return domain.NewValidationError("ingredients", fmt.Sprintf("ingredient %d is listed more than once", item.ID))
		}
		seenIngredients[item.ID] = true
	}
	return nil
}
