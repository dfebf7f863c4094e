package handlers

import (
	"strconv"
	"strings"

	"foodgram/domain"
	"foodgram/internal/api/presenters"
	"foodgram/internal/middleware"
	"foodgram/internal/utils/storage"
	"foodgram/pkg/recipe"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

type (
	RecipeHandler interface {
		GetRecipes(c *fiber.Ctx) error
		GetRecipe(c *fiber.Ctx) error
		CreateRecipe(c *fiber.Ctx) error
		UpdateRecipe(c *fiber.Ctx) error
		DeleteRecipe(c *fiber.Ctx) error
		AddFavorite(c *fiber.Ctx) error
		RemoveFavorite(c *fiber.Ctx) error
		AddToShoppingCart(c *fiber.Ctx) error
		RemoveFromShoppingCart(c *fiber.Ctx) error
		DownloadShoppingCart(c *fiber.Ctx) error
	}

	recipeHandler struct {
		recipeService recipe.RecipeService
		validator     *validator.Validate
	}
)

func NewRecipeHandler(recipeService recipe.RecipeService, validator *validator.Validate) RecipeHandler {
	return &recipeHandler{
		recipeService: recipeService,
		validator:     validator,
	}
}

func (h *recipeHandler) GetRecipes(c *fiber.Ctx) error {
	page, limit := presenters.ParsePagination(c)
	filter := domain.RecipeFilter{
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
		Page:             page,
		Limit:            limit,
	}
	if author := c.QueryInt("author", 0); author > 0 {
		filter.AuthorID = uint(author)
	}
	for _, slug := range c.Request().URI().QueryArgs().PeekMulti("tags") {
		if len(slug) > 0 {
			filter.Tags = append(filter.Tags, string(slug))
		}
	}

	res, count, err := h.recipeService.GetRecipes(c.UserContext(), middleware.Actor(c), filter)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetRecipes, err)
	}
	return presenters.SuccessResponse(c, presenters.Paginate(c, res, count, page, limit), fiber.StatusOK)
}

func (h *recipeHandler) GetRecipe(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c)
	}

	res, err := h.recipeService.GetRecipeByID(c.UserContext(), middleware.Actor(c), id)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetRecipeDetail, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK)
}

func (h *recipeHandler) CreateRecipe(c *fiber.Ctx) error {
	req, err := h.parseWriteRequest(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateRecipe, err)
	}

	res, err := h.recipeService.CreateRecipe(c.UserContext(), middleware.Actor(c), *req)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedCreateRecipe, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated)
}

func (h *recipeHandler) UpdateRecipe(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c)
	}

	req, err := h.parseWriteRequest(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateRecipe, err)
	}

	res, err := h.recipeService.UpdateRecipe(c.UserContext(), middleware.Actor(c), id, *req)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedUpdateRecipe, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK)
}

func (h *recipeHandler) DeleteRecipe(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.recipeService.DeleteRecipe(c.UserContext(), middleware.Actor(c), id); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedDeleteRecipe, err)
	}
	return presenters.NoContent(c)
}

func (h *recipeHandler) AddFavorite(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c)
	}

	res, err := h.recipeService.AddFavorite(c.UserContext(), middleware.Actor(c), id)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedAddFavorite, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated)
}

func (h *recipeHandler) RemoveFavorite(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.recipeService.RemoveFavorite(c.UserContext(), middleware.Actor(c), id); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedRemoveFavorite, err)
	}
	return presenters.NoContent(c)
}

func (h *recipeHandler) AddToShoppingCart(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c)
	}

	res, err := h.recipeService.AddToShoppingCart(c.UserContext(), middleware.Actor(c), id)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedAddToCart, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated)
}

func (h *recipeHandler) RemoveFromShoppingCart(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.recipeService.RemoveFromShoppingCart(c.UserContext(), middleware.Actor(c), id); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedRemoveFromCart, err)
	}
	return presenters.NoContent(c)
}

func (h *recipeHandler) DownloadShoppingCart(c *fiber.Ctx) error {
	file, err := h.recipeService.DownloadShoppingCart(c.UserContext(), middleware.Actor(c), c.Query("format"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedDownloadCart, err)
	}

	c.Attachment(file.FileName)
	c.Set(fiber.HeaderContentType, file.ContentType)
	return c.Status(fiber.StatusOK).Send(file.Body)
}

// parseWriteRequest accepts JSON with a data URI image, or a multipart form
// where tags repeat, ingredients is a JSON array and image is a file.
func (h *recipeHandler) parseWriteRequest(c *fiber.Ctx) (*domain.RecipeWriteRequest, error) {
	req := new(domain.RecipeWriteRequest)
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if err := c.BodyParser(req); err != nil {
			return nil, err
		}
		return req, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	req.Name = value("name")
	req.Text = value("text")
	if raw := value("cooking_time"); raw != "" {
		if req.CookingTime, err = strconv.Atoi(raw); err != nil {
			return nil, domain.NewValidationError("cooking_time", "a valid integer is required")
		}
	}
	for _, raw := range form.Value["tags"] {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, domain.NewValidationError("tags", "a valid integer is required")
		}
		req.Tags = append(req.Tags, uint(id))
	}
	if raw := value("ingredients"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Ingredients); err != nil {
			return nil, domain.NewValidationError("ingredients", "expected a JSON list of {id, amount}")
		}
	}

	if files := form.File["image"]; len(files) > 0 {
		payload, err := storage.ReadMultipartImage(files[0])
		if err != nil {
			return nil, domain.NewValidationError("image", err.Error())
		}
		req.ImagePayload = payload
	} else {
		req.Image = value("image")
	}
	return req, nil
}
