package routes

import (
	"foodgram/internal/api/handlers"
	"foodgram/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

const apiPrefix = "/api/v1"

type Config struct {
	App               *fiber.App
	UserHandler       handlers.UserHandler
	TagHandler        handlers.TagHandler
	IngredientHandler handlers.IngredientHandler
	RecipeHandler     handlers.RecipeHandler
	Middleware        middleware.Middleware
	Authenticator     middleware.Authenticator
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Tags()
	c.Ingredients()
	c.Recipes()
	c.User()
	c.Auth()
	c.GuestRoute()
}

func (c *Config) Tags() {
	tags := c.App.Group(apiPrefix + "/tags")
	{
		tags.Get("/", c.TagHandler.GetTags)
		tags.Get("/:id", c.TagHandler.GetTag)
		readOnly(tags)
	}
}

func (c *Config) Ingredients() {
	ingredients := c.App.Group(apiPrefix + "/ingredients")
	{
		ingredients.Get("/", c.IngredientHandler.GetIngredients)
		ingredients.Get("/:id", c.IngredientHandler.GetIngredient)
		readOnly(ingredients)
	}
}

func (c *Config) Recipes() {
	auth := c.Middleware.AuthMiddleware(c.Authenticator)
	optional := c.Middleware.OptionalAuthMiddleware(c.Authenticator)

	recipes := c.App.Group(apiPrefix + "/recipes")
	{
		// static segments before /:id
		recipes.Get("/download_shopping_cart", auth, c.RecipeHandler.DownloadShoppingCart)

		recipes.Get("/", optional, c.RecipeHandler.GetRecipes)
		recipes.Post("/", auth, c.RecipeHandler.CreateRecipe)
		recipes.Get("/:id", optional, c.RecipeHandler.GetRecipe)
		recipes.Patch("/:id", auth, c.RecipeHandler.UpdateRecipe)
		recipes.Delete("/:id", auth, c.RecipeHandler.DeleteRecipe)

		recipes.Post("/:id/favorite", auth, c.RecipeHandler.AddFavorite)
		recipes.Delete("/:id/favorite", auth, c.RecipeHandler.RemoveFavorite)
		recipes.Post("/:id/shopping_cart", auth, c.RecipeHandler.AddToShoppingCart)
		recipes.Delete("/:id/shopping_cart", auth, c.RecipeHandler.RemoveFromShoppingCart)
	}
}

func (c *Config) User() {
	auth := c.Middleware.AuthMiddleware(c.Authenticator)
	optional := c.Middleware.OptionalAuthMiddleware(c.Authenticator)

	user := c.App.Group(apiPrefix + "/users")
	{
		user.Post("/", c.UserHandler.Register)
		user.Get("/", optional, c.UserHandler.GetUsers)

		user.Get("/me", auth, c.UserHandler.Me)
		user.Delete("/me", auth, c.UserHandler.DeleteMe)
		user.Post("/set_password", auth, c.UserHandler.SetPassword)
		user.Get("/subscriptions", auth, c.UserHandler.GetSubscriptions)

		user.Get("/:id", optional, c.UserHandler.GetUser)
		user.Post("/:id/subscribe", auth, c.UserHandler.Subscribe)
		user.Delete("/:id/subscribe", auth, c.UserHandler.Unsubscribe)
	}
}

func (c *Config) Auth() {
	token := c.App.Group(apiPrefix + "/auth/token")
	{
		token.Post("/login", c.UserHandler.Login)
		token.Post("/logout", c.Middleware.AuthMiddleware(c.Authenticator), c.UserHandler.Logout)
	}
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}

func readOnly(group fiber.Router) {
	for _, path := range []string{"/", "/:id"} {
		group.Post(path, handlers.MethodNotAllowed)
		group.Put(path, handlers.MethodNotAllowed)
		group.Patch(path, handlers.MethodNotAllowed)
		group.Delete(path, handlers.MethodNotAllowed)
	}
}
