package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"foodgram/internal/api/handlers"
	"foodgram/internal/api/presenters"
	"foodgram/internal/api/routes"
	"foodgram/internal/middleware"
	"foodgram/internal/utils"
	"foodgram/internal/utils/mailing"
	"foodgram/internal/utils/storage"
	"foodgram/pkg/ingredient"
	"foodgram/pkg/jwt"
	"foodgram/pkg/recipe"
	"foodgram/pkg/tag"
	"foodgram/pkg/user"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// AppOptions are the collaborators of NewApp that differ between the server
// and tests.
type AppOptions struct {
	Storage    storage.Storage
	Mailer     mailing.Mailer
	MailConfig mailing.MailConfig
	JWTSecret  string
	JWTTTL     time.Duration
	// RateLimit is the number of requests per client per second; 0 disables
	// the limiter.
	RateLimit int
	// MediaRoot is served under MediaURL when set.
	MediaRoot   string
	MediaURL    string
	CORSOrigins string
	AccessLog   io.Writer
	// PasswordHashCost overrides the bcrypt cost when non-zero.
	PasswordHashCost int
	// PDFFont is a UTF-8 TrueType font for PDF shopping lists.
	PDFFont []byte
}

// LoadAppOptions builds the server options from the loaded config.
func LoadAppOptions(ctx context.Context) (AppOptions, error) {
	secret := utils.GetConfig("JWT_SECRET")
	if secret == "" {
		return AppOptions{}, errors.New("JWT_SECRET is not set")
	}

	store, err := storage.NewStorage(ctx)
	if err != nil {
		return AppOptions{}, fmt.Errorf("init storage: %w", err)
	}

	opts := AppOptions{
		Storage:     store,
		MailConfig:  mailing.LoadMailConfig(),
		JWTSecret:   secret,
		JWTTTL:      time.Duration(utils.GetConfigInt("JWT_TTL_MINUTES", 1440)) * time.Minute,
		RateLimit:   utils.GetConfigInt("RATE_LIMIT_MAX", 100),
		CORSOrigins: utils.GetConfig("CORS_ORIGINS"),
		AccessLog:   os.Stdout,
	}
	opts.Mailer = mailing.NewMailer(opts.MailConfig)

	if utils.GetConfig("STORAGE_DRIVER") == "" || utils.GetConfig("STORAGE_DRIVER") == "local" {
		opts.MediaRoot = utils.GetConfig("MEDIA_ROOT")
		opts.MediaURL = utils.GetConfig("MEDIA_URL")
	}

	if path := utils.GetConfig("PDF_FONT_PATH"); path != "" {
		font, err := os.ReadFile(path)
		if err != nil {
			return AppOptions{}, fmt.Errorf("read pdf font: %w", err)
		}
		opts.PDFFont = font
	}

	if path := utils.GetConfig("LOG_FILE"); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return AppOptions{}, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return AppOptions{}, fmt.Errorf("open log file: %w", err)
		}
		opts.AccessLog = file
	}
	return opts, nil
}

func NewApp(db *gorm.DB, opts AppOptions) (*fiber.App, error) {
	if opts.Storage == nil {
		return nil, errors.New("storage is required")
	}
	if opts.Mailer == nil {
		opts.Mailer = mailing.NewMailer(opts.MailConfig)
	}

	utils.InitValidator()
	app := fiber.New(fiber.Config{
		AppName:       "foodgram",
		StrictRouting: false,
		BodyLimit:     storage.MaxImageBytes * 2,
		JSONEncoder:   json.Marshal,
		JSONDecoder:   json.Unmarshal,
		ErrorHandler:  errorHandler,
	})
	middlewares := middleware.NewMiddleware(opts.CORSOrigins)
	validator := utils.Validate

	app.Use(recover.New())
	if opts.AccessLog != nil {
		app.Use(logger.New(logger.Config{
			TimeFormat: "2006-01-02 15:04:05",
			TimeZone:   "UTC",
			Output:     opts.AccessLog,
		}))
	}
	if opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: 1 * time.Second,
		}))
	}
	app.Use(middlewares.MetricsMiddleware())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if opts.MediaRoot != "" && opts.MediaURL != "" {
		app.Static(opts.MediaURL, opts.MediaRoot)
	}

	// Repository
	userRepository := user.NewUserRepository(db)
	tagRepository := tag.NewTagRepository(db)
	ingredientRepository := ingredient.NewIngredientRepository(db)
	recipeRepository := recipe.NewRecipeRepository(db)

	// Service
	var userOpts []user.Option
	if opts.PasswordHashCost > 0 {
		userOpts = append(userOpts, user.WithHashCost(opts.PasswordHashCost))
	}
	jwtService := jwt.NewJWTService(opts.JWTSecret, opts.JWTTTL)
	userService := user.NewUserService(
		userRepository,
		recipeRepository,
		jwtService,
		opts.Storage,
		opts.Mailer,
		opts.MailConfig,
		userOpts...,
	)
	tagService := tag.NewTagService(tagRepository)
	ingredientService := ingredient.NewIngredientService(ingredientRepository)
	var recipeOpts []recipe.Option
	if len(opts.PDFFont) > 0 {
		recipeOpts = append(recipeOpts, recipe.WithPDFFont(opts.PDFFont))
	}
	recipeService := recipe.NewRecipeService(recipeRepository, opts.Storage, recipeOpts...)

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	tagHandler := handlers.NewTagHandler(tagService)
	ingredientHandler := handlers.NewIngredientHandler(ingredientService)
	recipeHandler := handlers.NewRecipeHandler(recipeService, validator)

	// routes
	routesConfig := routes.Config{
		App:               app,
		UserHandler:       userHandler,
		TagHandler:        tagHandler,
		IngredientHandler: ingredientHandler,
		RecipeHandler:     recipeHandler,
		Middleware:        middlewares,
		Authenticator:     userService,
	}
	routesConfig.Setup()
	return app, nil
}

// errorHandler renders errors that escape the handlers, such as unknown
// routes or panics recovered by the recover middleware.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return presenters.ErrorResponse(c, fe.Code, fe.Message, nil)
	}
	return presenters.ErrorResponse(c, fiber.StatusInternalServerError, "internal server error", err)
}
