package user

import (
	"context"
	"errors"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/logging"
	"foodgram/internal/utils/mailing"
	"foodgram/internal/utils/storage"
	"foodgram/pkg/jwt"
	"foodgram/pkg/recipe"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterUserRequest) (domain.RegisterUserResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.TokenResponse, error)
		Logout(ctx context.Context, token string) error
		Authenticate(ctx context.Context, token string) (domain.Actor, error)

		GetUsers(ctx context.Context, actor domain.Actor, page, limit int) ([]domain.UserResponse, int64, error)
		GetUserByID(ctx context.Context, actor domain.Actor, id uint) (domain.UserResponse, error)
		Me(ctx context.Context, actor domain.Actor) (domain.UserResponse, error)
		SetPassword(ctx context.Context, actor domain.Actor, req domain.SetPasswordRequest) error
		DeleteMe(ctx context.Context, actor domain.Actor, req domain.DeleteUserRequest) error

		Subscribe(ctx context.Context, actor domain.Actor, authorID uint, recipesLimit int) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, actor domain.Actor, authorID uint) error
		GetSubscriptions(ctx context.Context, actor domain.Actor, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error)
	}

	userService struct {
		userRepository   UserRepository
		recipeRepository recipe.RecipeRepository
		jwtService       jwt.JWTService
		storage          storage.Storage
		mailer           mailing.Mailer
		mailConfig       mailing.MailConfig
		hashCost         int
	}

	Option func(*userService)
)

// WithHashCost overrides the bcrypt cost, mostly to keep tests fast.
func WithHashCost(cost int) Option {
	return func(s *userService) { s.hashCost = cost }
}

func NewUserService(
	userRepository UserRepository,
	recipeRepository recipe.RecipeRepository,
	jwtService jwt.JWTService,
	storage storage.Storage,
	mailer mailing.Mailer,
	mailConfig mailing.MailConfig,
	opts ...Option,
) UserService {
	s := &userService{
		userRepository:   userRepository,
		recipeRepository: recipeRepository,
		jwtService:       jwtService,
		storage:          storage,
		mailer:           mailer,
		mailConfig:       mailConfig,
		hashCost:         bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *userService) Register(ctx context.Context, req domain.RegisterUserRequest) (domain.RegisterUserResponse, error) {
	if err := s.checkTaken(ctx, req.Email, req.Username); err != nil {
		return domain.RegisterUserResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return domain.RegisterUserResponse{}, domain.ErrPasswordHashFailure
	}

	user := &entities.User{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hash),
	}
	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if takenErr := s.checkTaken(ctx, req.Email, req.Username); takenErr != nil {
				return domain.RegisterUserResponse{}, takenErr
			}
			return domain.RegisterUserResponse{}, domain.NewValidationError("email", domain.ErrEmailTaken.Error())
		}
		return domain.RegisterUserResponse{}, err
	}

	subject, body := mailing.WelcomeMail(s.mailConfig, user.Username)
	if err := s.mailer.SendMail(user.Email, subject, body); err != nil {
		logging.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to send welcome mail")
	}

	return domain.RegisterUserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func (s *userService) checkTaken(ctx context.Context, email, username string) error {
	emailTaken, usernameTaken, err := s.userRepository.FindTaken(ctx, email, username)
	if err != nil {
		return err
	}
	if emailTaken {
		return domain.NewValidationError("email", domain.ErrEmailTaken.Error())
	}
	if usernameTaken {
		return domain.NewValidationError("username", domain.ErrUsernameTaken.Error())
	}
	return nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.TokenResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TokenResponse{}, domain.ErrInvalidCredentials
		}
		return domain.TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.TokenResponse{}, domain.ErrInvalidCredentials
	}

	role := domain.RoleUser
	if user.IsAdmin {
		role = domain.RoleAdmin
	}
	token, err := s.jwtService.GenerateTokenUser(user.ID, role)
	if err != nil {
		return domain.TokenResponse{}, err
	}
	return domain.TokenResponse{AuthToken: token}, nil
}

func (s *userService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtService.GetClaims(token)
	if err != nil {
		return err
	}
	return s.userRepository.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Authenticate resolves a bearer token to the actor it was issued for. The
// admin flag comes from the stored user, not from the token.
func (s *userService) Authenticate(ctx context.Context, token string) (domain.Actor, error) {
	claims, err := s.jwtService.GetClaims(token)
	if err != nil {
		return domain.Actor{}, err
	}

	revoked, err := s.userRepository.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return domain.Actor{}, err
	}
	if revoked {
		return domain.Actor{}, domain.ErrTokenRevoked
	}

	userID, err := claims.ParsedUserID()
	if err != nil {
		return domain.Actor{}, err
	}
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Actor{}, domain.ErrTokenInvalid
		}
		return domain.Actor{}, err
	}

	return domain.Actor{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

func (s *userService) GetUsers(ctx context.Context, actor domain.Actor, page, limit int) ([]domain.UserResponse, int64, error) {
	users, count, err := s.userRepository.GetUsers(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	followed, err := s.userRepository.FollowedAuthorIDs(ctx, actor.UserID, ids)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, recipe.ToUserResponse(u, followed[u.ID]))
	}
	return res, count, nil
}

func (s *userService) GetUserByID(ctx context.Context, actor domain.Actor, id uint) (domain.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return domain.UserResponse{}, err
	}

	followed, err := s.userRepository.FollowedAuthorIDs(ctx, actor.UserID, []uint{user.ID})
	if err != nil {
		return domain.UserResponse{}, err
	}
	return recipe.ToUserResponse(user, followed[user.ID]), nil
}

func (s *userService) Me(ctx context.Context, actor domain.Actor) (domain.UserResponse, error) {
	if !actor.IsAuthenticated() {
		return domain.UserResponse{}, domain.ErrUnauthenticated
	}
	return s.GetUserByID(ctx, actor, actor.UserID)
}

func (s *userService) SetPassword(ctx context.Context, actor domain.Actor, req domain.SetPasswordRequest) error {
	user, err := s.currentUser(ctx, actor, req.CurrentPassword)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.hashCost)
	if err != nil {
		return domain.ErrPasswordHashFailure
	}
	return s.userRepository.UpdatePassword(ctx, user.ID, string(hash))
}

func (s *userService) DeleteMe(ctx context.Context, actor domain.Actor, req domain.DeleteUserRequest) error {
	user, err := s.currentUser(ctx, actor, req.CurrentPassword)
	if err != nil {
		return err
	}

	if err := s.userRepository.DeleteUser(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	return nil
}

// currentUser loads the actor and checks that password is theirs.
func (s *userService) currentUser(ctx context.Context, actor domain.Actor, password string) (*entities.User, error) {
	if !actor.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.getUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.NewValidationError("current_password", domain.ErrWrongPassword.Error())
	}
	return user, nil
}

func (s *userService) Subscribe(ctx context.Context, actor domain.Actor, authorID uint, recipesLimit int) (domain.SubscriptionResponse, error) {
	if !actor.IsAuthenticated() {
		return domain.SubscriptionResponse{}, domain.ErrUnauthenticated
	}

	author, err := s.getUser(ctx, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if author.ID == actor.UserID {
		return domain.SubscriptionResponse{}, domain.ErrSelfSubscription
	}

	if err := s.userRepository.CreateFollowing(ctx, actor.UserID, author.ID); err != nil {
		return domain.SubscriptionResponse{}, err
	}

	res, err := s.toSubscriptions(ctx, []*entities.User{author}, recipesLimit)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	return res[0], nil
}

func (s *userService) Unsubscribe(ctx context.Context, actor domain.Actor, authorID uint) error {
	if !actor.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}

	author, err := s.getUser(ctx, authorID)
	if err != nil {
		return err
	}
	return s.userRepository.DeleteFollowing(ctx, actor.UserID, author.ID)
}

func (s *userService) GetSubscriptions(ctx context.Context, actor domain.Actor, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error) {
	if !actor.IsAuthenticated() {
		return nil, 0, domain.ErrUnauthenticated
	}

	authors, count, err := s.userRepository.GetFollowedAuthors(ctx, actor.UserID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res, err := s.toSubscriptions(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return res, count, nil
}

// toSubscriptions renders followed authors with up to recipesLimit of their
// newest recipes; recipesLimit <= 0 means all of them.
func (s *userService) toSubscriptions(ctx context.Context, authors []*entities.User, recipesLimit int) ([]domain.SubscriptionResponse, error) {
	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.recipeRepository.CountRecipesByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := make([]domain.SubscriptionResponse, 0, len(authors))
	for _, a := range authors {
		recipes, err := s.recipeRepository.GetRecipesByAuthor(ctx, a.ID, recipesLimit)
		if err != nil {
			return nil, err
		}

		item := domain.SubscriptionResponse{
			UserResponse: recipe.ToUserResponse(a, true),
			Recipes:      make([]domain.RecipeMinResponse, 0, len(recipes)),
			RecipesCount: counts[a.ID],
		}
		for _, r := range recipes {
			item.Recipes = append(item.Recipes, recipe.ToRecipeMinResponse(r, s.storage))
		}
		res = append(res, item)
	}
	return res, nil
}

func (s *userService) getUser(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
