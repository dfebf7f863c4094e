package domain

import "errors"

var (
	MessageFailedRegister        = "failed to register user"
	MessageFailedLogin           = "failed to login"
	MessageFailedLogout          = "failed to logout"
	MessageFailedGetUsers        = "failed to get users"
	MessageFailedGetUser         = "failed to get user"
	MessageFailedSetPassword     = "failed to change password"
	MessageFailedDeleteUser      = "failed to delete user"
	MessageFailedSubscribe       = "failed to subscribe"
	MessageFailedUnsubscribe     = "failed to unsubscribe"
	MessageFailedGetSubscription = "failed to get subscriptions"

	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("unable to log in with provided credentials")
	ErrWrongPassword       = errors.New("invalid password")
	ErrEmailTaken          = errors.New("user with this email already exists")
	ErrUsernameTaken       = errors.New("user with this username already exists")
	ErrSelfSubscription    = errors.New("you cannot subscribe to yourself")
	ErrAlreadySubscribed   = errors.New("you are already subscribed to this author")
	ErrNotSubscribed       = errors.New("you are not subscribed to this author")
	ErrPasswordHashFailure = errors.New("failed to hash password")
)

type (
	UserResponse struct {
		ID           uint   `json:"id"`
		Email        string `json:"email"`
		Username     string `json:"username"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		IsSubscribed bool   `json:"is_subscribed"`
	}

	RegisterUserRequest struct {
		Email     string `json:"email" validate:"required,email,max=254"`
		Username  string `json:"username" validate:"required,max=150,username"`
		FirstName string `json:"first_name" validate:"required,max=150"`
		LastName  string `json:"last_name" validate:"required,max=150"`
		Password  string `json:"password" validate:"required,min=8,max=128"`
	}

	RegisterUserResponse struct {
		ID        uint   `json:"id"`
		Email     string `json:"email"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	TokenResponse struct {
		AuthToken string `json:"auth_token"`
	}

	SetPasswordRequest struct {
		NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
		CurrentPassword string `json:"current_password" validate:"required"`
	}

	DeleteUserRequest struct {
		CurrentPassword string `json:"current_password" validate:"required"`
	}

	SubscriptionResponse struct {
		UserResponse
		Recipes      []RecipeMinResponse `json:"recipes"`
		RecipesCount int64               `json:"recipes_count"`
	}
)
