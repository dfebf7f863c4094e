package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/testinfra"
	"foodgram/internal/utils/mailing"
	"foodgram/internal/utils/storage"
	"foodgram/pkg/jwt"
	"foodgram/pkg/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type sentMail struct {
	to      string
	subject string
}

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendMail(to, subject, _ string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return m.err
}

func newTestService(t *testing.T) (UserService, *gorm.DB, *recordingMailer) {
	t.Helper()

	db := testinfra.NewTestDB(t)
	store, err := storage.NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)
	mailer := &recordingMailer{}

	svc := NewUserService(
		NewUserRepository(db),
		recipe.NewRecipeRepository(db),
		jwt.NewJWTService("test-secret", time.Hour),
		store,
		mailer,
		mailing.MailConfig{AppURL: "http://foodgram.test"},
		WithHashCost(bcrypt.MinCost),
	)
	return svc, db, mailer
}

func registerRequest(username string) domain.RegisterUserRequest {
	return domain.RegisterUserRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Vasya",
		LastName:  "Pupkin",
		Password:  testinfra.TestPassword,
	}
}

func TestRegister(t *testing.T) {
	svc, _, mailer := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, registerRequest("vasya"))
	require.NoError(t, err)
	assert.NotZero(t, res.ID)
	assert.Equal(t, "vasya@example.com", res.Email)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "vasya@example.com", mailer.sent[0].to)

	dupEmail := registerRequest("other")
	dupEmail.Email = "VASYA@example.com"
	_, err = svc.Register(ctx, dupEmail)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	dupName := registerRequest("vasya")
	dupName.Email = "new@example.com"
	_, err = svc.Register(ctx, dupName)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)
}

func TestRegisterIgnoresMailFailure(t *testing.T) {
	svc, _, mailer := newTestService(t)
	mailer.err = errors.New("smtp down")

	_, err := svc.Register(context.Background(), registerRequest("vasya"))
	require.NoError(t, err)
	assert.Len(t, mailer.sent, 1)
}

func TestLoginAuthenticateLogout(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	admin := testinfra.CreateUser(t, db, "chef", true)

	_, err := svc.Login(ctx, domain.LoginRequest{Email: "chef@foodgram.test", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, domain.LoginRequest{Email: "nobody@foodgram.test", Password: testinfra.TestPassword})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	token, err := svc.Login(ctx, domain.LoginRequest{Email: "chef@foodgram.test", Password: testinfra.TestPassword})
	require.NoError(t, err)
	require.NotEmpty(t, token.AuthToken)

	actor, err := svc.Authenticate(ctx, token.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{UserID: admin.ID, IsAdmin: true}, actor)

	require.NoError(t, svc.Logout(ctx, token.AuthToken))
	_, err = svc.Authenticate(ctx, token.AuthToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAuthenticateDeletedUser(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	u := testinfra.CreateUser(t, db, "ghost", false)

	token, err := svc.Login(ctx, domain.LoginRequest{Email: "ghost@foodgram.test", Password: testinfra.TestPassword})
	require.NoError(t, err)
	require.NoError(t, db.Delete(&entities.User{}, u.ID).Error)

	_, err = svc.Authenticate(ctx, token.AuthToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestSetPassword(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	u := testinfra.CreateUser(t, db, "vasya", false)
	actor := domain.Actor{UserID: u.ID}

	err := svc.SetPassword(ctx, actor, domain.SetPasswordRequest{NewPassword: "brand-new-pass", CurrentPassword: "wrong"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "current_password", verr.Field)

	require.NoError(t, svc.SetPassword(ctx, actor, domain.SetPasswordRequest{NewPassword: "brand-new-pass", CurrentPassword: testinfra.TestPassword}))

	_, err = svc.Login(ctx, domain.LoginRequest{Email: u.Email, Password: testinfra.TestPassword})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, domain.LoginRequest{Email: u.Email, Password: "brand-new-pass"})
	assert.NoError(t, err)
}

func TestSubscribe(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	reader := testinfra.CreateUser(t, db, "reader", false)
	author := testinfra.CreateUser(t, db, "author", false)
	actor := domain.Actor{UserID: reader.ID}
	testinfra.CreateRecipe(t, db, author, "First", nil)
	testinfra.CreateRecipe(t, db, author, "Second", nil)
	third := testinfra.CreateRecipe(t, db, author, "Third", nil)

	_, err := svc.Subscribe(ctx, actor, reader.ID, 0)
	assert.ErrorIs(t, err, domain.ErrSelfSubscription)
	var edges int64
	require.NoError(t, db.Model(&entities.FollowingAuthor{}).Count(&edges).Error)
	assert.Zero(t, edges)

	res, err := svc.Subscribe(ctx, actor, author.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, author.ID, res.ID)
	assert.True(t, res.IsSubscribed)
	assert.Equal(t, int64(3), res.RecipesCount)
	require.Len(t, res.Recipes, 1)
	assert.Equal(t, third.ID, res.Recipes[0].ID)
	assert.Equal(t, "/media/recipes/Third.png", res.Recipes[0].Image)

	_, err = svc.Subscribe(ctx, actor, author.ID, 0)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)
	_, err = svc.Subscribe(ctx, actor, author.ID+100, 0)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = svc.Subscribe(ctx, domain.Actor{}, author.ID, 0)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	got, err := svc.GetUserByID(ctx, actor, author.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSubscribed)
	got, err = svc.GetUserByID(ctx, domain.Actor{}, author.ID)
	require.NoError(t, err)
	assert.False(t, got.IsSubscribed)

	require.NoError(t, svc.Unsubscribe(ctx, actor, author.ID))
	assert.ErrorIs(t, svc.Unsubscribe(ctx, actor, author.ID), domain.ErrNotSubscribed)
}

func TestGetSubscriptions(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	reader := testinfra.CreateUser(t, db, "reader", false)
	actor := domain.Actor{UserID: reader.ID}

	var authors []*entities.User
	for _, name := range []string{"alpha", "beta", "gamma"} {
		a := testinfra.CreateUser(t, db, name, false)
		testinfra.CreateRecipe(t, db, a, name+"-soup", nil)
		testinfra.CreateRecipe(t, db, a, name+"-salad", nil)
		_, err := svc.Subscribe(ctx, actor, a.ID, 0)
		require.NoError(t, err)
		authors = append(authors, a)
	}
	testinfra.CreateUser(t, db, "stranger", false)

	page, count, err := svc.GetSubscriptions(ctx, actor, 1, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	require.Len(t, page, 2)
	assert.Equal(t, authors[0].ID, page[0].ID)
	assert.Equal(t, authors[1].ID, page[1].ID)
	for _, s := range page {
		assert.True(t, s.IsSubscribed)
		assert.Len(t, s.Recipes, 1)
		assert.Equal(t, int64(2), s.RecipesCount)
	}

	page, _, err = svc.GetSubscriptions(ctx, actor, 2, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, authors[2].ID, page[0].ID)
	assert.Len(t, page[0].Recipes, 2)

	_, _, err = svc.GetSubscriptions(ctx, domain.Actor{}, 1, 2, 0)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestGetUsers(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	first := testinfra.CreateUser(t, db, "first", false)
	second := testinfra.CreateUser(t, db, "second", false)
	require.NoError(t, db.Create(&entities.FollowingAuthor{UserID: first.ID, AuthorID: second.ID}).Error)

	users, count, err := svc.GetUsers(ctx, domain.Actor{UserID: first.ID}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	require.Len(t, users, 2)
	assert.False(t, users[0].IsSubscribed)
	assert.True(t, users[1].IsSubscribed)

	me, err := svc.Me(ctx, domain.Actor{UserID: second.ID})
	require.NoError(t, err)
	assert.Equal(t, "second", me.Username)

	_, err = svc.Me(ctx, domain.Actor{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = svc.GetUserByID(ctx, domain.Actor{}, second.ID+100)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDeleteMeKeepsRecipes(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	author := testinfra.CreateUser(t, db, "author", false)
	fan := testinfra.CreateUser(t, db, "fan", false)
	r := testinfra.CreateRecipe(t, db, author, "Pancakes", nil)
	require.NoError(t, db.Create(&entities.FollowingAuthor{UserID: fan.ID, AuthorID: author.ID}).Error)
	require.NoError(t, db.Create(&entities.FavoriteRecipe{UserID: author.ID, RecipeID: r.ID}).Error)

	err := svc.DeleteMe(ctx, domain.Actor{UserID: author.ID}, domain.DeleteUserRequest{CurrentPassword: "wrong"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	require.NoError(t, svc.DeleteMe(ctx, domain.Actor{UserID: author.ID}, domain.DeleteUserRequest{CurrentPassword: testinfra.TestPassword}))

	var kept entities.Recipe
	require.NoError(t, db.First(&kept, r.ID).Error)
	assert.Nil(t, kept.AuthorID)

	for _, model := range []any{&entities.FollowingAuthor{}, &entities.FavoriteRecipe{}} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}

	_, err = svc.GetUserByID(ctx, domain.Actor{}, author.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
