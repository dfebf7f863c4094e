package user

import (
	"context"
	"errors"
	"time"

	"foodgram/domain"
	"foodgram/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	UserRepository interface {
		CreateUser(ctx context.Context, user *entities.User) error
		GetUserByID(ctx context.Context, id uint) (*entities.User, error)
		GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
		GetUsers(ctx context.Context, page, limit int) ([]*entities.User, int64, error)
		FindTaken(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error)
		UpdatePassword(ctx context.Context, id uint, hash string) error
		DeleteUser(ctx context.Context, id uint) error

		CreateFollowing(ctx context.Context, userID, authorID uint) error
		DeleteFollowing(ctx context.Context, userID, authorID uint) error
		FollowedAuthorIDs(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error)
		GetFollowedAuthors(ctx context.Context, userID uint, page, limit int) ([]*entities.User, int64, error)

		RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
		IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	}

	userRepository struct {
		db *gorm.DB
	}
)

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUsers(ctx context.Context, page, limit int) ([]*entities.User, int64, error) {
	var users []*entities.User
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

func (r *userRepository) FindTaken(ctx context.Context, email, username string) (bool, bool, error) {
	var emails, usernames int64
	if err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("LOWER(email) = LOWER(?)", email).
		Count(&emails).Error; err != nil {
		return false, false, err
	}
	if err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("username = ?", username).
		Count(&usernames).Error; err != nil {
		return false, false, err
	}
	return emails > 0, usernames > 0, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteUser removes the user and everything that belongs to them except
// their recipes, which are kept with a null author.
func (r *userRepository) DeleteUser(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Recipe{}).
			Where("author_id = ?", id).
			Update("author_id", nil).Error; err != nil {
			return err
		}
		for _, model := range []any{&entities.FavoriteRecipe{}, &entities.BasketRecipe{}} {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ? OR author_id = ?", id, id).Delete(&entities.FollowingAuthor{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&entities.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *userRepository) CreateFollowing(ctx context.Context, userID, authorID uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.FollowingAuthor{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrAlreadySubscribed
	}
	return insertFollowing(ctx, r.db, &entities.FollowingAuthor{UserID: userID, AuthorID: authorID})
}

// insertFollowing creates edge; losing a race on the unique pair index is
// reported as ErrAlreadySubscribed.
func insertFollowing(ctx context.Context, db *gorm.DB, edge *entities.FollowingAuthor) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(edge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadySubscribed
		}
		return err
	}
	return nil
}

func (r *userRepository) DeleteFollowing(ctx context.Context, userID, authorID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&entities.FollowingAuthor{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotSubscribed
	}
	return nil
}

func (r *userRepository) FollowedAuthorIDs(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error) {
	followed := make(map[uint]bool)
	if userID == 0 || len(authorIDs) == 0 {
		return followed, nil
	}

	var ids []uint
	if err := r.db.WithContext(ctx).Model(&entities.FollowingAuthor{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		followed[id] = true
	}
	return followed, nil
}

func (r *userRepository) GetFollowedAuthors(ctx context.Context, userID uint, page, limit int) ([]*entities.User, int64, error) {
	var authors []*entities.User
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).Model(&entities.FollowingAuthor{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Joins("JOIN following_authors ON following_authors.author_id = users.id").
		Where("following_authors.user_id = ?", userID).
		Order("users.id asc").
		Offset(offset).
		Limit(limit).
		Find(&authors).Error; err != nil {
		return nil, 0, err
	}
	return authors, count, nil
}

// RevokeToken records a logged out jti and drops entries that have expired
// on their own.
func (r *userRepository) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at < ?", time.Now().UTC()).Delete(&entities.RevokedToken{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "jti"}},
			DoNothing: true,
		}).Create(&entities.RevokedToken{JTI: jti, ExpiresAt: expiresAt.UTC()}).Error
	})
}

func (r *userRepository) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
