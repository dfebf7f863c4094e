package entities

import "time"

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Email     string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username  string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName string `gorm:"size:150;not null" json:"first_name"`
	LastName  string `gorm:"size:150;not null" json:"last_name"`
	Password  string `gorm:"not null" json:"-"`
	IsAdmin   bool   `gorm:"default:false" json:"is_admin"`

	Timestamp
}

// FollowingAuthor is a directed subscription edge from UserID to AuthorID.
type FollowingAuthor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_following_user_author" json:"user_id"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_following_user_author;index" json:"author_id"`
	CreatedAt time.Time `gorm:"type:timestamp;autoCreateTime" json:"created_at"`

	User   *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Author *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

// RevokedToken remembers logged out bearer tokens until they expire.
type RevokedToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JTI       string    `gorm:"size:64;uniqueIndex;not null" json:"jti"`
	ExpiresAt time.Time `gorm:"type:timestamp;index" json:"expires_at"`
}
