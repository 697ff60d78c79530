package users

import (
	"strings"
	"time"
)

// CollectionName is the table and collection holding user records.
const CollectionName = "users"

// User is a registered account. PasswordHash never leaves the service layer.
type User struct {
	UserID       string    `gorm:"column:user_id;primaryKey;size:64;not null" bson:"_id"`
	Name         string    `gorm:"column:name;size:320;not null" bson:"name"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex:idx_users_email" bson:"email"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" bson:"password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;autoCreateTime:false" bson:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" bson:"updated_at"`
}

// TableName exposes the table backing users.
func (User) TableName() string {
	return CollectionName
}

// Profile is the public view of a user.
type Profile struct {
	ID    string
	Name  string
	Email string
}

// Profile strips credential material from the user.
func (u User) Profile() Profile {
	return Profile{ID: u.UserID, Name: u.Name, Email: u.Email}
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
