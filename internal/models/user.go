package models

import (
	"time"
)

// User mirrors an identity owned by the external identity provider. ID is
// the token subject.
type User struct {
	ID        ObjectID  `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name,omitempty" json:"name"`
	Email     string    `bson:"email,omitempty" json:"email" validate:"omitempty,email"`
	Title     string    `bson:"title,omitempty" json:"title,omitempty"`
	IsActive  bool      `bson:"is_active" json:"is_active"`
	CreatedAt time.Time `bson:"created_at,omitempty" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at"`
}

func (User) CollectionName() string {
	return "users"
}

func (u User) GetObjectID() ObjectID {
	return u.ID
}

func (u User) GetUpdates() any {
	u.ID = ""
	u.CreatedAt = time.Time{}
	u.UpdatedAt = time.Now()
	return u
}
