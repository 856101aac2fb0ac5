package models

import "time"

type User struct {
	ID         string    `bson:"_id" json:"id"`
	Email      string    `bson:"email" json:"email"`
	FullName   string    `bson:"full_name" json:"fullName"`
	Password   string    `bson:"password" json:"-"`
	ProfilePic string    `bson:"profile_pic,omitempty" json:"profilePic,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}
