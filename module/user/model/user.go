package model

import "PingUp/tools/safe"

const (
	UserTableName = "users"

	DefaultName    = "User"
	DefaultPicture = "/default.png"
)

// User 用户主档中与私信相关的字段；主档由用户服务维护，这里只读。
type User struct {
	ID             string `bson:"_id" json:"_id"`
	FullName       string `bson:"full_name" json:"full_name"`
	Username       string `bson:"username,omitempty" json:"username,omitempty"`
	Email          string `bson:"email,omitempty" json:"email,omitempty"`
	ProfilePicture string `bson:"profile_picture,omitempty" json:"profile_picture"`
}

func (User) TableName() string { return UserTableName }

// Summary 收件箱展示用的用户摘要。
type Summary struct {
	ID             string `bson:"_id" json:"_id"`
	FullName       string `bson:"full_name" json:"full_name"`
	ProfilePicture string `bson:"profile_picture" json:"profile_picture"`
}

func (u *User) Summary() Summary {
	return Summary{
		ID:             u.ID,
		FullName:       safe.DefaultString(u.FullName, DefaultName),
		ProfilePicture: safe.DefaultString(u.ProfilePicture, DefaultPicture),
	}
}

// Fallback 用户不存在时的占位摘要。
func Fallback(id string) Summary {
	return Summary{ID: id, FullName: DefaultName, ProfilePicture: DefaultPicture}
}
