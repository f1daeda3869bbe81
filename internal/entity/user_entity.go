package entity

import "time"

const (
	RoleStudent    = "student"
	RoleMentor     = "mentor"
	RoleStartup    = "startup"
	RoleClubLeader = "club_leader"
	RoleAdmin      = "admin"
)

type User struct {
	Id        string    `bson:"_id" json:"id"`
	Username  string    `bson:"username" json:"username"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password" json:"-"` // Don't expose password in JSON
	FullName  string    `bson:"fullName" json:"fullName"`
	Role      string    `bson:"role" json:"role"`
	AvatarUrl string    `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	IsOnline  bool      `bson:"isOnline" json:"isOnline"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

type UserIndexFilter struct {
	Ids  []string `bson:"ids"`
	Role string   `bson:"role"`
}

// Counterpart is the slice of a profile that a conversation listing needs
// to render the other side of the thread.
type Counterpart struct {
	Id        string `json:"id"`
	FullName  string `json:"fullName"`
	AvatarUrl string `json:"avatarUrl,omitempty"`
}
