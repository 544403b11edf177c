package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered participant account.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Password      string     `json:"-"`
	ResetToken    *string    `json:"-"`
	ResetExpires  *time.Time `json:"-"`
	Instagram     string     `json:"instagram,omitempty"`
	Snapchat      string     `json:"snapchat,omitempty"`
	Twitter       string     `json:"twitter,omitempty"`
	CompanyName   string     `json:"company_name,omitempty"`
	Position      string     `json:"position,omitempty"`
	ActivityType  string     `json:"activity_type,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	Goal          string     `json:"goal,omitempty"`
	AIDescription string     `json:"ai_description,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UserPublic is User without credentials for API responses.
type UserPublic struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Instagram     string    `json:"instagram,omitempty"`
	Snapchat      string    `json:"snapchat,omitempty"`
	Twitter       string    `json:"twitter,omitempty"`
	CompanyName   string    `json:"company_name,omitempty"`
	Position      string    `json:"position,omitempty"`
	ActivityType  string    `json:"activity_type,omitempty"`
	Gender        string    `json:"gender,omitempty"`
	Goal          string    `json:"goal,omitempty"`
	AIDescription string    `json:"ai_description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:            u.ID,
		Name:          u.Name,
		Username:      u.Username,
		Email:         u.Email,
		Phone:         u.Phone,
		Instagram:     u.Instagram,
		Snapchat:      u.Snapchat,
		Twitter:       u.Twitter,
		CompanyName:   u.CompanyName,
		Position:      u.Position,
		ActivityType:  u.ActivityType,
		Gender:        u.Gender,
		Goal:          u.Goal,
		AIDescription: u.AIDescription,
		CreatedAt:     u.CreatedAt,
	}
}

// ProfileURL returns the public profile path for the user.
func (u *User) ProfileURL() string {
	return "/u/" + u.Username
}
