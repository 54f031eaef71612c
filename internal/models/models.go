package models

import (
	"strings"
	"time"
)

// User represents a registered SkillSwap account and its editable profile.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullname"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Skills    []string  `json:"skills"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSkill reports whether the skill is already listed, ignoring case.
func (u User) HasSkill(skill string) bool {
	for _, existing := range u.Skills {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(skill)) {
			return true
		}
	}
	return false
}

// Profile is a directory entry that other users can befriend.
type Profile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Description string   `json:"desc"`
	Tags        []string `json:"tags"`
}

const (
	RoleMentor  = "Mentor"
	RoleLearner = "Learner"
	RoleMember  = "Member"
)

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
