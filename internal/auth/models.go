package auth

import "time"

type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;unique" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

type User struct {
	UserID          string  `gorm:"primaryKey" json:"user_id"`
	Username        string  `gorm:"uniqueIndex" json:"username"`
	Password        string  `json:"password" gorm:"-"`
	HashedPassword  string  `json:"-"`
	Role            string  `gorm:"default:'user'" json:"role"`
	ProfilePicURL   string  `json:"profile_pic_url"`
	ReputationScore float64 `gorm:"default:0" json:"reputation_score"` // projection, written only by the reputation engine
	Session         Session `gorm:"foreignKey:UserID" json:"-"`
}

func (Session) TableName() string { return "app_auth.sessions" }
func (User) TableName() string    { return "app_auth.users" }
