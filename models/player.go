package models

import (
	"time"

	"gorm.io/gorm"
)

// Player is a participant identity, either a guest (token only) or linked to a
// registered user. Lifetime statistics are updated once per finished game.
type Player struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	UserID     *uint  `json:"user_id"`
	GuestToken string `json:"-" gorm:"size:64;uniqueIndex;not null"`
	Nickname   string `json:"nickname" gorm:"size:32;not null"`

	GamesPlayed int `json:"games_played" gorm:"not null;default:0"`
	GamesWon    int `json:"games_won" gorm:"not null;default:0"`
	TotalScore  int `json:"total_score" gorm:"not null;default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	User *User `json:"user,omitempty"`
}

func (p *Player) IsGuest() bool {
	return p.UserID == nil
}
