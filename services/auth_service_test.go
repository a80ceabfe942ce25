package services

import (
	"errors"
	"testing"

	"acroparty/models"
)

func TestConvertGuestRejectsRegisteredPlayer(t *testing.T) {
	svc := NewAuthService(nil, "secret")

	userID := uint(7)
	player := &models.Player{ID: 1, UserID: &userID, Nickname: "alice"}

	_, _, err := svc.ConvertGuest(player, "alice@example.com", "password123")
	if !errors.Is(err, ErrNotGuest) {
		t.Errorf("ConvertGuest(registered) = %v, want %v", err, ErrNotGuest)
	}
}
