package services

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestChannelForGame(t *testing.T) {
	if got := ChannelForGame("ABC123"); got != "game.ABC123" {
		t.Errorf("ChannelForGame() = %q, want %q", got, "game.ABC123")
	}
	if !strings.HasPrefix(ChannelForGame("XYZ"), strings.TrimSuffix(ChannelPattern, "*")) {
		t.Errorf("game channels must match the hub subscription pattern %q", ChannelPattern)
	}
}

func TestEventEnvelope(t *testing.T) {
	data, err := json.Marshal(Event{
		Type:    EventRoundStarted,
		Payload: map[string]interface{}{"round_number": 2, "acronym": "BAD"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Type    string `json:"type"`
		Payload struct {
			RoundNumber int    `json:"round_number"`
			Acronym     string `json:"acronym"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != EventRoundStarted {
		t.Errorf("type = %q, want %q", decoded.Type, EventRoundStarted)
	}
	if decoded.Payload.Acronym != "BAD" || decoded.Payload.RoundNumber != 2 {
		t.Errorf("payload = %+v", decoded.Payload)
	}
}
