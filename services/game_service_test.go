package services

import (
	"strings"
	"testing"

	"acroparty/models"
)

func TestRandomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := randomCode(codeLength)
		if err != nil {
			t.Fatalf("randomCode() error: %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("randomCode() = %q, want length %d", code, codeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeCharset, r) {
				t.Fatalf("randomCode() = %q, %q not in charset", code, r)
			}
		}
		seen[code] = true
	}

	// 100 draws from a 31^6 space colliding down to a handful would mean the
	// generator is broken.
	if len(seen) < 90 {
		t.Errorf("only %d distinct codes out of 100 draws", len(seen))
	}
}

func TestMergeSettings(t *testing.T) {
	base := models.DefaultSettings()

	t.Run("zero override keeps defaults", func(t *testing.T) {
		merged := mergeSettings(base, models.GameSettings{})
		if merged != base {
			t.Errorf("mergeSettings(base, zero) = %+v, want %+v", merged, base)
		}
	})

	t.Run("set fields win", func(t *testing.T) {
		merged := mergeSettings(base, models.GameSettings{
			Rounds:          10,
			AnswerTime:      90,
			ExcludedLetters: "QXZ",
		})
		if merged.Rounds != 10 || merged.AnswerTime != 90 || merged.ExcludedLetters != "QXZ" {
			t.Errorf("overridden fields not applied: %+v", merged)
		}
		if merged.MaxPlayers != base.MaxPlayers || merged.VoteTime != base.VoteTime {
			t.Errorf("untouched fields changed: %+v", merged)
		}
	})
}
