package services

import (
	"fmt"
	"strings"
	"unicode"

	"acroparty/models"

	"github.com/valyala/fastrand"
)

// letterPool weights acronym letters toward common word initials so rounds are
// playable. Rare initials (Q, X, Z) are left out of the pool entirely.
const letterPool = "AAABBBCCCDDDEEEFFGGHHHIIJKLLLMMMNNOOPPPRRRSSSTTTUVWWY"

// AcronymService generates round acronyms and validates submissions against
// them. Validation is pure; the round and deadline checks live in RoundService.
type AcronymService struct{}

func NewAcronymService() *AcronymService {
	return &AcronymService{}
}

// Generate picks an acronym with a length drawn from the game's configured
// bounds, skipping any excluded letters.
func (s *AcronymService) Generate(settings models.GameSettings) string {
	minLen, maxLen := settings.AcronymLengthMin, settings.AcronymLengthMax
	if minLen < 1 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}

	length := minLen
	if maxLen > minLen {
		length = minLen + int(fastrand.Uint32n(uint32(maxLen-minLen+1)))
	}

	pool := letterPool
	if settings.ExcludedLetters != "" {
		excluded := strings.ToUpper(settings.ExcludedLetters)
		var b strings.Builder
		for _, r := range letterPool {
			if !strings.ContainsRune(excluded, r) {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			pool = b.String()
		}
	}

	letters := make([]byte, length)
	for i := range letters {
		letters[i] = pool[fastrand.Uint32n(uint32(len(pool)))]
	}
	return string(letters)
}

// Validate checks that text is a sentence matching the acronym: one word per
// letter, in order, each word starting with that letter. Returns nil when the
// answer is accepted, otherwise an error with the rejection reason.
func (s *AcronymService) Validate(text, acronym string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("answer cannot be empty")
	}
	if len(trimmed) > 280 {
		return fmt.Errorf("answer is too long")
	}

	words := strings.Fields(trimmed)
	if len(words) != len(acronym) {
		return fmt.Errorf("answer must have %d words, got %d", len(acronym), len(words))
	}

	for i, want := range acronym {
		first := firstLetter(words[i])
		if first == 0 {
			return fmt.Errorf("word %d has no letters", i+1)
		}
		if unicode.ToUpper(first) != unicode.ToUpper(want) {
			return fmt.Errorf("word %d must start with %q", i+1, string(want))
		}
	}

	return nil
}

// firstLetter skips leading punctuation like quotes and parentheses.
func firstLetter(word string) rune {
	for _, r := range word {
		if unicode.IsLetter(r) {
			return r
		}
	}
	return 0
}
