package services

import (
	"strings"
	"testing"

	"acroparty/models"
)

func TestGenerateRespectsLengthBounds(t *testing.T) {
	svc := NewAcronymService()
	settings := models.GameSettings{AcronymLengthMin: 3, AcronymLengthMax: 6}

	for i := 0; i < 200; i++ {
		acronym := svc.Generate(settings)
		if len(acronym) < 3 || len(acronym) > 6 {
			t.Fatalf("Generate() = %q, length outside [3,6]", acronym)
		}
	}
}

func TestGenerateFixedLength(t *testing.T) {
	svc := NewAcronymService()
	settings := models.GameSettings{AcronymLengthMin: 4, AcronymLengthMax: 4}

	for i := 0; i < 50; i++ {
		if acronym := svc.Generate(settings); len(acronym) != 4 {
			t.Fatalf("Generate() = %q, want length 4", acronym)
		}
	}
}

func TestGenerateSkipsExcludedLetters(t *testing.T) {
	svc := NewAcronymService()
	settings := models.GameSettings{
		AcronymLengthMin: 5,
		AcronymLengthMax: 5,
		ExcludedLetters:  "aeiou",
	}

	for i := 0; i < 200; i++ {
		acronym := svc.Generate(settings)
		if strings.ContainsAny(acronym, "AEIOU") {
			t.Fatalf("Generate() = %q, contains an excluded letter", acronym)
		}
	}
}

func TestGenerateDegenerateBounds(t *testing.T) {
	svc := NewAcronymService()

	// Zero and inverted bounds still produce something usable.
	if acronym := svc.Generate(models.GameSettings{}); len(acronym) != 1 {
		t.Errorf("Generate(zero settings) = %q, want length 1", acronym)
	}
	settings := models.GameSettings{AcronymLengthMin: 5, AcronymLengthMax: 2}
	if acronym := svc.Generate(settings); len(acronym) != 5 {
		t.Errorf("Generate(inverted bounds) = %q, want length 5", acronym)
	}
}

func TestValidate(t *testing.T) {
	svc := NewAcronymService()

	tests := []struct {
		name    string
		text    string
		acronym string
		wantOK  bool
	}{
		{"exact match", "Big Angry Dogs", "BAD", true},
		{"case insensitive", "big angry dogs", "BAD", true},
		{"surrounding whitespace", "  Big Angry Dogs  ", "BAD", true},
		{"leading punctuation skipped", `"Big" (Angry) Dogs!`, "BAD", true},
		{"too few words", "Big Angry", "BAD", false},
		{"too many words", "Big Angry Dogs Bark", "BAD", false},
		{"wrong initial", "Big Calm Dogs", "BAD", false},
		{"empty", "", "BAD", false},
		{"whitespace only", "   ", "BAD", false},
		{"word without letters", "Big ... Dogs", "BAD", false},
		{"over length limit", strings.Repeat("Bb ", 100) + "A D", "BAD", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Validate(tt.text, tt.acronym)
			if (err == nil) != tt.wantOK {
				t.Errorf("Validate(%q, %q) = %v, want ok=%v", tt.text, tt.acronym, err, tt.wantOK)
			}
		})
	}
}
