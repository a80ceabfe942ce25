package delectus

import (
	"testing"
	"time"

	"acroparty/models"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func answering(deadline time.Time, graceCount, answerCount int) *RoundSnapshot {
	return &RoundSnapshot{
		Status:         models.RoundStatusAnswering,
		AnswerDeadline: &deadline,
		GraceCount:     graceCount,
		AnswerCount:    answerCount,
	}
}

func voting(deadline time.Time, answerCount int) *RoundSnapshot {
	return &RoundSnapshot{
		Status:       models.RoundStatusVoting,
		VoteDeadline: &deadline,
		AnswerCount:  answerCount,
	}
}

func TestDecideAnsweringPhase(t *testing.T) {
	deadline := base.Add(60 * time.Second)

	tests := []struct {
		name  string
		round *RoundSnapshot
		now   time.Time
		want  ActionKind
	}{
		{
			name:  "before deadline nothing happens",
			round: answering(deadline, 0, 0),
			now:   deadline.Add(-time.Second),
			want:  ActionNone,
		},
		{
			name:  "deadline boundary counts as reached",
			round: answering(deadline, 0, 3),
			now:   deadline,
			want:  ActionStartVoting,
		},
		{
			name:  "no answers gets a first grace extension",
			round: answering(deadline, 0, 0),
			now:   deadline.Add(time.Second),
			want:  ActionExtendGrace,
		},
		{
			name:  "no answers gets a second grace extension",
			round: answering(deadline.Add(30*time.Second), 1, 0),
			now:   deadline.Add(31 * time.Second),
			want:  ActionExtendGrace,
		},
		{
			name:  "grace exhausted abandons the game",
			round: answering(deadline.Add(60*time.Second), 2, 0),
			now:   deadline.Add(61 * time.Second),
			want:  ActionAbandonGame,
		},
		{
			name:  "a late answer cancels pending grace",
			round: answering(deadline.Add(30*time.Second), 1, 2),
			now:   deadline.Add(31 * time.Second),
			want:  ActionStartVoting,
		},
		{
			name:  "single answer skips voting",
			round: answering(deadline, 0, 1),
			now:   deadline.Add(time.Second),
			want:  ActionCompleteWithoutVoting,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{
				ActiveRound:   tt.round,
				TotalRounds:   5,
				ActivePlayers: 4,
			}
			got := Decide(in, tt.now)
			if got.Action != tt.want {
				t.Errorf("Decide() = %v, want %v", got.Action, tt.want)
			}
		})
	}
}

func TestDecideVotingPhase(t *testing.T) {
	deadline := base.Add(30 * time.Second)
	in := Input{
		ActiveRound:   voting(deadline, 3),
		TotalRounds:   5,
		ActivePlayers: 4,
	}

	if got := Decide(in, deadline.Add(-time.Second)); got.Action != ActionNone {
		t.Errorf("before vote deadline: got %v, want %v", got.Action, ActionNone)
	}
	if got := Decide(in, deadline); got.Action != ActionCompleteRound {
		t.Errorf("at vote deadline: got %v, want %v", got.Action, ActionCompleteRound)
	}
}

func TestDecideRoundBoundary(t *testing.T) {
	tests := []struct {
		name      string
		in        Input
		now       time.Time
		want      ActionKind
		wantRound int
	}{
		{
			name: "first round starts without delay",
			in: Input{
				CompletedRounds:   0,
				TotalRounds:       5,
				ActivePlayers:     3,
				TimeBetweenRounds: 5,
			},
			now:       base,
			want:      ActionStartRound,
			wantRound: 1,
		},
		{
			name: "mid-game waits out the inter-round delay",
			in: Input{
				CompletedRounds:      2,
				TotalRounds:          5,
				ActivePlayers:        3,
				TimeBetweenRounds:    5,
				LastCompletedAt:      base,
				LastCompletedAnswers: 3,
			},
			now:  base.Add(3 * time.Second),
			want: ActionNone,
		},
		{
			name: "mid-game starts the next round after the delay",
			in: Input{
				CompletedRounds:      2,
				TotalRounds:          5,
				ActivePlayers:        3,
				TimeBetweenRounds:    5,
				LastCompletedAt:      base,
				LastCompletedAnswers: 3,
			},
			now:       base.Add(5 * time.Second),
			want:      ActionStartRound,
			wantRound: 3,
		},
		{
			name: "all rounds done waits before ending",
			in: Input{
				CompletedRounds:      5,
				TotalRounds:          5,
				ActivePlayers:        3,
				TimeBetweenRounds:    5,
				LastCompletedAt:      base,
				LastCompletedAnswers: 3,
			},
			now:  base.Add(2 * time.Second),
			want: ActionNone,
		},
		{
			name: "all rounds done ends after the delay",
			in: Input{
				CompletedRounds:      5,
				TotalRounds:          5,
				ActivePlayers:        3,
				TimeBetweenRounds:    5,
				LastCompletedAt:      base,
				LastCompletedAnswers: 3,
			},
			now:  base.Add(5 * time.Second),
			want: ActionEndGame,
		},
		{
			name: "abandoned final round ends without waiting",
			in: Input{
				CompletedRounds:      5,
				TotalRounds:          5,
				ActivePlayers:        3,
				TimeBetweenRounds:    5,
				LastCompletedAt:      base,
				LastCompletedAnswers: 0,
			},
			now:  base,
			want: ActionEndGame,
		},
		{
			name: "abandoned mid-game round ends the game",
			in: Input{
				CompletedRounds:      2,
				TotalRounds:          5,
				ActivePlayers:        3,
				TimeBetweenRounds:    5,
				LastCompletedAt:      base,
				LastCompletedAnswers: 0,
			},
			now:  base.Add(time.Minute),
			want: ActionEndGame,
		},
		{
			// A zero count ends the game immediately, so a failed membership
			// count must surface as an error and never read as zero.
			name: "zero active players ends the game",
			in: Input{
				CompletedRounds:      2,
				TotalRounds:          5,
				ActivePlayers:        0,
				TimeBetweenRounds:    5,
				LastCompletedAt:      base,
				LastCompletedAnswers: 3,
			},
			now:  base.Add(time.Minute),
			want: ActionEndGame,
		},
		{
			name: "one remaining player ends the game",
			in: Input{
				CompletedRounds:      1,
				TotalRounds:          5,
				ActivePlayers:        1,
				TimeBetweenRounds:    5,
				LastCompletedAt:      base,
				LastCompletedAnswers: 2,
			},
			now:  base.Add(time.Minute),
			want: ActionEndGame,
		},
		{
			name: "zero delay starts the next round immediately",
			in: Input{
				CompletedRounds:      1,
				TotalRounds:          5,
				ActivePlayers:        3,
				TimeBetweenRounds:    0,
				LastCompletedAt:      base,
				LastCompletedAnswers: 2,
			},
			now:       base,
			want:      ActionStartRound,
			wantRound: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.in, tt.now)
			if got.Action != tt.want {
				t.Errorf("Decide() = %v, want %v", got.Action, tt.want)
			}
			if tt.wantRound != 0 && got.RoundNumber != tt.wantRound {
				t.Errorf("Decide() round = %d, want %d", got.RoundNumber, tt.wantRound)
			}
		})
	}
}

// A full answering window with no answers walks through both grace extensions
// and then gives up, regardless of how many ticks observe each state.
func TestDecideGraceSequenceIsIdempotent(t *testing.T) {
	deadline := base.Add(60 * time.Second)
	in := Input{
		ActiveRound:   answering(deadline, 1, 0),
		TotalRounds:   5,
		ActivePlayers: 2,
	}

	// Several ticks before the extended deadline all agree: do nothing.
	for _, offset := range []time.Duration{-10 * time.Second, -time.Second, -time.Millisecond} {
		if got := Decide(in, deadline.Add(offset)); got.Action != ActionNone {
			t.Fatalf("tick at %v: got %v, want %v", offset, got.Action, ActionNone)
		}
	}

	// Several ticks past the deadline all agree: extend once more.
	for _, offset := range []time.Duration{0, time.Second, 10 * time.Second} {
		if got := Decide(in, deadline.Add(offset)); got.Action != ActionExtendGrace {
			t.Fatalf("tick at +%v: got %v, want %v", offset, got.Action, ActionExtendGrace)
		}
	}
}

func TestActionKindString(t *testing.T) {
	if got := ActionAbandonGame.String(); got != "abandon_game" {
		t.Errorf("String() = %q", got)
	}
	if got := ActionKind(99).String(); got != "unknown" {
		t.Errorf("String() = %q", got)
	}
}
