package services

import "testing"

func TestPointsFor(t *testing.T) {
	if got := pointsFor(0); got != 10 {
		t.Errorf("pointsFor(0) = %d, want 10", got)
	}
	if got := pointsFor(3); got != 310 {
		t.Errorf("pointsFor(3) = %d, want 310", got)
	}

	// More votes never earn fewer points.
	prev := pointsFor(0)
	for votes := 1; votes <= 20; votes++ {
		got := pointsFor(votes)
		if got <= prev {
			t.Fatalf("pointsFor(%d) = %d, not greater than pointsFor(%d) = %d", votes, got, votes-1, prev)
		}
		prev = got
	}
}

func TestRankRoundResults(t *testing.T) {
	results := []RoundResult{
		{PlayerID: 1, Votes: 1},
		{PlayerID: 2, Votes: 3},
		{PlayerID: 3, Votes: 1},
		{PlayerID: 4, Votes: 0},
	}

	rankRoundResults(results)

	wantOrder := []uint{2, 1, 3, 4}
	for i, want := range wantOrder {
		if results[i].PlayerID != want {
			t.Fatalf("position %d: got player %d, want %d", i, results[i].PlayerID, want)
		}
	}
}

// Submission order breaks vote ties, so equal-vote answers keep their
// relative positions.
func TestRankRoundResultsStableOnTies(t *testing.T) {
	results := []RoundResult{
		{PlayerID: 10, Votes: 2},
		{PlayerID: 20, Votes: 2},
		{PlayerID: 30, Votes: 2},
	}

	rankRoundResults(results)

	for i, want := range []uint{10, 20, 30} {
		if results[i].PlayerID != want {
			t.Fatalf("position %d: got player %d, want %d", i, results[i].PlayerID, want)
		}
	}
}
