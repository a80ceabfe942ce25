package services

import (
	"testing"
	"time"
)

func TestGraceExtension(t *testing.T) {
	tests := []struct {
		answerTime int
		want       time.Duration
	}{
		{60, 30 * time.Second},
		{45, 23 * time.Second}, // rounds up
		{1, 1 * time.Second},
		{30, 15 * time.Second},
	}

	for _, tt := range tests {
		if got := graceExtension(tt.answerTime); got != tt.want {
			t.Errorf("graceExtension(%d) = %v, want %v", tt.answerTime, got, tt.want)
		}
	}
}

func TestDeadlinePassed(t *testing.T) {
	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(time.Minute)

	if !deadlinePassed(&past) {
		t.Error("deadlinePassed(past) = false, want true")
	}
	if deadlinePassed(&future) {
		t.Error("deadlinePassed(future) = true, want false")
	}
	if deadlinePassed(nil) {
		t.Error("deadlinePassed(nil) = true, want false")
	}
}
