package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"acroparty/services"

	"github.com/gin-gonic/gin"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		want int
	}{
		{services.ErrGameNotFound, http.StatusNotFound},
		{services.ErrRoundNotFound, http.StatusNotFound},
		{services.ErrAnswerNotFound, http.StatusNotFound},
		{services.ErrNotHost, http.StatusForbidden},
		{services.ErrWrongPassword, http.StatusUnauthorized},
		{services.ErrAlreadyVoted, http.StatusConflict},
		{services.ErrAlreadyInGame, http.StatusConflict},
		{services.ErrNotEnoughAnswers, http.StatusUnprocessableEntity},
		{services.ErrGameFull, http.StatusUnprocessableEntity},
		{services.ErrDeadlinePassed, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)

			respondError(c, tt.err)

			if recorder.Code != tt.want {
				t.Errorf("respondError(%v) wrote status %d, want %d", tt.err, recorder.Code, tt.want)
			}
		})
	}
}
