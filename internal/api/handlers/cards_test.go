package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ramonehamilton/commander-rater/internal/scryfall"
)

func TestSyncFailureStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"client went away", context.Canceled, http.StatusServiceUnavailable},
		{"request timed out", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"upstream error", &scryfall.APIError{Status: 500}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, syncFailureStatus(tt.err))
		})
	}
}
