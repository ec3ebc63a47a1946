package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"http error", NewConflictError("дубль"), http.StatusConflict},
		{"wrapped not found", fmt.Errorf("заказ: %w", ErrNotFound), http.StatusNotFound},
		{"expired token", ErrTokenExpired, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"validation", NewValidationError("телефон"), http.StatusBadRequest},
		{"lockout", ErrTooManyAttempts, http.StatusTooManyRequests},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCode(tc.err))
		})
	}
}

func TestDatabaseErrorHidesDetails(t *testing.T) {
	err := NewDatabaseError(errors.New("duplicate key value violates unique constraint"))

	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.NotContains(t, PublicMessage(err), "duplicate")
	assert.True(t, errors.Is(err, ErrDatabase))
}

func TestPublicMessageForPlainInternalError(t *testing.T) {
	assert.Equal(t, "Внутренняя ошибка сервера", PublicMessage(errors.New("pgx: conn closed")))
	assert.Equal(t, ErrForbidden.Error(), PublicMessage(ErrForbidden))
}
