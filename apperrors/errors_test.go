package apperrors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := NotFoundf("entry %d not found", 7)
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrForbidden))

	wrapped := fmt.Errorf("loading entry: %w", err)
	assert.True(t, Is(wrapped, ErrNotFound))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(sql.ErrNoRows, CodeNotFound, "tag missing")
	assert.True(t, Is(err, sql.ErrNoRows))
	assert.True(t, Is(err, ErrNotFound))
	assert.Equal(t, "tag missing: sql: no rows in result set", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:           http.StatusNotFound,
		CodeForbidden:          http.StatusForbidden,
		CodeValidation:         http.StatusBadRequest,
		CodeAlreadyExists:      http.StatusConflict,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeInvalidCredentials: http.StatusUnauthorized,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, code.HTTPStatus(), code)
	}
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("boom")))
}
