package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	err := New(CodeForbidden, "nope")
	assert.Equal(t, CodeForbidden, CodeOf(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, CodeForbidden, CodeOf(wrapped), "code survives wrapping")

	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "nope", MessageOf(New(CodeForbidden, "nope")))
	assert.Equal(t, "internal error", MessageOf(errors.New("sql: secret detail")),
		"unclassified errors never leak detail")
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal error", err.Message)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeBadRequest))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(CodeNotAuthenticated))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(CodeForbidden))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeConflict))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeInternal))
}
