package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAs(t *testing.T) {
	e, ok := As(fmt.Errorf("parse: %w", MissingParameter("fingerprint")))
	assert.True(t, ok)
	assert.Equal(t, CodeMissingParameter, e.Code)
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.Equal(t, `missing required parameter "fingerprint"`, e.Message)

	e, ok = As(errors.New("connection refused"))
	assert.False(t, ok)
	assert.Equal(t, CodeInternal, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
	assert.Equal(t, "internal error", e.Message)
}

func TestTooManyRequests(t *testing.T) {
	e := TooManyRequests(3)
	assert.Equal(t, http.StatusTooManyRequests, e.Status)
	assert.Contains(t, e.Error(), "3 requests per second")
}
