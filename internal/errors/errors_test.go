package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(ErrAllFieldsRequired))
	assert.Equal(t, http.StatusConflict, StatusOf(ErrUserAlreadyExists))
	assert.Equal(t, http.StatusNotFound, StatusOf(ErrUserNotFound))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(ErrInvalidCredentials))
	assert.Equal(t, http.StatusBadGateway, StatusOf(ErrAvatarUploadFailed))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(fmt.Errorf("plain")))
}

func TestWrappedErrorKeepsTaxonomy(t *testing.T) {
	wrapped := fmt.Errorf("refreshing session: %w", ErrRefreshTokenUsed)

	assert.Equal(t, http.StatusUnauthorized, StatusOf(wrapped))
	assert.Equal(t, KindAuth, KindOf(wrapped))
	assert.Equal(t, ErrRefreshTokenUsed.Message, MessageOf(wrapped))
}

func TestUntypedErrorLeaksNothing(t *testing.T) {
	err := fmt.Errorf("pq: connection refused")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal server error", MessageOf(err))
}
