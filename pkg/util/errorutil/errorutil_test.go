package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("close ticket: %w", NewInvalidState("ticket is closed", nil))
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, NewNotFound("ticket", nil), ErrNotFound)
	assert.ErrorIs(t, NewValidationError("bad", nil), ErrInvalidArgument)
}

func TestGatewayErrorsKeepCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewGatewayUnavailable("post message", cause)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.ErrorIs(t, err, cause)

	denied := NewPermissionDenied("lock thread", cause)
	assert.ErrorIs(t, denied, ErrPermissionDenied)
	assert.Equal(t, http.StatusBadGateway, ToDomainError(denied).HTTPStatus)
}

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	timeout := ToDomainError(fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.Equal(t, CodeTimeout, timeout.Code)
	assert.Equal(t, http.StatusGatewayTimeout, timeout.HTTPStatus)
	assert.NotErrorIs(t, timeout, ErrGatewayUnavailable)

	classified := ToDomainError(NewGatewayUnavailable("post message", context.DeadlineExceeded))
	assert.Equal(t, CodeGatewayUnavailable, classified.Code)

	internal := ToDomainError(errors.New("boom"))
	assert.Equal(t, CodeInternal, internal.Code)
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
}
