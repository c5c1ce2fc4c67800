package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	err := New("TEST", "something broke", http.StatusBadRequest)
	require.Equal(t, "something broke", err.Error())

	wrapped := err.WithInternal(errors.New("db down"))
	require.Equal(t, "something broke: db down", wrapped.Error())
	// Original is untouched.
	require.Nil(t, err.Internal)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	plain := errors.New("boom")
	appErr := FromError(plain)
	require.Equal(t, ErrInternalServer.Code, appErr.Code)
	require.ErrorIs(t, appErr, plain)

	appErr = FromError(fmt.Errorf("context: %w", ErrExpired))
	require.Equal(t, ErrExpired.Code, appErr.Code)
}

func TestWithMessage(t *testing.T) {
	custom := ErrNotFound.WithMessage("appointment not found")
	require.Equal(t, ErrNotFound.Code, custom.Code)
	require.Equal(t, "appointment not found", custom.Message)
	require.Equal(t, "Resource not found", ErrNotFound.Message)
}

func TestErrorStatusCodes(t *testing.T) {
	require.Equal(t, http.StatusNotFound, ErrNotFound.StatusCode)
	require.Equal(t, http.StatusConflict, ErrAlreadyExists.StatusCode)
	require.Equal(t, http.StatusGone, ErrExpired.StatusCode)
	require.Equal(t, http.StatusPreconditionFailed, ErrPreconditionFailed.StatusCode)
	require.Equal(t, http.StatusBadGateway, ErrUpstreamFailure.StatusCode)
}
