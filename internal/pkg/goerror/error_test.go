package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOTPExpired = errors.New("otp expired")

func TestNewBusinessCause(t *testing.T) {
	err := NewBusinessCause(errOTPExpired, "OTP expired. Please login again.", CodeUnauthorized, "next", "login")

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, errOTPExpired)
	assert.Equal(t, TypeBusiness, gerr.Type())
	assert.Equal(t, "OTP expired. Please login again.", gerr.Msg())
	assert.Equal(t, http.StatusUnauthorized, gerr.StatusCode())
	assert.Equal(t, map[string]string{"next": "login"}, gerr.Fields())
}

func TestNewBusinessCause_OddPairsIgnored(t *testing.T) {
	err := NewBusinessCause(nil, "msg", CodeConflict, "dangling")

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Nil(t, gerr.Fields())
	assert.Equal(t, "msg", gerr.Error())
}

func TestNewInvalidInput(t *testing.T) {
	cause := errors.New("username is a required field")
	err := NewInvalidInput(cause)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, TypeValidation, gerr.Type())
	assert.Equal(t, http.StatusUnprocessableEntity, gerr.StatusCode())
	assert.ErrorIs(t, err, cause)

	err = NewInvalidInput(nil, "code", "Enter OTP")
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, map[string]string{"code": "Enter OTP"}, gerr.Fields())
}

func TestNewInvalidInputMsg(t *testing.T) {
	err := NewInvalidInputMsg(errors.New("code is required"), "Enter OTP")

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "Enter OTP", gerr.Msg())
	assert.Equal(t, CodeInvalidInput, gerr.Code())
}

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidFormat, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusUnprocessableEntity},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeTooManyRequest, http.StatusTooManyRequests},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeTimeout, http.StatusRequestTimeout},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			gerr := &Error{code: tt.code}
			assert.Equal(t, tt.want, gerr.StatusCode())
		})
	}
}

func TestNewServer(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewServer(cause)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, TypeServer, gerr.Type())
	assert.Equal(t, "Internal server error", gerr.Msg())
	assert.Equal(t, "connection refused", gerr.Error())
}

func TestError_FallbackMessages(t *testing.T) {
	assert.Equal(t, "Validation violation", (&Error{errType: TypeValidation}).Error())
	assert.Equal(t, "Internal error", (&Error{errType: TypeServer}).Error())
	assert.Equal(t, http.StatusInternalServerError, (&Error{code: Code(99)}).StatusCode())
	assert.Equal(t, "ERROR_CODE_INTERNAL", Code(-1).String())
	assert.Equal(t, "ERROR_TYPE_UNKNOWN", Type(7).String())
}

func TestNewInvalidInput_OddPairs(t *testing.T) {
	var gerr *Error
	require.ErrorAs(t, NewInvalidInput(nil, "code"), &gerr)
	assert.Equal(t, CodeInvalidFormat, gerr.Code())
	assert.Equal(t, "Invalid request body", gerr.Msg())
}

func TestError_String(t *testing.T) {
	err := NewServer(errors.New("dial tcp: refused")).(*Error)
	assert.Equal(t, `type=ERROR_TYPE_SERVER code=ERROR_CODE_INTERNAL msg="Internal server error" cause=dial tcp: refused`, err.String())
}
