// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and utility functions

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "parse_error",
			code:    errors.ErrParse,
			message: "mod.toml is malformed",
			wantStr: "[PARSE] mod.toml is malformed",
		},
		{
			name:    "security_error",
			code:    errors.ErrSecurity,
			message: "disallowed file virus.exe",
			wantStr: "[SECURITY] disallowed file virus.exe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.NotNil(t, err.Details)
			assert.Equal(t, tt.wantStr, err.Error())
		})
	}
}

func TestNewf(t *testing.T) {
	err := errors.Newf(errors.ErrDependency, "missing %s %s", "core", "^1.0.0")
	assert.Equal(t, "missing core ^1.0.0", err.Message)
}

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("base error")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrap(baseErr, errors.ErrIO, "cannot extract")

		assert.Equal(t, errors.ErrIO, err.Code)
		assert.Same(t, baseErr, err.Wrapped)
		assert.Equal(t, "[IO] cannot extract: base error", err.Error())
	})

	t.Run("wrap_nil_error_returns_nil", func(t *testing.T) {
		assert.Nil(t, errors.Wrap(nil, errors.ErrIO, "cannot extract"))
		assert.Nil(t, errors.Wrapf(nil, errors.ErrIO, "cannot extract %s", "x"))
	})
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrConflict, "conflict").
		WithDetail("guid", "b").
		WithDetail("file", "sprite.png")

	details := errors.GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "b", details["guid"])
	assert.Equal(t, "sprite.png", details["file"])
	assert.Nil(t, errors.GetErrorDetails(stderrors.New("plain")))
}

func TestIs(t *testing.T) {
	err1 := errors.New(errors.ErrNotFound, "error 1")
	err2 := errors.New(errors.ErrNotFound, "error 2")
	err3 := errors.New(errors.ErrInternal, "error 3")

	assert.True(t, err1.Is(err2), "same code should match")
	assert.False(t, err1.Is(err3), "different codes should not match")
	assert.True(t, stderrors.Is(err1, err2), "errors.Is should use the code")
}

func TestIsErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     errors.ErrorCode
		expected bool
	}{
		{"matching_code", errors.New(errors.ErrCodec, "decode failed"), errors.ErrCodec, true},
		{"different_code", errors.New(errors.ErrCodec, "decode failed"), errors.ErrIO, false},
		{"wrapped_error", errors.Wrap(stderrors.New("base"), errors.ErrIO, "denied"), errors.ErrIO, true},
		{"plain_error", stderrors.New("standard error"), errors.ErrNotFound, false},
		{"nil_error", nil, errors.ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errors.IsErrorCode(tt.err, tt.code))
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, errors.ErrNotInitialized, errors.GetErrorCode(errors.New(errors.ErrNotInitialized, "no origin")))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("standard error")))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(nil))
}

func TestErrorChaining(t *testing.T) {
	rootCause := stderrors.New("root cause")
	ioErr := errors.Wrap(rootCause, errors.ErrIO, "cannot read file")
	configErr := errors.Wrap(ioErr, errors.ErrConfigLoad, "failed to load config")

	assert.True(t, errors.IsErrorCode(configErr, errors.ErrConfigLoad))

	var modErr *errors.ModError
	require.True(t, stderrors.As(configErr.Unwrap(), &modErr))
	assert.Equal(t, errors.ErrIO, modErr.Code)

	assert.True(t, stderrors.Is(configErr, rootCause))
}
