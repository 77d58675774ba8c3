package errs

import (
	"errors"
	"testing"

	pkgerrs "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCodeError_IsMatchesByCode(t *testing.T) {
	req := require.New(t)

	err := ErrArgs.WrapMsg("to_user_id is required")
	req.True(errors.Is(err, ErrArgs))
	req.False(errors.Is(err, ErrRecordNotFound))

	wrapped := pkgerrs.Wrap(err, "send")
	req.True(errors.Is(wrapped, ErrArgs))
}

func TestCodeError_Detail(t *testing.T) {
	req := require.New(t)

	err := ErrNoPermission.WrapMsg("only the sender can delete", "message_id", "m1")
	ce, ok := Code(err)
	req.True(ok)
	req.Equal(NoPermissionError, ce.Code)
	req.Equal("only the sender can delete, message_id=m1", ce.Detail)
	req.Equal("only the sender can delete, message_id=m1", Message(err))
	req.Equal("NoPermissionError", Message(ErrNoPermission))
}

func TestToString_OddPairs(t *testing.T) {
	require.Equal(t, "x, a=1, b=MISSING", toString("x", []any{"a", 1, "b"}))
}

func TestErrPanic(t *testing.T) {
	req := require.New(t)
	req.Nil(ErrPanic(nil))

	err := ErrPanic("boom")
	req.True(errors.Is(err, ErrInternalServer))
	req.Equal("boom", Message(err))
}

func TestWrapNil(t *testing.T) {
	require.Nil(t, Wrap(nil))
	require.Nil(t, WrapMsg(nil, "x"))
}
