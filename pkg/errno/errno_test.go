package errno

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeWrapped(t *testing.T) {
	err := fmt.Errorf("%w: request 0xabc", ErrRequestNotFound)

	code, msg := Decode(err)
	assert.Equal(t, ErrRequestNotFound.Code, code)
	assert.Equal(t, "no pending request for id: request 0xabc", msg)
	assert.True(t, errors.Is(err, ErrRequestNotFound))
	assert.False(t, errors.Is(err, ErrRequestExists))

	code, _ = Decode(nil)
	assert.Equal(t, OK.Code, code)

	code, _ = Decode(errors.New("boom"))
	assert.Equal(t, InternalServerError.Code, code)

	code, _ = Decode(&ErrDatabase)
	assert.Equal(t, ErrDatabase.Code, code)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{ErrZeroAmount, KindValidation},
		{ErrFieldTooLong, KindValidation},
		{ErrInvalidRequestID, KindMismatch},
		{ErrRequestExists, KindState},
		{ErrRequestNotFound, KindState},
		{ErrInvalidSignature, KindSignature},
		{ErrOverflow, KindArithmetic},
		{ErrUnderflow, KindArithmetic},
		{ErrTransferFailed, KindTransferFailed},
		{ErrInsufficientFunds, KindInsufficientBalance},
		{ErrDatabase, KindInternal},
		{errors.New("plain"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}
