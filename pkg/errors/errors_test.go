package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", ErrDialogOpen)

	got := FromError(wrapped)
	assert.Equal(t, "DIALOG_OPEN", got.Code)
	assert.Equal(t, http.StatusConflict, got.Status)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	got := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Nil(t, FromError(nil))
}

func TestIsMatchesByCode(t *testing.T) {
	clone := Clone(ErrDialogClosed, "nothing to acknowledge")
	assert.True(t, errors.Is(clone, ErrDialogClosed))
	assert.False(t, errors.Is(clone, ErrDialogOpen))

	wrapped := Wrap(errors.New("redis down"), ErrInternal.Code, ErrInternal.Status, "load form")
	assert.True(t, errors.Is(wrapped, ErrInternal))
	assert.Equal(t, "load form: redis down", wrapped.Error())
}

func TestPredefinedErrorsHaveDistinctCodes(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range []*Error{ErrValidation, ErrUnknownField, ErrDialogOpen, ErrDialogClosed, ErrSessionRequired, ErrCacheMiss, ErrInternal} {
		assert.False(t, seen[e.Code], e.Code)
		seen[e.Code] = true
	}
	assert.False(t, seen["NOT_FOUND"])
}
