package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hugh/go-crm/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	userMissing := apperr.New(apperr.NotFound, "user not found")
	inviteMissing := apperr.New(apperr.NotFound, "invite not found")
	expired := apperr.New(apperr.Expired, "invite expired")

	assert.True(t, errors.Is(userMissing, inviteMissing))
	assert.False(t, errors.Is(userMissing, expired))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", expired), expired))
	assert.False(t, errors.Is(errors.New("plain"), expired))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, apperr.DuplicateInvite, apperr.KindOf(apperr.New(apperr.DuplicateInvite, "x")))
	assert.Equal(t, apperr.Conflict, apperr.KindOf(fmt.Errorf("op: %w", apperr.New(apperr.Conflict, "x"))))
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(errors.New("boom")))
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(nil))
}
