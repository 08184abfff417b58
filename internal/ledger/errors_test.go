package ledger

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashbook-dev/cashbook/internal/store"
)

func TestErrorMessage(t *testing.T) {
	err := newError("submit transaction", "U1", ErrInsufficientBalance, "balance 10 is less than 20")
	assert.Equal(t, `submit transaction "U1": insufficient balance: balance 10 is less than 20`, err.Error())
	assert.Equal(t, "list accounts: not found", newError("list accounts", "", ErrNotFound, "").Error())
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{store.ErrNotFound, ErrNotFound},
		{store.ErrExists, ErrDuplicateKey},
		{store.ErrReferenced, ErrAccountInUse},
		{fmt.Errorf("wrapped: %w", store.ErrNotFound), ErrNotFound},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, translate("op", "k", tt.in), tt.want)
	}

	disk := errors.New("disk full")
	err := translate("op", "k", disk)
	assert.ErrorIs(t, err, disk)
	var lerr *Error
	assert.False(t, errors.As(err, &lerr))
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Len(t, k.locks, 2)
	unlockA()
	unlockB()
	assert.Empty(t, k.locks)
}

func TestKeyedMutex_SharedAndExclusive(t *testing.T) {
	k := newKeyedMutex()
	r1 := k.RLock("north")
	r2 := k.RLock("north")
	assert.Equal(t, 2, k.locks["north"].refs, "readers share the key")

	acquired := make(chan struct{})
	go func() {
		unlock := k.Lock("north")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("writer acquired while readers hold the key")
	case <-time.After(50 * time.Millisecond):
	}

	r1()
	r2()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("writer never acquired the key")
	}

	require.Eventually(t, func() bool {
		k.mu.Lock()
		defer k.mu.Unlock()
		return len(k.locks) == 0
	}, time.Second, 5*time.Millisecond)
}
