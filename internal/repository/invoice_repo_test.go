package repository

import (
	"errors"
	"testing"

	"github.com/lorenzotomasdiez/ArcAPI/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// numberingScope simulates the (point_of_sale_id, invoice_type) slice of the
// invoices table: a set of taken numbers guarded by the composite unique index.
type numberingScope struct {
	taken map[int64]bool
}

func newNumberingScope() *numberingScope {
	return &numberingScope{taken: make(map[int64]bool)}
}

func (s *numberingScope) max() int64 {
	var m int64
	for n := range s.taken {
		if n > m {
			m = n
		}
	}
	return m
}

// insert mirrors the read-max-then-insert transaction body.
func (s *numberingScope) insert(inv *model.Invoice) error {
	inv.Number = s.max() + 1
	if s.taken[inv.Number] {
		return gorm.ErrDuplicatedKey
	}
	s.taken[inv.Number] = true
	return nil
}

func TestRunNumbered_AssignsNextNumber(t *testing.T) {
	scope := newNumberingScope()
	scope.taken[1] = true
	scope.taken[2] = true

	inv := &model.Invoice{}
	require.NoError(t, runNumbered(func() error { return scope.insert(inv) }))
	assert.Equal(t, int64(3), inv.Number)
}

func TestRunNumbered_RetriesPastConcurrentWriters(t *testing.T) {
	scope := newNumberingScope()
	scope.taken[1] = true

	// A competing writer wins the slot just before each of our first two
	// attempts; the re-read on the next pass must pick up its number.
	attempts := 0
	inv := &model.Invoice{}
	err := runNumbered(func() error {
		attempts++
		if attempts <= 2 {
			scope.taken[scope.max()+1] = true // competitor commits first
		}
		return scope.insert(inv)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, int64(4), inv.Number, "numbers 2 and 3 went to the competitor")
}

func TestRunNumbered_ExhaustionReturnsConflict(t *testing.T) {
	attempts := 0
	err := runNumbered(func() error {
		attempts++
		return gorm.ErrDuplicatedKey
	})

	assert.ErrorIs(t, err, ErrNumberingConflict)
	assert.Equal(t, maxNumberingAttempts, attempts)
}

func TestRunNumbered_NonConflictErrorStopsImmediately(t *testing.T) {
	dbDown := errors.New("connection reset")
	attempts := 0
	err := runNumbered(func() error {
		attempts++
		return dbDown
	})

	assert.ErrorIs(t, err, dbDown)
	assert.Equal(t, 1, attempts, "only duplicate-key losses are retried")
}
