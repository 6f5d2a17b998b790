package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/upb/clearpath-assistant/repositories"
)

type txKey struct{}

// MockTransactionManager is a mock implementation of TransactionManager
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

// InTransaction runs fn with a marked context unless an error is configured
func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(context.WithValue(ctx, txKey{}, true), nil)
}

func TestWithTransaction_JoinsTransactionContext(t *testing.T) {
	ctx := context.Background()
	txMgr := new(MockTransactionManager)
	txMgr.On("InTransaction", ctx).Return(nil)

	var sawTx bool
	err := WithTransaction(ctx, txMgr, func(ctx context.Context) error {
		sawTx, _ = ctx.Value(txKey{}).(bool)
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, sawTx)
	txMgr.AssertExpectations(t)
}

func TestWithTransaction_PropagatesError(t *testing.T) {
	ctx := context.Background()
	txMgr := new(MockTransactionManager)
	txMgr.On("InTransaction", ctx).Return(nil)

	fnErr := errors.New("insert failed")
	err := WithTransaction(ctx, txMgr, func(ctx context.Context) error {
		return fnErr
	})

	assert.ErrorIs(t, err, fnErr)
}

func TestWithTransaction_BeginFailure(t *testing.T) {
	ctx := context.Background()
	txMgr := new(MockTransactionManager)
	txMgr.On("InTransaction", ctx).Return(errors.New("connection refused"))

	called := false
	err := WithTransaction(ctx, txMgr, func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called)
}

func TestWithTransaction_NilManager(t *testing.T) {
	called := false
	err := WithTransaction(context.Background(), nil, func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, called)
}
