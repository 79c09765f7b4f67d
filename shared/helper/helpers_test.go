package helper_test

import (
	"errors"
	"testing"

	"github.com/on-the-ground/composable_go/shared/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTypedValueOf(t *testing.T) {
	v, err := helper.GetTypedValueOf[int](func() (any, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = helper.GetTypedValueOf[string](func() (any, error) { return 3, nil })
	assert.ErrorIs(t, err, helper.ErrUnexpectedType)

	boom := errors.New("boom")
	_, err = helper.GetTypedValueOf[string](func() (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestRetry(t *testing.T) {
	calls := 0
	err := helper.Retry(3, func() error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = helper.Retry(3, func() error {
		calls++
		return errors.New("never")
	})
	assert.ErrorIs(t, err, helper.ErrMaxAttempts)
	assert.Equal(t, 3, calls)
}
