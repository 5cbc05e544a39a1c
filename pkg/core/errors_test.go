package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/undermaind/memnet-go/pkg/core"
)

func TestNetworkError_Format(t *testing.T) {
	err := core.NewNetworkError("Connect", core.ErrNotFound)
	assert.Equal(t, "memnet: Connect: not found", err.Error())
}

func TestNetworkError_Unwrap(t *testing.T) {
	err := core.NewNetworkError("FindPaths", core.ErrResourceExhausted)
	assert.ErrorIs(t, err, core.ErrResourceExhausted)

	var netErr *core.NetworkError
	assert.True(t, errors.As(err, &netErr))
	assert.Equal(t, "FindPaths", netErr.Op)
}

func TestNetworkError_NilPassthrough(t *testing.T) {
	assert.NoError(t, core.NewNetworkError("Connect", nil))
}

func TestNetworkError_WrapsWrapped(t *testing.T) {
	inner := core.NewNetworkError("inner", core.ErrInvalidArgument)
	outer := core.NewNetworkError("outer", inner)
	assert.ErrorIs(t, outer, core.ErrInvalidArgument)
}
