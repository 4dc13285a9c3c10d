package emit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exp-lang/expc/internal/types"
)

func TestIsZeroValue_ScalarZero(t *testing.T) {
	require.True(t, isZeroValue(types.ScalarValue(types.NewInt(types.I32, 0))))
	require.False(t, isZeroValue(types.ScalarValue(types.NewInt(types.I32, 1))))
}

func TestIsZeroValue_UninitializedScalarIsZero(t *testing.T) {
	require.True(t, isZeroValue(types.ScalarValue(types.Uninitialized())))
}

func TestIsZeroValue_TupleAllZeroFields(t *testing.T) {
	v := types.TupleValue([]types.Value{
		types.ScalarValue(types.NewInt(types.I32, 0)),
		types.ScalarValue(types.NewInt(types.I8, 0)),
	})
	require.True(t, isZeroValue(v))
}

func TestIsZeroValue_TupleWithNonZeroFieldIsNotZero(t *testing.T) {
	v := types.TupleValue([]types.Value{
		types.ScalarValue(types.NewInt(types.I32, 0)),
		types.ScalarValue(types.NewInt(types.I8, 3)),
	})
	require.False(t, isZeroValue(v))
}

func TestRenderImmediateLiteral_Uninitialized(t *testing.T) {
	require.Equal(t, "0", renderImmediateLiteral(types.Uninitialized()))
}

func TestRenderImmediateLiteral_SignedAndUnsigned(t *testing.T) {
	require.Equal(t, "-5", renderImmediateLiteral(types.NewInt(types.I32, -5)))
	require.Equal(t, "5", renderImmediateLiteral(types.NewUint(types.U32, 5)))
}
