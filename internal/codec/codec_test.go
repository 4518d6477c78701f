package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Names map[string]uint16 `cbor:"1,keyasint"`
	Next  uint16            `cbor:"2,keyasint"`
}

func TestSealDeterministic(t *testing.T) {
	v := sample{Names: map[string]uint16{"stone": 1, "dirt": 2, "air": 0, "sand": 7}, Next: 8}

	first, err := Seal("TEST", v)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Seal("TEST", v)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(first, again), "одинаковые данные должны давать одинаковые байты")
	}

	var got sample
	require.NoError(t, Open("TEST", first, &got))
	assert.Equal(t, v, got)
}

func TestOpenRejectsForeignData(t *testing.T) {
	var got sample
	assert.ErrorIs(t, Open("TEST", []byte("NOPE...."), &got), ErrBadMagic)
	assert.ErrorIs(t, Open("TEST", []byte("TE"), &got), ErrBadMagic)
	assert.Error(t, Open("TEST", []byte("TESTgarbage"), &got))
}
