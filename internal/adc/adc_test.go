package adc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest(t *testing.T) {
	tests := []struct {
		channel int
		want    []byte
	}{
		{0, []byte{0x06, 0x00, 0x00}},
		{1, []byte{0x06, 0x40, 0x00}},
		{2, []byte{0x06, 0x80, 0x00}},
		{3, []byte{0x06, 0xC0, 0x00}},
	}
	for _, tt := range tests {
		got, err := request(tt.channel)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "channel %d", tt.channel)
	}
}

func TestRequestChannelRange(t *testing.T) {
	for _, ch := range []int{-1, 4, 8} {
		_, err := request(ch)
		assert.ErrorIs(t, err, ErrChannel)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		rx   []byte
		want int
	}{
		{[]byte{0xFF, 0x0F, 0xFF}, MaxValue},
		{[]byte{0x00, 0x00, 0x00}, 0},
		{[]byte{0x00, 0x0B, 0xB8}, 3000},
		// Bits above the null bit are undefined and masked.
		{[]byte{0xFF, 0xE1, 0x2C}, 300},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, decode(tt.rx), "% x", tt.rx)
	}
}

func TestFakeReader(t *testing.T) {
	f := NewFakeReader(4000, 3000)

	v, err := f.Read(0)
	require.NoError(t, err)
	assert.Equal(t, 4000, v)
	v, _ = f.Read(0)
	assert.Equal(t, 3000, v)
	v, _ = f.Read(0)
	assert.Equal(t, 3000, v, "last value repeats")
	assert.Equal(t, []int{0, 0, 0}, f.Channels)

	f.ReadError = errors.New("bus error")
	_, err = f.Read(0)
	assert.EqualError(t, err, "bus error")

	require.NoError(t, f.Close())
	assert.True(t, f.Closed)
}
