package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBlobCopies(t *testing.T) {
	src := []byte("alpha")
	b := NewBlob(src)

	src[0] = 'A'
	require.Equal(t, []byte("alpha"), b.Bytes())
	require.Equal(t, 5, b.Len())
}

func TestTakeBlobDoesNotCopy(t *testing.T) {
	buf := []byte("beta")
	b := TakeBlob(buf)
	require.Same(t, &buf[0], &b.Bytes()[0])
}

func TestBlobZeroLength(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
	}{
		{"Nil", nil},
		{"Empty", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBlob(tt.src)
			require.Equal(t, 0, b.Len())
			require.NotNil(t, b.Bytes())
			b.Release()
		})
	}
}

func TestBlobReleaseOnce(t *testing.T) {
	b := NewBlob([]byte("gamma"))
	buf := b.Release()
	require.Equal(t, []byte("gamma"), buf)
	require.True(t, b.Released())

	require.PanicsWithValue(t, ErrBlobReleased, func() { b.Release() })
	require.PanicsWithValue(t, ErrBlobReleased, func() { b.Bytes() })
	require.PanicsWithValue(t, ErrBlobReleased, func() { b.Len() })
}

func TestBlobStatsBalance(t *testing.T) {
	allocBefore, relBefore := BlobStats()

	blobs := make([]*Blob, 0, 10)
	for i := 0; i < 10; i++ {
		blobs = append(blobs, NewBlob([]byte{byte(i)}))
	}
	alloc, rel := BlobStats()
	require.Equal(t, allocBefore+10, alloc)
	require.Equal(t, relBefore, rel)

	for _, b := range blobs {
		b.Release()
	}
	alloc, rel = BlobStats()
	require.Equal(t, alloc-allocBefore, rel-relBefore)
}
