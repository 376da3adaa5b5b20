package common

import "sync/atomic"

var (
	blobsAllocated atomic.Int64
	blobsReleased  atomic.Int64
)

// Blob is an owned byte buffer used for keys and values. A Blob has exactly
// one owner at a time: it is handed to a Message on construction and released
// by the writer after the storage engine call returns.
type Blob struct {
	buf      []byte
	released bool
}

// NewBlob copies src into a freshly owned buffer.
func NewBlob(src []byte) *Blob {
	buf := make([]byte, len(src))
	copy(buf, src)
	return TakeBlob(buf)
}

// TakeBlob takes ownership of buf without copying. The caller must not touch
// buf afterwards.
func TakeBlob(buf []byte) *Blob {
	if buf == nil {
		buf = []byte{}
	}
	blobsAllocated.Add(1)
	return &Blob{buf: buf}
}

// Len returns the number of bytes held by the blob.
func (b *Blob) Len() int {
	b.mustOwn()
	return len(b.buf)
}

// Bytes borrows the underlying buffer. The slice is only valid until Release.
func (b *Blob) Bytes() []byte {
	b.mustOwn()
	return b.buf
}

// Release hands the buffer back to the caller and ends the blob's lifetime.
// Releasing twice panics.
func (b *Blob) Release() []byte {
	b.mustOwn()
	buf := b.buf
	b.buf = nil
	b.released = true
	blobsReleased.Add(1)
	return buf
}

// Released reports whether Release has been called.
func (b *Blob) Released() bool {
	return b.released
}

func (b *Blob) mustOwn() {
	if b == nil || b.released {
		panic(ErrBlobReleased)
	}
}

// BlobStats returns the number of blobs created and released since process
// start. Every created blob must eventually be released exactly once.
func BlobStats() (allocated, released int64) {
	return blobsAllocated.Load(), blobsReleased.Load()
}
