package wal

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"
	"sync"

	"finedb/internal/common"
)

// FileWAL appends entries to a single file on disk.
//
// Record format: action(1) + seq(8) + keyLen(uvarint) + valueLen(uvarint) +
// key + value + crc32(4) over everything before the checksum.
type FileWAL struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	noSync   bool
	maxKey   uint64
	maxValue uint64
	scratch  bytes.Buffer
}

// OpenWAL creates (or reopens) a WAL file at path.
func OpenWAL(path string) (*FileWAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileWAL{
		file: f,
		path: path,
	}, nil
}

// SetSync controls whether Append fsyncs before returning. Defaults to true.
func (l *FileWAL) SetSync(sync bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.noSync = !sync
}

// SetMaxEntrySize makes readers treat records whose key or value length
// exceeds the given sizes as corruption. Zero leaves a length unchecked.
func (l *FileWAL) SetMaxEntrySize(key, value int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxKey = uint64(max(key, 0))
	l.maxValue = uint64(max(value, 0))
}

// Close releases the underlying file handle.
func (l *FileWAL) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Append persists the provided batch. Entries are written sequentially.
func (l *FileWAL) Append(ctx context.Context, batch []Entry) error {
	if len(batch) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return ErrClosed
	}

	l.scratch.Reset()
	for _, e := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		encodeEntry(&l.scratch, e)
	}
	if _, err := l.file.Write(l.scratch.Bytes()); err != nil {
		return err
	}
	if l.noSync {
		return nil
	}
	return l.file.Sync()
}

func encodeEntry(buf *bytes.Buffer, e Entry) {
	start := buf.Len()
	common.WriteUint8(buf, uint8(e.Action))
	common.WriteUint64(buf, e.Seq)
	common.WriteUvarint(buf, uint64(len(e.Key)))
	common.WriteUvarint(buf, uint64(len(e.Value)))
	common.WriteBytes(buf, e.Key)
	common.WriteBytes(buf, e.Value)
	sum := crc32.ChecksumIEEE(buf.Bytes()[start:])
	common.WriteUint32(buf, sum)
}

// Iterator returns a forward-only reader over all log entries.
func (l *FileWAL) Iterator(ctx context.Context) (Iterator, error) {
	it, err := l.openIterator(ctx)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (l *FileWAL) openIterator(ctx context.Context) (*fileIterator, error) {
	r, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	info, err := r.Stat()
	if err != nil {
		r.Close()
		return nil, err
	}

	l.mu.Lock()
	maxKey, maxValue := l.maxKey, l.maxValue
	l.mu.Unlock()

	return &fileIterator{
		ctx:      ctx,
		f:        r,
		br:       bufio.NewReader(r),
		size:     info.Size(),
		maxKey:   maxKey,
		maxValue: maxValue,
	}, nil
}

// Recover replays every intact entry through fn and then cuts off a torn
// tail left by a crash, so later appends start on a record boundary.
func (l *FileWAL) Recover(ctx context.Context, fn func(Entry) error) (int, error) {
	iter, err := l.openIterator(ctx)
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	n := 0
	for {
		entry, ok, err := iter.Next()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		if err := fn(entry); err != nil {
			return n, err
		}
		n++
	}

	if iter.offset == iter.size {
		return n, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return n, ErrClosed
	}
	if err := l.file.Truncate(iter.offset); err != nil {
		return n, fmt.Errorf("truncate torn tail: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return n, err
	}
	common.Warnf("wal: dropped %d byte torn tail of %s at offset %d", iter.size-iter.offset, l.path, iter.offset)
	return n, nil
}

type fileIterator struct {
	ctx      context.Context
	f        *os.File
	br       *bufio.Reader
	size     int64
	// offset is the end of the last intact record.
	offset   int64
	maxKey   uint64
	maxValue uint64
}

// Next decodes one record. A record cut short by a crash ends iteration
// cleanly; a complete record with a bad checksum, or a length beyond the
// configured entry limits, is ErrCorrupted.
func (it *fileIterator) Next() (Entry, bool, error) {
	if err := it.ctx.Err(); err != nil {
		return Entry{}, false, err
	}

	crc := crc32.NewIEEE()
	r := &checksumReader{r: it.br, crc: crc}

	action, err := common.ReadUint8(r)
	if err != nil {
		return endOf(err)
	}
	seq, err := common.ReadUint64(r)
	if err != nil {
		return endOf(err)
	}
	keyLen, err := common.ReadUvarint(r)
	if err != nil {
		return endOf(err)
	}
	valLen, err := common.ReadUvarint(r)
	if err != nil {
		return endOf(err)
	}

	if (it.maxKey > 0 && keyLen > it.maxKey) || (it.maxValue > 0 && valLen > it.maxValue) {
		return Entry{}, false, fmt.Errorf("%w: lengths %d/%d at offset %d", ErrCorrupted, keyLen, valLen, it.offset)
	}
	// Lengths running past the end of the file can only be a torn tail.
	remaining := uint64(it.size - it.offset - r.n)
	if keyLen > remaining || valLen > remaining-keyLen {
		return endOf(io.ErrUnexpectedEOF)
	}

	key, err := common.ReadBytes(r, keyLen)
	if err != nil {
		return endOf(err)
	}
	value, err := common.ReadBytes(r, valLen)
	if err != nil {
		return endOf(err)
	}

	want := crc.Sum32()
	got, err := common.ReadUint32(it.br)
	if err != nil {
		return endOf(err)
	}
	if got != want {
		return Entry{}, false, fmt.Errorf("%w at offset %d", ErrCorrupted, it.offset)
	}
	it.offset += r.n + 4

	return Entry{
		Action: common.Action(action),
		Seq:    seq,
		Key:    key,
		Value:  value,
	}, true, nil
}

func (it *fileIterator) Close() error {
	return it.f.Close()
}

func endOf(err error) (Entry, bool, error) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Entry{}, false, nil
	}
	return Entry{}, false, err
}

// checksumReader feeds every byte read through crc and counts them.
type checksumReader struct {
	r   *bufio.Reader
	crc hash.Hash32
	n   int64
}

func (c *checksumReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.crc.Write(p[:n])
	c.n += int64(n)
	return n, err
}

func (c *checksumReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.crc.Write([]byte{b})
		c.n++
	}
	return b, err
}
