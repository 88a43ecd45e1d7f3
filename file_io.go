package vfat32

import (
	"io"

	"github.com/rpifs/vfat32/checkpoint"
)

// Read implements io.Reader over a File's cluster chain, per spec.md §4.8:
// a read of len(p) bytes returns min(len(p), size-cursor) bytes and
// advances the cursor by that amount; reading at or past size returns
// io.EOF with zero bytes, never an error.
func (f *File) Read(p []byte) (int, error) {
	if f.cursor >= f.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	remaining := f.size - f.cursor
	want := uint32(len(p))
	if want > remaining {
		want = remaining
	}

	n, err := WithLock(f.handle, func(vf *VFat) (int, error) {
		return vf.readAt(f.startCluster, f.cursor, p[:want])
	})
	f.cursor += uint32(n)
	if err != nil {
		return n, checkpoint.From(err)
	}
	return n, nil
}

// Seek implements io.Seeker. The resulting offset must land in [0, size];
// anything else is ErrInvalidInput, since this driver never extends a file
// (spec.md §4.8, §6 edge cases).
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = int64(f.cursor) + offset
	case io.SeekEnd:
		target = int64(f.size) + offset
	default:
		return 0, checkpoint.From(ErrInvalidInput)
	}

	if target < 0 || target > int64(f.size) {
		return 0, checkpoint.From(ErrInvalidInput)
	}

	f.cursor = uint32(target)
	return target, nil
}

// Close is a no-op: a File holds no OS resources of its own, only a shared
// Handle to the mounted filesystem.
func (f *File) Close() error { return nil }

// Write always fails: this driver is read-only (spec.md Non-goals).
func (f *File) Write([]byte) (int, error) {
	return 0, checkpoint.From(ErrUnimplemented)
}
