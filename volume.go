package vfat32

import (
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/rpifs/vfat32/checkpoint"
)

// Volume adapts a mounted filesystem to afero.Fs, the host-filesystem
// abstraction the rest of the pack's tooling (and this repo's own cmd/
// CLI) builds against. Every mutating method returns ErrUnimplemented:
// this driver never writes to the underlying BlockDevice (spec.md
// Non-goals).
type Volume struct {
	handle Handle
}

// NewVolume mounts device and wraps the result as an afero.Fs.
func NewVolume(device BlockDevice, opts ...MountOption) (*Volume, error) {
	h, err := Mount(device, opts...)
	if err != nil {
		return nil, checkpoint.From(err)
	}
	return &Volume{handle: h}, nil
}

func (v *Volume) Name() string { return "vfat32" }

func (v *Volume) Open(name string) (afero.File, error) {
	entry, err := Open(v.handle, name)
	if err != nil {
		return nil, checkpoint.From(err)
	}
	return newAferoFile(name, entry), nil
}

func (v *Volume) OpenFile(name string, _ int, _ os.FileMode) (afero.File, error) {
	return v.Open(name)
}

func (v *Volume) Stat(name string) (os.FileInfo, error) {
	entry, err := Open(v.handle, name)
	if err != nil {
		return nil, checkpoint.From(err)
	}
	return entryFileInfo{entry: entry}, nil
}

func (v *Volume) Create(string) (afero.File, error)         { return nil, checkpoint.From(ErrUnimplemented) }
func (v *Volume) Mkdir(string, os.FileMode) error            { return checkpoint.From(ErrUnimplemented) }
func (v *Volume) MkdirAll(string, os.FileMode) error         { return checkpoint.From(ErrUnimplemented) }
func (v *Volume) Remove(string) error                        { return checkpoint.From(ErrUnimplemented) }
func (v *Volume) RemoveAll(string) error                     { return checkpoint.From(ErrUnimplemented) }
func (v *Volume) Rename(string, string) error                { return checkpoint.From(ErrUnimplemented) }
func (v *Volume) Chmod(string, os.FileMode) error             { return checkpoint.From(ErrUnimplemented) }
func (v *Volume) Chown(string, int, int) error                { return checkpoint.From(ErrUnimplemented) }
func (v *Volume) Chtimes(string, time.Time, time.Time) error { return checkpoint.From(ErrUnimplemented) }

// entryFileInfo adapts an Entry's Metadata to os.FileInfo.
type entryFileInfo struct {
	entry Entry
}

func (i entryFileInfo) Name() string { return i.entry.Name() }

func (i entryFileInfo) Size() int64 {
	if file, ok := i.entry.AsFile(); ok {
		return int64(file.Size())
	}
	return 0
}

func (i entryFileInfo) Mode() os.FileMode {
	mode := os.FileMode(0444)
	if _, ok := i.entry.AsDir(); ok {
		mode |= os.ModeDir
	}
	return mode
}

func (i entryFileInfo) ModTime() time.Time {
	m := i.entry.Metadata().Modified()
	return time.Date(m.Year(), time.Month(m.Month()), int(m.Day()), int(m.Hour()), int(m.Minute()), int(m.Second()), 0, time.UTC)
}

func (i entryFileInfo) IsDir() bool { _, ok := i.entry.AsDir(); return ok }
func (i entryFileInfo) Sys() any    { return i.entry }

// aferoFile adapts a Dir or File Entry to afero.File. Only one of dir/file
// is ever set, matching which half of the Entry union the wrapped value
// came from.
type aferoFile struct {
	path string
	dir  *Dir
	file *File
}

func newAferoFile(path string, entry Entry) *aferoFile {
	a := &aferoFile{path: path}
	if d, ok := entry.AsDir(); ok {
		a.dir = &d
	}
	if f, ok := entry.AsFile(); ok {
		a.file = &f
	}
	return a
}

func (a *aferoFile) Name() string { return a.path }

func (a *aferoFile) Read(p []byte) (int, error) {
	if a.file == nil {
		return 0, checkpoint.From(ErrNotADirectory)
	}
	return a.file.Read(p)
}

func (a *aferoFile) ReadAt(p []byte, off int64) (int, error) {
	if a.file == nil {
		return 0, checkpoint.From(ErrNotADirectory)
	}
	if _, err := a.file.Seek(off, 0); err != nil {
		return 0, checkpoint.From(err)
	}
	return a.file.Read(p)
}

func (a *aferoFile) Seek(offset int64, whence int) (int64, error) {
	if a.file == nil {
		return 0, checkpoint.From(ErrNotADirectory)
	}
	return a.file.Seek(offset, whence)
}

func (a *aferoFile) Close() error { return nil }
func (a *aferoFile) Sync() error  { return checkpoint.From(ErrUnimplemented) }

func (a *aferoFile) Write([]byte) (int, error)          { return 0, checkpoint.From(ErrUnimplemented) }
func (a *aferoFile) WriteAt([]byte, int64) (int, error) { return 0, checkpoint.From(ErrUnimplemented) }
func (a *aferoFile) WriteString(string) (int, error)    { return 0, checkpoint.From(ErrUnimplemented) }
func (a *aferoFile) Truncate(int64) error               { return checkpoint.From(ErrUnimplemented) }

func (a *aferoFile) Stat() (os.FileInfo, error) {
	if a.dir != nil {
		return entryFileInfo{entry: *a.dir}, nil
	}
	return entryFileInfo{entry: *a.file}, nil
}

func (a *aferoFile) Readdir(count int) ([]os.FileInfo, error) {
	if a.dir == nil {
		return nil, checkpoint.From(ErrNotADirectory)
	}
	entries, err := a.dir.Entries()
	if err != nil {
		return nil, checkpoint.From(err)
	}
	if count > 0 && count < len(entries) {
		entries = entries[:count]
	}
	infos := make([]os.FileInfo, len(entries))
	for idx, e := range entries {
		infos[idx] = entryFileInfo{entry: e}
	}
	return infos, nil
}

func (a *aferoFile) Readdirnames(n int) ([]string, error) {
	infos, err := a.Readdir(n)
	if err != nil {
		return nil, checkpoint.From(err)
	}
	names := make([]string, len(infos))
	for idx, info := range infos {
		names[idx] = info.Name()
	}
	return names, nil
}
