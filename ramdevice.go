package vfat32

import (
	"io"
	"os"

	"github.com/rpifs/vfat32/checkpoint"
)

// RamDevice is an in-memory BlockDevice, useful for tests and for tools
// that have already slurped an image into memory. It also backs the
// synthetic images built by the test suite's image builder.
type RamDevice struct {
	sectorSize uint64
	data       []byte
}

// NewRamDevice wraps data as a BlockDevice with the given sector size.
// data's length need not be a multiple of sectorSize; a short final
// sector behaves as if it were zero-padded.
func NewRamDevice(data []byte, sectorSize uint64) *RamDevice {
	return &RamDevice{sectorSize: sectorSize, data: data}
}

func (d *RamDevice) SectorSize() uint64 { return d.sectorSize }

func (d *RamDevice) ReadSector(n uint64, buf []byte) (int, error) {
	if uint64(len(buf)) < d.sectorSize {
		return 0, checkpoint.From(ErrInvalidInput)
	}

	start := n * d.sectorSize
	if start >= uint64(len(d.data)) {
		return 0, checkpoint.From(ErrInvalidInput)
	}

	end := start + d.sectorSize
	if end > uint64(len(d.data)) {
		end = uint64(len(d.data))
	}

	copied := copy(buf, d.data[start:end])
	for i := copied; i < int(d.sectorSize); i++ {
		buf[i] = 0
	}
	return int(d.sectorSize), nil
}

func (d *RamDevice) WriteSector(n uint64, buf []byte) (int, error) {
	if uint64(len(buf)) < d.sectorSize {
		return 0, checkpoint.From(ErrInvalidInput)
	}

	start := n * d.sectorSize
	end := start + d.sectorSize
	if end > uint64(len(d.data)) {
		grown := make([]byte, end)
		copy(grown, d.data)
		d.data = grown
	}
	copy(d.data[start:end], buf[:d.sectorSize])
	return int(d.sectorSize), nil
}

func (d *RamDevice) ReadAllSector(n uint64, buf *[]byte) error {
	tmp := make([]byte, d.sectorSize)
	if _, err := d.ReadSector(n, tmp); err != nil {
		return err
	}
	*buf = append(*buf, tmp...)
	return nil
}

// FileDevice adapts an *os.File into a BlockDevice, the way the teacher's cmd/ tools open a
// FAT image with os.Open and hand the *os.File straight to the driver.
type FileDevice struct {
	sectorSize uint64
	f          *os.File
}

// NewFileDevice wraps f as a BlockDevice with the given sector size.
func NewFileDevice(f *os.File, sectorSize uint64) *FileDevice {
	return &FileDevice{sectorSize: sectorSize, f: f}
}

func (d *FileDevice) SectorSize() uint64 { return d.sectorSize }

func (d *FileDevice) ReadSector(n uint64, buf []byte) (int, error) {
	if uint64(len(buf)) < d.sectorSize {
		return 0, checkpoint.From(ErrInvalidInput)
	}
	read, err := d.f.ReadAt(buf[:d.sectorSize], int64(n*d.sectorSize))
	if err != nil && err != io.EOF {
		return read, checkpoint.From(err)
	}
	return read, nil
}

func (d *FileDevice) WriteSector(n uint64, buf []byte) (int, error) {
	if uint64(len(buf)) < d.sectorSize {
		return 0, checkpoint.From(ErrInvalidInput)
	}
	written, err := d.f.WriteAt(buf[:d.sectorSize], int64(n*d.sectorSize))
	if err != nil {
		return written, checkpoint.From(err)
	}
	return written, nil
}

func (d *FileDevice) ReadAllSector(n uint64, buf *[]byte) error {
	tmp := make([]byte, d.sectorSize)
	if _, err := d.ReadSector(n, tmp); err != nil {
		return err
	}
	*buf = append(*buf, tmp...)
	return nil
}
