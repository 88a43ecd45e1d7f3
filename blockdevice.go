package vfat32

//go:generate mockgen -source=blockdevice.go -destination=mock_blockdevice_test.go -package=vfat32

// BlockDevice is the trait-level abstraction this driver is built on: a
// sector-addressed, byte-oriented storage device. An SD-card controller,
// a RAM-backed image, or a plain os.File all satisfy it.
//
// Implementations must treat sector numbers as device-relative (physical)
// sectors of SectorSize() bytes each. Every method must be safe to call
// from a single caller at a time; this package never calls a BlockDevice
// concurrently from two goroutines without the caller's own critical
// section (see lock.go) serialising access.
type BlockDevice interface {
	// SectorSize returns the device's physical sector size in bytes. It is
	// constant for the lifetime of the device.
	SectorSize() uint64

	// ReadSector reads sector n into buf, returning the number of bytes
	// read. buf must be at least SectorSize() bytes long; otherwise
	// ErrInvalidInput is returned.
	ReadSector(n uint64, buf []byte) (int, error)

	// WriteSector writes buf to sector n, returning the number of bytes
	// written. This driver never calls WriteSector; it exists so a
	// BlockDevice can be shared with writers outside this package.
	WriteSector(n uint64, buf []byte) (int, error)

	// ReadAllSector reads exactly one sector's worth of bytes from sector n
	// and appends them to buf.
	ReadAllSector(n uint64, buf *[]byte) error
}
