package vfat32

import (
	"github.com/hashicorp/go-multierror"

	"github.com/rpifs/vfat32/checkpoint"
)

// Partition describes where a partition lives on a BlockDevice and what
// logical sector size it presents. LogicalSectorSize must be an integer
// multiple of the underlying device's physical sector size; that ratio is
// the "factor" referred to throughout this file.
type Partition struct {
	// StartSector is the first physical sector of the partition.
	StartSector uint64
	// NumSectors is the number of logical sectors in the partition.
	NumSectors uint64
	// LogicalSectorSize is the size, in bytes, of one logical sector.
	LogicalSectorSize uint64
}

type cacheEntry struct {
	data  []byte
	dirty bool
}

// CachedPartition sits between a BlockDevice and the filesystem decoder.
// It presents logical (partition-relative) sectors of Partition.LogicalSectorSize
// bytes, caching each logical sector's backing physical sectors in memory on
// first access. Eviction is intentionally unspecified: for the read-only,
// small working sets this driver targets, an unbounded cache is acceptable;
// nothing in this package depends
// on entries ever being evicted.
type CachedPartition struct {
	device    BlockDevice
	partition Partition
	cache     map[uint64]*cacheEntry
	log       *Logger
}

// NewCachedPartition wraps device, presenting the logical sectors described
// by partition. It panics if partition.LogicalSectorSize is smaller than the
// device's physical sector size: that combination can never produce a valid
// factor and indicates a programming error in the caller, not a recoverable
// I/O condition.
func NewCachedPartition(device BlockDevice, partition Partition) *CachedPartition {
	if partition.LogicalSectorSize < device.SectorSize() {
		panic("vfat32: partition logical sector size smaller than device sector size")
	}

	return &CachedPartition{
		device:    device,
		partition: partition,
		cache:     make(map[uint64]*cacheEntry),
		log:       discardLogger,
	}
}

// SetLogger installs a logger used for cache-miss tracing. Passing nil
// restores the default no-op logger.
func (c *CachedPartition) SetLogger(l *Logger) {
	if l == nil {
		l = discardLogger
	}
	c.log = l
}

// factor is the number of physical sectors backing one logical sector.
func (c *CachedPartition) factor() uint64 {
	return c.partition.LogicalSectorSize / c.device.SectorSize()
}

// virtualToPhysical maps a logical sector number to the first physical
// sector that backs it. It returns false if virt is out of range.
func (c *CachedPartition) virtualToPhysical(virt uint64) (uint64, bool) {
	if virt >= c.partition.NumSectors {
		return 0, false
	}
	return c.partition.StartSector + virt*c.factor(), true
}

func (c *CachedPartition) fill(sector uint64) (*cacheEntry, error) {
	physical, ok := c.virtualToPhysical(sector)
	if !ok {
		return nil, checkpoint.From(ErrSectorRange)
	}

	c.log.Debugf("cache miss for logical sector %d (physical %d, factor %d)", sector, physical, c.factor())

	data := make([]byte, 0, c.device.SectorSize()*c.factor())

	var readErrs *multierror.Error
	for i := uint64(0); i < c.factor(); i++ {
		if err := c.device.ReadAllSector(physical+i, &data); err != nil {
			readErrs = multierror.Append(readErrs, err)
		}
	}
	if err := readErrs.ErrorOrNil(); err != nil {
		return nil, checkpoint.From(err)
	}

	entry := &cacheEntry{data: data}
	c.cache[sector] = entry
	return entry, nil
}

// get returns the cached logical sector, reading it from the device on a
// cache miss. The dirty flag is left untouched.
func (c *CachedPartition) get(sector uint64) (*cacheEntry, error) {
	if entry, ok := c.cache[sector]; ok {
		return entry, nil
	}
	return c.fill(sector)
}

// Get returns a view of logical sector sector's bytes, reading it from the
// device on a cache miss.
func (c *CachedPartition) Get(sector uint64) ([]byte, error) {
	entry, err := c.get(sector)
	if err != nil {
		return nil, err
	}
	return entry.data, nil
}

// GetMut returns a mutable view of logical sector sector's bytes and marks
// it dirty; this package never writes, but the method is kept symmetric
// with spec.md §4.2 for callers that layer writing on top.
func (c *CachedPartition) GetMut(sector uint64) ([]byte, error) {
	entry, err := c.get(sector)
	if err != nil {
		return nil, err
	}
	entry.dirty = true
	return entry.data, nil
}

// SectorSize returns the logical sector size of the partition.
func (c *CachedPartition) SectorSize() uint64 {
	return c.partition.LogicalSectorSize
}

// ReadSector copies up to len(buf) bytes of logical sector sector into buf.
// Unlike the BlockDevice contract, a buf shorter than the logical sector is
// not an error: only len(buf) bytes are copied and that count is returned.
func (c *CachedPartition) ReadSector(sector uint64, buf []byte) (int, error) {
	data, err := c.Get(sector)
	if err != nil {
		return 0, err
	}
	n := len(data)
	if len(buf) < n {
		n = len(buf)
	}
	copy(buf[:n], data[:n])
	return n, nil
}

// WriteSector is unimplemented: this is a read-only filesystem.
func (c *CachedPartition) WriteSector(sector uint64, buf []byte) (int, error) {
	return 0, checkpoint.From(ErrUnimplemented)
}

// ReadAllSector appends logical sector sector's bytes to buf.
func (c *CachedPartition) ReadAllSector(sector uint64, buf *[]byte) error {
	data, err := c.Get(sector)
	if err != nil {
		return err
	}
	*buf = append(*buf, data...)
	return nil
}
