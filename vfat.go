package vfat32

import (
	"github.com/rpifs/vfat32/checkpoint"
)

// VFat holds one mounted FAT32 filesystem's geometry and its
// CachedPartition. It is never used directly by callers; they go through a
// Handle (see lock.go), which is what File, Dir, and Entry carry around and
// clone freely.
type VFat struct {
	device CachedPartitionReader

	bytesPerSector    uint16
	sectorsPerCluster uint8
	sectorsPerFAT     uint32
	fatStartSector    uint64
	dataStartSector   uint64
	rootCluster       Cluster

	log *Logger
}

// CachedPartitionReader is the subset of *CachedPartition that VFat needs.
// It exists so tests can substitute a fake without wiring a whole
// BlockDevice, and so the cache and the filesystem decoder stay separately
// testable, per spec.md §2's component breakdown.
type CachedPartitionReader interface {
	Get(sector uint64) ([]byte, error)
	ReadSector(sector uint64, buf []byte) (int, error)
}

// Mount reads the MBR and BPB/EBPB from device, builds the FAT32 geometry
// described in spec.md §3, and returns a Handle to the mounted filesystem.
//
// Mount performs exactly the work spec.md §9's open question resolves: the
// FAT start sector is computed once, as the partition-relative reserved
// sector count (never re-derived relative to the physical disk).
func Mount(device BlockDevice, opts ...MountOption) (Handle, error) {
	cfg := mountConfig{log: discardLogger}
	for _, opt := range opts {
		opt(&cfg)
	}

	mbr, err := readMasterBootRecord(device)
	if err != nil {
		return Handle{}, checkpoint.From(err)
	}

	part, err := mbr.findFAT32Partition()
	if err != nil {
		return Handle{}, checkpoint.From(err)
	}

	ebpbSector := uint64(part.RelativeSector)
	bpb, err := readBIOSParameterBlock(device, ebpbSector)
	if err != nil {
		return Handle{}, checkpoint.From(err)
	}

	cached := NewCachedPartition(device, Partition{
		StartSector:       ebpbSector,
		NumSectors:        bpb.TotalLogicalSectors(),
		LogicalSectorSize: uint64(bpb.BytesPerSector),
	})
	cached.SetLogger(cfg.log)

	fatStartSector := uint64(bpb.ReservedSectorCount)
	dataStartSector := fatStartSector + uint64(bpb.NumFATs)*uint64(bpb.SectorsPerFAT())

	vf := &VFat{
		device:            cached,
		bytesPerSector:    bpb.BytesPerSector,
		sectorsPerCluster: bpb.SectorsPerCluster,
		sectorsPerFAT:     bpb.SectorsPerFAT(),
		fatStartSector:    fatStartSector,
		dataStartSector:   dataStartSector,
		rootCluster:       ClusterFromRaw(bpb.RootCluster),
		log:               cfg.log,
	}

	return newHandle(vf), nil
}

// MountOption configures Mount.
type MountOption func(*mountConfig)

type mountConfig struct {
	log *Logger
}

// WithLogger installs a logger that traces cache misses during the
// lifetime of the mounted filesystem. Chain traversal is not logged.
func WithLogger(l *Logger) MountOption {
	return func(c *mountConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// Open resolves path starting at the filesystem root, per spec.md §4.9:
// walk normal path components one at a time, requiring each intermediate
// Entry to be a Dir, and returning the final Entry (File or Dir). "." and
// the root marker are skipped; ".." is not handled (non-goal).
func Open(h Handle, path string) (Entry, error) {
	root, err := WithLock(h, func(vf *VFat) (Cluster, error) {
		return vf.rootCluster, nil
	})
	if err != nil {
		return nil, checkpoint.From(err)
	}

	var entry Entry = Dir{
		handle:      h,
		name:        "/",
		startCluster: root,
		metadata:    Metadata{},
	}

	for _, component := range splitPathComponents(path) {
		dir, ok := entry.(Dir)
		if !ok {
			return nil, checkpoint.From(ErrNotADirectory)
		}

		entry, err = dir.Find(component)
		if err != nil {
			return nil, checkpoint.From(err)
		}
	}

	return entry, nil
}

// splitPathComponents splits path on '/' and discards empty segments, the
// root marker, and "." — matching spec.md §4.9's normal-component walk.
func splitPathComponents(path string) []string {
	var components []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				seg := path[start:i]
				if seg != "." {
					components = append(components, seg)
				}
			}
			start = i + 1
		}
	}
	return components
}
