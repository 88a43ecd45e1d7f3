package vfat32

import (
	"github.com/rpifs/vfat32/checkpoint"
)

// clusterStartSector returns the logical sector at which cluster begins.
func (v *VFat) clusterStartSector(cluster Cluster) uint64 {
	return v.dataStartSector + cluster.offset()*uint64(v.sectorsPerCluster)
}

// readCluster walks physical (logical, partition-relative) sectors
// [clusterStart+sectorOffset, clusterStart+min(sectorsPerCluster,
// sectorOffset+len(buf)/bytesPerSector)), concatenating them into buf, per
// spec.md §4.6. It returns the number of bytes actually read.
func (v *VFat) readCluster(cluster Cluster, sectorOffset uint64, buf []byte) (int, error) {
	clusterStart := v.clusterStartSector(cluster)
	firstSector := clusterStart + sectorOffset

	maxSectorsInBuf := sectorOffset + uint64(len(buf))/uint64(v.bytesPerSector)
	lastSector := clusterStart + minUint64(uint64(v.sectorsPerCluster), maxSectorsInBuf)

	read := 0
	for sec := firstSector; sec < lastSector; sec++ {
		n, err := v.device.ReadSector(sec, buf[read:])
		if err != nil {
			return read, checkpoint.From(err)
		}
		read += n
	}
	return read, nil
}

// readChain follows the FAT chain starting at start, appending each
// cluster's bytes to buf, per spec.md §4.6. It returns the total number of
// bytes appended.
//
// A Bad or Reserved entry encountered before end-of-chain is a hard error
// (ErrCorruptChain), matching spec.md invariant 2: chains must terminate
// cleanly, never mid-chain on a malformed entry.
func (v *VFat) readChain(start Cluster, buf *[]byte) (int, error) {
	read := 0
	cluster := start

	clusterBytes := int(v.sectorsPerCluster) * int(v.bytesPerSector)

	for {
		*buf = append(*buf, make([]byte, clusterBytes)...)
		n, err := v.readCluster(cluster, 0, (*buf)[read:])
		if err != nil {
			return read, checkpoint.From(err)
		}
		read += n

		status, err := v.fatEntry(cluster)
		if err != nil {
			return read, checkpoint.From(err)
		}

		switch status.Kind {
		case StatusData:
			cluster = status.Next
		case StatusEOC:
			return read, nil
		default:
			return read, checkpoint.From(ErrCorruptChain)
		}
	}
}

// readAt reads into buf starting at byte offset off within the file rooted
// at start, following the FAT chain cluster-by-cluster until buf is full or
// the chain ends. Unlike readChain (used for directories, which are always
// read whole) this skips full clusters without ever materialising their
// bytes, since a File's read cursor can sit anywhere in an arbitrarily long
// chain (spec.md §4.8).
func (v *VFat) readAt(start Cluster, off uint32, buf []byte) (int, error) {
	clusterBytes := uint32(v.sectorsPerCluster) * uint32(v.bytesPerSector)

	cluster := start
	remainingSkip := off
	for remainingSkip >= clusterBytes {
		status, err := v.fatEntry(cluster)
		if err != nil {
			return 0, checkpoint.From(err)
		}
		if status.Kind != StatusData {
			return 0, checkpoint.From(ErrCorruptChain)
		}
		cluster = status.Next
		remainingSkip -= clusterBytes
	}

	read := 0
	sectorOffset := uint64(remainingSkip) / uint64(v.bytesPerSector)
	byteOffset := remainingSkip % uint32(v.bytesPerSector)
	bounce := make([]byte, clusterBytes)
	for read < len(buf) {
		n, err := v.readCluster(cluster, sectorOffset, bounce)
		if err != nil {
			return read, checkpoint.From(err)
		}
		read += copy(buf[read:], bounce[byteOffset:n])

		if read >= len(buf) {
			break
		}

		status, err := v.fatEntry(cluster)
		if err != nil {
			return read, checkpoint.From(err)
		}
		if status.Kind != StatusData {
			return read, checkpoint.From(ErrCorruptChain)
		}
		cluster = status.Next
		sectorOffset = 0
		byteOffset = 0
	}

	return read, nil
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
