package vfat32

import (
	"encoding/binary"

	"github.com/rpifs/vfat32/checkpoint"
)

// FATStatusKind classifies a decoded FAT entry, per spec.md §3.
type FATStatusKind int

const (
	StatusFree FATStatusKind = iota
	StatusReserved
	StatusData
	StatusBad
	StatusEOC
)

// FATStatus is the interpreted form of a 32-bit FAT table entry.
type FATStatus struct {
	Kind FATStatusKind
	// Next holds the next cluster in the chain when Kind == StatusData.
	Next Cluster
	// Raw holds the masked 28-bit entry value for StatusEOC (the low bits
	// of an end-of-chain marker vary and are occasionally inspected).
	Raw uint32
}

// classifyFATEntry maps a raw (already-masked to 28 bits) FAT32 entry value
// to a FATStatus, following the ranges in spec.md §3:
//
//	0                        -> Free
//	1                        -> Reserved
//	0x00000002..0x0FFFFFEF   -> Data(next)
//	0x0FFFFFF0..0x0FFFFFF6   -> Reserved
//	0x0FFFFFF7               -> Bad
//	0x0FFFFFF8..0x0FFFFFFF   -> EndOfChain
func classifyFATEntry(masked uint32) FATStatus {
	switch {
	case masked == 0x00000000:
		return FATStatus{Kind: StatusFree}
	case masked == 0x00000001:
		return FATStatus{Kind: StatusReserved}
	case masked >= 0x00000002 && masked <= 0x0FFFFFEF:
		return FATStatus{Kind: StatusData, Next: ClusterFromRaw(masked)}
	case masked >= 0x0FFFFFF0 && masked <= 0x0FFFFFF6:
		return FATStatus{Kind: StatusReserved}
	case masked == 0x0FFFFFF7:
		return FATStatus{Kind: StatusBad}
	default: // 0x0FFFFFF8..0x0FFFFFFF
		return FATStatus{Kind: StatusEOC, Raw: masked}
	}
}

// fatEntry reads the FAT entry for cluster c out of the cached FAT sector it
// lives in, per spec.md §4.5: entriesPerSector = bytesPerSector/4, sector =
// fatStartSector + c/entriesPerSector, slot = c%entriesPerSector.
func (v *VFat) fatEntry(c Cluster) (FATStatus, error) {
	entriesPerSector := uint64(v.bytesPerSector) / 4
	sector := v.fatStartSector + uint64(c)/entriesPerSector
	slot := uint64(c) % entriesPerSector

	data, err := v.device.Get(sector)
	if err != nil {
		return FATStatus{}, checkpoint.From(err)
	}

	off := slot * 4
	if off+4 > uint64(len(data)) {
		return FATStatus{}, checkpoint.From(ErrSectorRange)
	}

	raw := binary.LittleEndian.Uint32(data[off:off+4]) & 0x0FFFFFFF
	return classifyFATEntry(raw), nil
}
