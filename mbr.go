package vfat32

import (
	"bytes"
	"encoding/binary"

	"github.com/rpifs/vfat32/checkpoint"
)

const mbrSectorSize = 512

// fat32PartitionTypes are the MBR partition-type bytes that mark a FAT32
// partition: 0x0B (CHS) and 0x0C (LBA).
var fat32PartitionTypes = map[byte]bool{0x0B: true, 0x0C: true}

// chs is the on-disk cylinder-head-sector address; this driver never
// decodes it further since every modern BIOS addresses by LBA.
type chs struct {
	Head                     byte
	SectorPlusCylinderHigh   byte
	CylinderLow              byte
}

// mbrPartitionEntry is one 16-byte entry of the MBR partition table.
type mbrPartitionEntry struct {
	BootIndicator  byte
	StartingCHS    chs
	PartitionType  byte
	EndingCHS      chs
	RelativeSector uint32
	TotalSectors   uint32
}

// IsFAT32 reports whether this entry's partition type marks a FAT32
// partition (0x0B or 0x0C).
func (p mbrPartitionEntry) IsFAT32() bool {
	return fat32PartitionTypes[p.PartitionType]
}

// masterBootRecord is the 512-byte sector 0 of a partitioned disk.
type masterBootRecord struct {
	Bootstrap      [436]byte
	DiskID         [10]byte
	PartitionTable [4]mbrPartitionEntry
	Signature      [2]byte
}

// readMasterBootRecord reads and validates physical sector 0 of device.
//
// It returns ErrBadSignature if the trailing magic isn't 0x55 0xAA, and an
// *UnknownBootIndicatorError if any partition table entry's boot indicator
// is neither 0x00 nor 0x80.
func readMasterBootRecord(device BlockDevice) (*masterBootRecord, error) {
	buf := make([]byte, mbrSectorSize)
	if _, err := device.ReadSector(0, buf); err != nil {
		return nil, checkpoint.From(err)
	}

	var mbr masterBootRecord
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &mbr); err != nil {
		return nil, checkpoint.From(err)
	}

	if mbr.Signature != [2]byte{0x55, 0xAA} {
		return nil, checkpoint.From(ErrBadSignature)
	}

	for i, entry := range mbr.PartitionTable {
		if entry.BootIndicator != 0x00 && entry.BootIndicator != 0x80 {
			return nil, checkpoint.From(&UnknownBootIndicatorError{Partition: i, Value: entry.BootIndicator})
		}
	}

	return &mbr, nil
}

// findFAT32Partition returns the first partition table entry whose type
// marks a FAT32 partition.
func (m *masterBootRecord) findFAT32Partition() (*mbrPartitionEntry, error) {
	for i := range m.PartitionTable {
		if m.PartitionTable[i].IsFAT32() {
			return &m.PartitionTable[i], nil
		}
	}
	return nil, checkpoint.From(ErrNoFat32Partition)
}
