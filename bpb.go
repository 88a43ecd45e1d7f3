package vfat32

import (
	"bytes"
	"encoding/binary"

	"github.com/rpifs/vfat32/checkpoint"
)

const bpbSectorSize = 512

// biosParameterBlock is the FAT32 BIOS Parameter Block together with its
// FAT32-specific extension, read from one 512-byte sector as described in
// spec.md §3/§4.4. The legacy 16-bit sectors-per-fat and total-sectors
// fields are kept only so the struct's on-disk layout matches byte-for-byte;
// SectorsPerFAT() and TotalLogicalSectors() always resolve to the FAT32
// override fields.
type biosParameterBlock struct {
	JmpBoot             [3]byte
	OEMName             [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   byte
	ReservedSectorCount uint16
	NumFATs             byte
	RootEntryCount      uint16
	TotalSectors16      uint16
	Media               byte
	FATSize16           uint16
	SectorsPerTrack     uint16
	NumHeads            uint16
	HiddenSectors       uint32
	TotalSectors32      uint32

	// FAT32 extended BPB.
	FATSize32          uint32
	ExtFlags           uint16
	FSVersion          uint16
	RootCluster        uint32
	FSInfoSector       uint16
	BackupBootSector   uint16
	Reserved           [12]byte
	DriveNumber        byte
	Reserved1          byte
	BootSignature      byte
	VolumeID           uint32
	VolumeLabel        [11]byte
	FileSystemType     [8]byte
	BootCode           [420]byte
	BootSectorSignature uint16
}

// SectorsPerFAT returns the number of sectors occupied by one copy of the
// FAT, using the FAT32 32-bit override field.
func (b *biosParameterBlock) SectorsPerFAT() uint32 {
	return b.FATSize32
}

// TotalLogicalSectors returns the partition's total sector count, using the
// FAT32 32-bit override field.
func (b *biosParameterBlock) TotalLogicalSectors() uint64 {
	return uint64(b.TotalSectors32)
}

// readBIOSParameterBlock reads the FAT32 BPB/EBPB from physical sector
// relativeSector of device: the partition's first sector, as recorded in
// the MBR partition entry's relative-sector field.
//
// Only the boot-sector signature at offset 510-511 is validated (it must be
// 0xAA55); the informational BS_BootSig field (observed as 0x28 or 0x29) is
// read but not checked, per spec.md §4.4.
func readBIOSParameterBlock(device BlockDevice, relativeSector uint64) (*biosParameterBlock, error) {
	buf := make([]byte, bpbSectorSize)
	if _, err := device.ReadSector(relativeSector, buf); err != nil {
		return nil, checkpoint.From(err)
	}

	var bpb biosParameterBlock
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &bpb); err != nil {
		return nil, checkpoint.From(err)
	}

	if bpb.BootSectorSignature != 0xAA55 {
		return nil, checkpoint.From(ErrBadSignature)
	}

	return &bpb, nil
}
