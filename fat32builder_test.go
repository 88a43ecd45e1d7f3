package vfat32

import (
	"encoding/binary"
)

// fat32Builder assembles a synthetic FAT32 image in memory, used across the
// test suite instead of checked-in binary fixtures (spec.md §10.4's
// direction: tests build their own disks).
type fat32Builder struct {
	sectorSize        uint64
	sectorsPerCluster uint8
	reservedSectors   uint16
	partitionStart    uint64

	fat      []uint32
	clusters [][]byte // indexed by cluster number - 2
}

func newFAT32Builder(sectorsPerCluster uint8) *fat32Builder {
	b := &fat32Builder{
		sectorSize:        512,
		sectorsPerCluster: sectorsPerCluster,
		reservedSectors:   2,
		partitionStart:    1,
		fat:               make([]uint32, 2, 16),
	}
	// Entries 0 and 1 are reserved; entry 0 conventionally mirrors the
	// media descriptor.
	b.fat[0] = 0x0FFFFFF8
	b.fat[1] = 0x0FFFFFFF
	return b
}

func (b *fat32Builder) clusterBytes() int {
	return int(b.sectorsPerCluster) * int(b.sectorSize)
}

// allocChain splits data across as many clusters as needed (zero-padding
// the last one) and links them in the FAT, returning the start cluster.
func (b *fat32Builder) allocChain(data []byte) Cluster {
	clusterSize := b.clusterBytes()
	if len(data) == 0 {
		data = make([]byte, clusterSize)
	}

	var clusterNums []uint32
	for off := 0; off < len(data); off += clusterSize {
		end := off + clusterSize
		chunk := make([]byte, clusterSize)
		if end > len(data) {
			end = len(data)
		}
		copy(chunk, data[off:end])

		num := uint32(len(b.fat))
		b.fat = append(b.fat, 0x0FFFFFFF) // EOC until linked below
		b.clusters = append(b.clusters, chunk)
		clusterNums = append(clusterNums, num)
	}

	for i := 0; i < len(clusterNums)-1; i++ {
		b.fat[clusterNums[i]] = clusterNums[i+1]
	}

	return Cluster(clusterNums[0])
}

// shortNameEntry builds one 32-byte 8.3 directory record.
func shortNameEntry(name string, attr Attributes, cluster Cluster, size uint32) []byte {
	entry := make([]byte, dirEntrySize)
	nameField, extField := split83(name)
	copy(entry[0:8], []byte(nameField))
	copy(entry[8:11], []byte(extField))
	entry[11] = byte(attr)
	binary.LittleEndian.PutUint16(entry[20:22], uint16(cluster.Value()>>16))
	binary.LittleEndian.PutUint16(entry[26:28], uint16(cluster.Value()&0xFFFF))
	binary.LittleEndian.PutUint32(entry[28:32], size)
	return entry
}

// split83 pads name/ext to the fixed 8.3 field widths with spaces,
// mirroring the on-disk short-name convention.
func split83(name string) (string, string) {
	base := name
	ext := ""
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			base = name[:i]
			ext = name[i+1:]
			break
		}
	}
	for len(base) < 8 {
		base += " "
	}
	for len(ext) < 3 {
		ext += " "
	}
	return base[:8], ext[:3]
}

// longNameEntries builds the LFN records preceding a short entry for name,
// most-significant fragment first, as FAT32 stores them on disk.
func longNameEntries(name string) []byte {
	units := make([]uint16, 0, len(name))
	for _, r := range name {
		units = append(units, uint16(r))
	}
	units = append(units, 0x0000)

	var records [][]byte
	for start := 0; start < len(units); start += lfnCharsPerRecord {
		end := start + lfnCharsPerRecord
		chunk := make([]uint16, lfnCharsPerRecord)
		for i := range chunk {
			chunk[i] = 0xFFFF
		}
		for i := 0; start+i < end && start+i < len(units); i++ {
			chunk[i] = units[start+i]
		}
		records = append(records, lfnRecordBytes(chunk))
	}

	out := make([]byte, 0, len(records)*dirEntrySize)
	for i := len(records) - 1; i >= 0; i-- {
		sequence := byte(i + 1)
		if i == len(records)-1 {
			sequence |= 0x40
		}
		rec := records[i]
		rec[0] = sequence
		out = append(out, rec...)
	}
	return out
}

func lfnRecordBytes(chunk []uint16) []byte {
	rec := make([]byte, dirEntrySize)
	rec[11] = byte(AttrLFN)
	putUnits := func(off int, units []uint16) {
		for i, u := range units {
			binary.LittleEndian.PutUint16(rec[off+i*2:off+i*2+2], u)
		}
	}
	putUnits(1, chunk[0:5])
	putUnits(14, chunk[5:11])
	putUnits(28, chunk[11:13])
	return rec
}

// addEntry appends a regular file/dir entry (with an optional long-name
// prefix) to a directory's raw byte buffer.
func addEntry(buf []byte, longName, shortName string, attr Attributes, cluster Cluster, size uint32) []byte {
	if longName != "" {
		buf = append(buf, longNameEntries(longName)...)
	}
	buf = append(buf, shortNameEntry(shortName, attr, cluster, size)...)
	return buf
}

// build assembles the full device image: MBR, BPB, FAT, and data region.
// rootDir is the raw byte content of the root directory (built with
// addEntry); the builder allocates its cluster chain like any other file.
func (b *fat32Builder) build(rootDir []byte) []byte {
	rootCluster := b.allocChain(rootDir)

	sectorsPerFAT := uint32((len(b.fat)*4 + int(b.sectorSize) - 1) / int(b.sectorSize))
	if sectorsPerFAT == 0 {
		sectorsPerFAT = 1
	}

	dataClusters := len(b.clusters)
	dataSectors := dataClusters * int(b.sectorsPerCluster)

	totalPartitionSectors := uint64(b.reservedSectors) + uint64(sectorsPerFAT) + uint64(dataSectors)
	totalDeviceSectors := b.partitionStart + totalPartitionSectors

	image := make([]byte, totalDeviceSectors*b.sectorSize)

	// MBR at sector 0.
	mbr := image[0:512]
	mbr[510] = 0x55
	mbr[511] = 0xAA
	partEntry := mbr[446 : 446+16]
	partEntry[0] = 0x80 // boot indicator
	partEntry[4] = 0x0C // FAT32 LBA
	binary.LittleEndian.PutUint32(partEntry[8:12], uint32(b.partitionStart))
	binary.LittleEndian.PutUint32(partEntry[12:16], uint32(totalPartitionSectors))

	// BPB/EBPB at the partition's first sector.
	bpbSector := image[b.partitionStart*b.sectorSize : b.partitionStart*b.sectorSize+512]
	binary.LittleEndian.PutUint16(bpbSector[11:13], uint16(b.sectorSize))
	bpbSector[13] = b.sectorsPerCluster
	binary.LittleEndian.PutUint16(bpbSector[14:16], b.reservedSectors)
	bpbSector[16] = 1 // NumFATs
	bpbSector[21] = 0xF8
	binary.LittleEndian.PutUint32(bpbSector[32:36], uint32(totalPartitionSectors))
	binary.LittleEndian.PutUint32(bpbSector[36:40], sectorsPerFAT)
	binary.LittleEndian.PutUint32(bpbSector[44:48], rootCluster.Value())
	bpbSector[510] = 0x55
	bpbSector[511] = 0xAA

	// FAT region.
	fatStart := (b.partitionStart + uint64(b.reservedSectors)) * b.sectorSize
	for i, entry := range b.fat {
		off := fatStart + uint64(i*4)
		binary.LittleEndian.PutUint32(image[off:off+4], entry&0x0FFFFFFF)
	}

	// Data region.
	dataStart := (b.partitionStart + uint64(b.reservedSectors) + uint64(sectorsPerFAT)) * b.sectorSize
	for i, cluster := range b.clusters {
		off := dataStart + uint64(i*b.clusterBytes())
		copy(image[off:off+uint64(len(cluster))], cluster)
	}

	return image
}
