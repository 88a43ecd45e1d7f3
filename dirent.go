package vfat32

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/rpifs/vfat32/checkpoint"
)

const dirEntrySize = 32

// maxLFNSequence is the largest LFN sequence count the format allows (31
// records of 13 UCS-2 code units each cover a 255-character name).
const maxLFNSequence = 31
const lfnCharsPerRecord = 13

// regularDirEntry is the on-disk 8.3 directory record (spec.md §3).
type regularDirEntry struct {
	Name          [8]byte
	Extension     [3]byte
	Attr          byte
	NTReserved    byte
	CTimeTenths   byte
	CTime         uint16
	CDate         uint16
	ADate         uint16
	ClusterHigh   uint16
	MTime         uint16
	MDate         uint16
	ClusterLow    uint16
	FileSize      uint32
}

func (e *regularDirEntry) clusterNumber() Cluster {
	return ClusterFromRaw(uint32(e.ClusterHigh)<<16 | uint32(e.ClusterLow))
}

func (e *regularDirEntry) shortName() string {
	name := strings.TrimRight(string(e.Name[:]), " ")
	ext := strings.TrimRight(string(e.Extension[:]), " ")
	if ext != "" {
		return name + "." + ext
	}
	return name
}

func (e *regularDirEntry) metadata() Metadata {
	return Metadata{
		Attr:  Attributes(e.Attr),
		CTime: Timestamp{Date: Date(e.CDate), Time: Time(e.CTime)},
		ATime: Timestamp{Date: Date(e.ADate), Time: Time(0)},
		MTime: Timestamp{Date: Date(e.MDate), Time: Time(e.MTime)},
	}
}

// utf16leDecoder decodes raw UTF-16LE bytes (the on-disk LFN encoding) to a
// Go string; reused across every LFN reassembly instead of allocating a new
// decoder per entry.
var utf16leDecoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// dirEntryIter streams the regular and LFN records in one directory's byte
// stream, reassembling long file names, per spec.md §4.7. It owns a private
// copy of the directory's bytes (obtained once, up front, by following the
// full cluster chain) so that calling Next repeatedly never holds the
// CachedPartition's cache borrowed between iterations (spec.md §5).
type dirEntryIter struct {
	handle Handle
	data   []byte
	pos    int

	// staging holds raw UTF-16LE bytes for up to 31 LFN records of 13 code
	// units each, indexed by (sequence-1)*26.
	staging [maxLFNSequence * lfnCharsPerRecord * 2]byte
	isLFN   bool
}

// newDirEntryIter reads dir's full cluster chain and returns an iterator
// over its entries.
func newDirEntryIter(handle Handle, startCluster Cluster) (*dirEntryIter, error) {
	var data []byte
	_, err := WithLock(handle, func(vf *VFat) (int, error) {
		return vf.readChain(startCluster, &data)
	})
	if err != nil {
		return nil, checkpoint.From(err)
	}

	return &dirEntryIter{handle: handle, data: data}, nil
}

// resetLFN clears the staging state ahead of the next regular record.
func (it *dirEntryIter) resetLFN() {
	it.isLFN = false
	for i := range it.staging {
		it.staging[i] = 0
	}
}

// Next returns the next Entry in the directory, io.EOF once the terminal
// 0x00 sentinel is reached, or a decode error for a malformed on-disk
// record (never for a merely-deleted or merely-overflowing LFN set, both of
// which spec.md §4.7 treats as recoverable).
func (it *dirEntryIter) Next() (Entry, error) {
	for it.pos+dirEntrySize <= len(it.data) {
		slot := it.data[it.pos : it.pos+dirEntrySize]
		it.pos += dirEntrySize

		switch slot[0] {
		case 0x00:
			it.pos = len(it.data)
			return nil, io.EOF
		case 0xE5:
			continue
		}

		attr := Attributes(slot[11])
		if attr.IsLFN() {
			it.absorbLFNRecord(slot)
			continue
		}

		var reg regularDirEntry
		if err := binary.Read(bytes.NewReader(slot), binary.LittleEndian, &reg); err != nil {
			return nil, checkpoint.From(err)
		}

		// The volume-label entry shares the regular record shape but isn't
		// a real file or directory; skip it like the long-name group it
		// might follow.
		if reg.Attr&byte(AttrVolumeID) == byte(AttrVolumeID) {
			it.resetLFN()
			continue
		}

		name, err := it.composeName(&reg)
		it.resetLFN()
		if err != nil {
			return nil, checkpoint.From(err)
		}

		cluster := reg.clusterNumber()
		meta := reg.metadata()

		if Attributes(reg.Attr).Directory() {
			return Dir{handle: it.handle, name: name, startCluster: cluster, metadata: meta}, nil
		}
		return File{handle: it.handle, name: name, startCluster: cluster, metadata: meta, size: reg.FileSize}, nil
	}

	return nil, io.EOF
}

// absorbLFNRecord decodes one 32-byte LFN record and deposits its UCS-2
// fragments into the staging buffer at its 1-indexed sequence position, per
// spec.md §3 invariant 5. A sequence position outside [1,31] is a corrupt
// or overflowing LFN set; spec.md §4.7 calls for this to be treated safely
// (skipped) rather than crashing the iterator.
func (it *dirEntryIter) absorbLFNRecord(slot []byte) {
	sequence := slot[0]
	position := int(sequence&0x1F) - 1
	if position < 0 || position >= maxLFNSequence {
		return
	}

	it.isLFN = true
	base := position * lfnCharsPerRecord * 2

	// name1: offset 1..11 (5 code units), name2: offset 14..26 (6 code
	// units), name3: offset 28..32 (2 code units) — see spec.md §3's LFN
	// layout.
	copy(it.staging[base:base+10], slot[1:11])
	copy(it.staging[base+10:base+22], slot[14:26])
	copy(it.staging[base+22:base+26], slot[28:32])
}

// composeName builds the display name for a just-read regular record,
// either from the reassembled LFN staging buffer or from the 8.3 short
// name, per spec.md §4.7 step 3.
func (it *dirEntryIter) composeName(reg *regularDirEntry) (string, error) {
	if !it.isLFN {
		return reg.shortName(), nil
	}

	termByte := len(it.staging)
	for i := 0; i+1 < len(it.staging); i += 2 {
		unit := uint16(it.staging[i]) | uint16(it.staging[i+1])<<8
		if unit == 0x0000 || unit == 0xFFFF {
			termByte = i
			break
		}
	}

	decoded, _, err := transform.Bytes(utf16leDecoder, it.staging[:termByte])
	if err != nil {
		return "", checkpoint.From(err)
	}
	return string(decoded), nil
}

// entriesIter returns an iterator over dir's directory entries.
func (d Dir) entriesIter() (*dirEntryIter, error) {
	return newDirEntryIter(d.handle, d.startCluster)
}

// Entries returns every entry in d, in on-disk order.
func (d Dir) Entries() ([]Entry, error) {
	it, err := d.entriesIter()
	if err != nil {
		return nil, checkpoint.From(err)
	}

	var result []Entry
	for {
		entry, err := it.Next()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return nil, checkpoint.From(err)
		}
		result = append(result, entry)
	}
}

// Find returns the first entry in d whose display name matches name,
// case-insensitively (ASCII fold), per spec.md §4.8.
func (d Dir) Find(name string) (Entry, error) {
	if !utf8.ValidString(name) {
		return nil, checkpoint.From(ErrInvalidInput)
	}

	it, err := d.entriesIter()
	if err != nil {
		return nil, checkpoint.From(err)
	}

	asciiLower := func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}
	want := strings.Map(asciiLower, name)

	for {
		entry, err := it.Next()
		if err == io.EOF {
			return nil, checkpoint.From(ErrNotFound)
		}
		if err != nil {
			return nil, checkpoint.From(err)
		}
		if strings.Map(asciiLower, entry.Name()) == want {
			return entry, nil
		}
	}
}
