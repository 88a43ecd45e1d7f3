package vfat32

// Attributes is the FAT directory-entry attribute bitmap (spec.md §3).
type Attributes uint8

const (
	AttrReadOnly Attributes = 0x01
	AttrHidden   Attributes = 0x02
	AttrSystem   Attributes = 0x04
	AttrVolumeID Attributes = 0x08
	AttrDir      Attributes = 0x10
	AttrArchive  Attributes = 0x20
	// AttrLFN must match exactly (not as a mask) to identify a VFAT
	// long-file-name record.
	AttrLFN Attributes = 0x0F
)

func (a Attributes) ReadOnly() bool  { return a&AttrReadOnly != 0 }
func (a Attributes) Hidden() bool    { return a&AttrHidden != 0 }
func (a Attributes) System() bool    { return a&AttrSystem != 0 }
func (a Attributes) VolumeID() bool  { return a&AttrVolumeID != 0 }
func (a Attributes) Directory() bool { return a&AttrDir != 0 }
func (a Attributes) Archive() bool   { return a&AttrArchive != 0 }
func (a Attributes) IsLFN() bool     { return a == AttrLFN }

// Date is a FAT32 on-disk date stamp: bits 0-4 day, bits 5-8 month, bits
// 9-15 years since 1980 (spec.md §3).
type Date uint16

// PackDate builds a Date from calendar fields, the inverse of Year/Month/Day.
func PackDate(year int, month, day uint8) Date {
	return Date(uint16(year-1980)<<9 | uint16(month)<<5 | uint16(day))
}

func (d Date) Year() int   { return int(d>>9) + 1980 }
func (d Date) Month() uint8 { return uint8((d & 0x1E0) >> 5) }
func (d Date) Day() uint8   { return uint8(d & 0x1F) }

// Time is a FAT32 on-disk time stamp with two-second granularity: bits 0-4
// seconds/2, bits 5-10 minutes, bits 11-15 hours (spec.md §3).
type Time uint16

// PackTime builds a Time from calendar fields. An odd seconds value is
// truncated to the nearest even second, since the on-disk field only has
// two-second granularity — the round-trip spec.md §8 describes.
func PackTime(hour, minute, second uint8) Time {
	return Time(uint16(hour)<<11 | uint16(minute)<<5 | uint16(second/2))
}

func (t Time) Hour() uint8   { return uint8(t >> 11) }
func (t Time) Minute() uint8 { return uint8((t & 0x7E0) >> 5) }
func (t Time) Second() uint8 { return uint8(t&0x1F) * 2 }

// Timestamp pairs a Date and Time, as every directory entry's
// created/accessed/modified fields do.
type Timestamp struct {
	Date Date
	Time Time
}

func (t Timestamp) Year() int    { return t.Date.Year() }
func (t Timestamp) Month() uint8 { return t.Date.Month() }
func (t Timestamp) Day() uint8   { return t.Date.Day() }
func (t Timestamp) Hour() uint8  { return t.Time.Hour() }
func (t Timestamp) Minute() uint8 { return t.Time.Minute() }
func (t Timestamp) Second() uint8 { return t.Time.Second() }

// Metadata is the decoded, owned form of a directory entry's attribute and
// timestamp fields (spec.md §4.8).
type Metadata struct {
	Attr  Attributes
	CTime Timestamp
	ATime Timestamp
	MTime Timestamp
}

func (m Metadata) ReadOnly() bool    { return m.Attr.ReadOnly() }
func (m Metadata) Hidden() bool      { return m.Attr.Hidden() }
func (m Metadata) Created() Timestamp  { return m.CTime }
func (m Metadata) Accessed() Timestamp { return m.ATime }
func (m Metadata) Modified() Timestamp { return m.MTime }
