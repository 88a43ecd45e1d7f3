package vfat32

// Entry is the tagged union of Dir and File described in spec.md §4.8.
// Both concrete types satisfy it; use AsDir/AsFile (or a type switch) to
// recover the concrete handle.
type Entry interface {
	Name() string
	Metadata() Metadata
	AsDir() (Dir, bool)
	AsFile() (File, bool)
}

// Dir is a handle to a directory: a clonable filesystem Handle, a display
// name, a start cluster, and metadata. Cloning a Dir (simple assignment, it
// holds no pointers of its own besides the shared Handle) is always safe.
type Dir struct {
	handle       Handle
	name         string
	startCluster Cluster
	metadata     Metadata
}

func (d Dir) Name() string         { return d.name }
func (d Dir) Metadata() Metadata   { return d.metadata }
func (d Dir) AsDir() (Dir, bool)   { return d, true }
func (d Dir) AsFile() (File, bool) { return File{}, false }

// File is a handle to a file: everything Dir carries, plus an owned size
// and a read cursor (spec.md §4.8).
type File struct {
	handle       Handle
	name         string
	startCluster Cluster
	metadata     Metadata
	size         uint32
	cursor       uint32
}

func (f File) Name() string         { return f.name }
func (f File) Metadata() Metadata   { return f.metadata }
func (f File) AsDir() (Dir, bool)   { return Dir{}, false }
func (f File) AsFile() (File, bool) { return f, true }

// Size returns the file's size in bytes, as recorded in its directory entry.
func (f File) Size() uint32 { return f.size }
