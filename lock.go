package vfat32

import "sync"

// Handle is the Go analogue of the critical-section primitive spec.md §5
// and §9 describe: a shared owner of one VFat's mutable state, serialised
// by a single lock. File, Dir, and directory iterators all hold a Handle
// by value (it wraps a pointer, so copies share the same VFat); every
// operation that touches the cache or follows a cluster chain takes the
// lock for its duration and never yields or blocks on anything but the
// underlying BlockDevice while holding it.
//
// In the bare-metal original this was a trait implemented by a
// disable-interrupts-or-spinlock wrapper; on a hosted Go target a
// sync.Mutex plays the same role.
type Handle struct {
	mu *sync.Mutex
	vf *VFat
}

// newHandle wraps vf in a fresh critical section.
func newHandle(vf *VFat) Handle {
	return Handle{mu: &sync.Mutex{}, vf: vf}
}

// Lock runs f with exclusive access to the underlying VFat and returns f's
// error. No operation inside f may block on anything other than the VFat's
// BlockDevice.
func (h Handle) Lock(f func(*VFat) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return f(h.vf)
}

// WithLock is Lock's value-returning counterpart, mirroring the Rust
// original's `lock<R>(&self, f: impl FnOnce(&mut VFat) -> R) -> R`. Go
// methods can't carry their own type parameters, so this is a free
// function taking the Handle explicitly.
func WithLock[R any](h Handle, f func(*VFat) (R, error)) (R, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return f(h.vf)
}
