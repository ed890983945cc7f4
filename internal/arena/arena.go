// Package arena implements a bump allocator with nested scopes, used for
// scratch allocations (temporary strings/slices during parsing, resource
// creation, and command recording) that would otherwise churn the garbage
// collector on the render thread's hot path.
//
// An Arena is not safe for concurrent use; per the renderer's concurrency
// model, a scratch arena is always bound to the thread that created its
// enclosing scope.
package arena

// Arena is a growable bump allocator. Allocate carves space off the front
// of the current backing buffer; Scope/Release rewind the bump offset to
// reclaim everything allocated since the scope was opened.
type Arena struct {
	buf    []byte
	offset int
}

// New creates an Arena with the given initial capacity in bytes. Capacity
// grows automatically (a fresh backing slice, old one abandoned) if an
// allocation does not fit; scopes opened before growth remain valid, since
// Release only rewinds the offset, never reuses memory behind a live
// pointer from before growth occurred within the same buffer generation.
func New(initialCapacity int) *Arena {
	if initialCapacity <= 0 {
		initialCapacity = 4096
	}
	return &Arena{buf: make([]byte, initialCapacity)}
}

// Allocate reserves n bytes and returns a zeroed slice view into the
// arena's backing buffer.
func (a *Arena) Allocate(n int) []byte {
	if n <= 0 {
		return nil
	}
	if a.offset+n > len(a.buf) {
		a.grow(n)
	}
	b := a.buf[a.offset : a.offset+n : a.offset+n]
	for i := range b {
		b[i] = 0
	}
	a.offset += n
	return b
}

func (a *Arena) grow(need int) {
	newCap := len(a.buf) * 2
	if newCap < a.offset+need {
		newCap = a.offset + need
	}
	newBuf := make([]byte, newCap)
	copy(newBuf, a.buf[:a.offset])
	a.buf = newBuf
}

// Used returns the number of bytes currently allocated (not yet released).
func (a *Arena) Used() int { return a.offset }

// Reset rewinds the arena to empty without shrinking its backing buffer,
// used when tearing down the whole arena at once (e.g. frontend destroy).
func (a *Arena) Reset() { a.offset = 0 }

// Scope is a checkpoint that can be released to reclaim everything
// allocated since it was opened, modelling the source's "create a scratch,
// allocate temporaries, destroy the scratch" discipline via Go's defer.
type Scope struct {
	arena    *Arena
	mark     int
	released bool
}

// NewScope opens a scope at the arena's current offset. Typical use:
//
//	scope := arena.NewScope()
//	defer scope.Release()
//	tmp := arena.Allocate(64)
func (a *Arena) NewScope() *Scope {
	return &Scope{arena: a, mark: a.offset}
}

// Release rewinds the arena to the offset recorded when the scope was
// opened. Safe to call more than once; only the first call has effect.
func (s *Scope) Release() {
	if s.released {
		return
	}
	s.arena.offset = s.mark
	s.released = true
}
