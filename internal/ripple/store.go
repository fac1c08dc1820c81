package ripple

import "fmt"

// MaxCells bounds a single simulation buffer. A resize beyond it fails with
// ErrAllocation instead of exhausting memory.
const MaxCells = 8192 * 8192

// Cell is the per-pixel simulation state.
type Cell struct {
	Height   float32
	Velocity float32
	GradX    float32
	GradY    float32
}

// Buffer is a row-major grid of cells. Row 0 is the bottom of the viewport.
type Buffer struct {
	Width, Height int
	Cells         []Cell
}

func newBuffer(width, height int) *Buffer {
	return &Buffer{Width: width, Height: height, Cells: make([]Cell, width*height)}
}

// Index returns the slice index for (x, y).
func (b *Buffer) Index(x, y int) int { return y*b.Width + x }

// At returns the cell at (x, y).
func (b *Buffer) At(x, y int) Cell { return b.Cells[y*b.Width+x] }

// Clear zeroes every cell.
func (b *Buffer) Clear() {
	clear(b.Cells)
}

// Store holds the two simulation buffers. They form a 2-slot arena addressed
// by frame parity, so exactly one slot is written per frame.
type Store struct {
	width, height int
	slots         [2]*Buffer
}

// NewStore allocates a zeroed buffer pair.
func NewStore(width, height int) (*Store, error) {
	s := &Store{}
	if err := s.Initialize(width, height); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize allocates two zero-initialized buffers of width × height.
func (s *Store) Initialize(width, height int) error {
	slots, err := allocSlots(width, height)
	if err != nil {
		return err
	}
	s.install(width, height, slots)
	return nil
}

// Resize reallocates both buffers at the new size. Simulation state is not
// carried across; the new pair is zeroed. If allocation fails the previous
// buffers stay in place.
func (s *Store) Resize(width, height int) error {
	slots, err := allocSlots(width, height)
	if err != nil {
		return err
	}
	s.Release()
	s.install(width, height, slots)
	return nil
}

func (s *Store) install(width, height int, slots [2]*Buffer) {
	s.width, s.height = width, height
	s.slots = slots
}

func allocSlots(width, height int) ([2]*Buffer, error) {
	if width <= 0 || height <= 0 {
		return [2]*Buffer{}, fmt.Errorf("%w: invalid size %dx%d", ErrAllocation, width, height)
	}
	if width > MaxCells/height {
		return [2]*Buffer{}, fmt.Errorf("%w: %dx%d exceeds %d cells", ErrAllocation, width, height, MaxCells)
	}
	return [2]*Buffer{newBuffer(width, height), newBuffer(width, height)}, nil
}

// FrameBuffers returns the read and write buffers for a frame. The write
// buffer of frame N is the read buffer of frame N+1.
func (s *Store) FrameBuffers(frameIndex int) (read, write *Buffer) {
	w := frameIndex & 1
	return s.slots[1-w], s.slots[w]
}

// Size returns the buffer dimensions.
func (s *Store) Size() (width, height int) {
	return s.width, s.height
}

// Allocated reports whether the store currently holds buffers.
func (s *Store) Allocated() bool {
	return s.slots[0] != nil
}

// Release drops both buffers. Safe to call more than once.
func (s *Store) Release() {
	s.slots = [2]*Buffer{}
	s.width, s.height = 0, 0
}
