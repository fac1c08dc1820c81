package ripple

import (
	"errors"
	"testing"
)

func TestStoreFrameBuffers(t *testing.T) {
	s, err := NewStore(4, 3)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for frame := 0; frame < 6; frame++ {
		read, write := s.FrameBuffers(frame)
		if read == write {
			t.Fatalf("frame %d: read and write are the same buffer", frame)
		}
		nextRead, _ := s.FrameBuffers(frame + 1)
		if nextRead != write {
			t.Errorf("frame %d: write buffer is not the next frame's read buffer", frame)
		}
	}

	r0, w0 := s.FrameBuffers(0)
	r2, w2 := s.FrameBuffers(2)
	if r0 != r2 || w0 != w2 {
		t.Error("buffers should repeat every two frames")
	}
}

func TestStoreInitializeZeroed(t *testing.T) {
	s, err := NewStore(5, 2)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	w, h := s.Size()
	if w != 5 || h != 2 {
		t.Errorf("Size() = %dx%d, want 5x2", w, h)
	}
	for frame := 0; frame < 2; frame++ {
		_, buf := s.FrameBuffers(frame)
		if len(buf.Cells) != 10 {
			t.Fatalf("got %d cells, want 10", len(buf.Cells))
		}
		for i, c := range buf.Cells {
			if c != (Cell{}) {
				t.Fatalf("cell %d not zero: %+v", i, c)
			}
		}
	}
}

func TestStoreResize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantErr       bool
	}{
		{"grow", 16, 9, false},
		{"shrink", 1, 1, false},
		{"zero width", 0, 9, true},
		{"negative height", 4, -1, true},
		{"too large", MaxCells, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStore(4, 4)
			if err != nil {
				t.Fatalf("NewStore: %v", err)
			}
			_, old := s.FrameBuffers(0)
			old.Cells[0].Height = 3

			err = s.Resize(tt.width, tt.height)
			if tt.wantErr {
				if !errors.Is(err, ErrAllocation) {
					t.Fatalf("Resize error = %v, want ErrAllocation", err)
				}
				// Previous buffers survive a failed resize.
				if w, h := s.Size(); w != 4 || h != 4 {
					t.Errorf("size after failed resize = %dx%d, want 4x4", w, h)
				}
				if _, cur := s.FrameBuffers(0); cur != old {
					t.Error("failed resize replaced the buffers")
				}
				return
			}
			if err != nil {
				t.Fatalf("Resize: %v", err)
			}
			if w, h := s.Size(); w != tt.width || h != tt.height {
				t.Errorf("Size() = %dx%d, want %dx%d", w, h, tt.width, tt.height)
			}
			_, cur := s.FrameBuffers(0)
			if cur.Cells[0] != (Cell{}) {
				t.Error("resized buffers should start zeroed")
			}
		})
	}
}

func TestStoreRelease(t *testing.T) {
	s, err := NewStore(2, 2)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.Release()
	s.Release()
	if s.Allocated() {
		t.Error("store still allocated after Release")
	}
	if err := s.Initialize(3, 3); err != nil {
		t.Fatalf("Initialize after Release: %v", err)
	}
	if !s.Allocated() {
		t.Error("store not allocated after Initialize")
	}
}
