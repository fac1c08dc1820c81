package window

import "testing"

func TestScale(t *testing.T) {
	tests := []struct {
		drawable, window int
		want             float32
	}{
		{1280, 1280, 1},
		{2560, 1280, 2},
		{100, 0, 1},
	}
	for _, tt := range tests {
		if got := scale(tt.drawable, tt.window); got != tt.want {
			t.Errorf("scale(%d, %d) = %v, want %v", tt.drawable, tt.window, got, tt.want)
		}
	}
}
