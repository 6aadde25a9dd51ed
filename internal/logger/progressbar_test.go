package logger

import "testing"

func TestProgressBar_Render(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		current int
		want    string
	}{
		{"empty", 4, 0, "[          ] 0/4 (0%)"},
		{"half", 4, 2, "[=====     ] 2/4 (50%)"},
		{"full", 4, 4, "[==========] 4/4 (100%)"},
		{"overflow clamps", 4, 9, "[==========] 9/4 (100%)"},
		{"zero total", 0, 0, "[          ] 0/0 (0%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewProgressBar(tt.total, 10, false)
			pb.Update(tt.current)
			if got := pb.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressBar_Increment(t *testing.T) {
	pb := NewProgressBar(3, 0, false)
	pb.Increment()
	pb.Increment()
	if got := pb.Percentage(); got != 66 {
		t.Errorf("Percentage() = %d, want 66", got)
	}
}
