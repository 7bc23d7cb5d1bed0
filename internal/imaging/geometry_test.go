package imaging

import "testing"

func TestParseGeometry(t *testing.T) {
	tests := []struct {
		w, h    string
		want    Geometry
		wantErr bool
	}{
		{"160", "90", Geometry{160, 90, FlagNone}, false},
		{"160", "90^", Geometry{160, 90, FlagFill}, false},
		{"160^", "90", Geometry{160, 90, FlagFill}, false},
		{"160!", "90!", Geometry{160, 90, FlagExact}, false},
		{"", "90>", Geometry{0, 90, FlagShrink}, false},
		{"200<", "", Geometry{200, 0, FlagEnlarge}, false},
		{" 10 ", " 20 ", Geometry{10, 20, FlagNone}, false},
		{"160^", "90!", Geometry{}, true},
		{"", "", Geometry{}, true},
		{"^", "", Geometry{}, true},
		{"abc", "10", Geometry{}, true},
		{"10", "-1", Geometry{}, true},
		{"10!", "", Geometry{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.w+"|"+tt.h, func(t *testing.T) {
			got, err := ParseGeometry(tt.w, tt.h)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseGeometry(%q, %q) should fail", tt.w, tt.h)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGeometry(%q, %q) failed: %v", tt.w, tt.h, err)
			}
			if got != tt.want {
				t.Errorf("ParseGeometry(%q, %q): got %+v, want %+v", tt.w, tt.h, got, tt.want)
			}
		})
	}
}

func TestGeometry_Apply(t *testing.T) {
	tests := []struct {
		name         string
		g            Geometry
		w, h         int
		wantW, wantH int
	}{
		{"portrait fill", Geometry{160, 90, FlagFill}, 467, 700, 160, 240},
		{"landscape fill", Geometry{160, 90, FlagFill}, 1000, 500, 180, 90},
		{"portrait fit", Geometry{160, 90, FlagNone}, 467, 700, 60, 90},
		{"exact", Geometry{50, 50, FlagExact}, 467, 700, 50, 50},
		{"width only", Geometry{100, 0, FlagNone}, 200, 50, 100, 25},
		{"tiny rounds up to one", Geometry{1, 0, FlagNone}, 1000, 10, 1, 1},
		{"degenerate source", Geometry{10, 10, FlagNone}, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.g.Apply(tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Apply(%d, %d): got %dx%d, want %dx%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"+0", 0, false},
		{"+45", 45, false},
		{"-12", -12, false},
		{"7", 7, false},
		{"", 0, false},
		{"+x", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseOffset(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOffset(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOffset(%q): got %d, want %d", tt.in, got, tt.want)
		}
	}
}
