package tiler

import (
	"testing"

	"github.com/matzehuels/imtiler/pkg/errors"
)

func TestParseAccept(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		strict  bool
		wantErr bool
	}{
		{"", DefaultAccept, false, false},
		{"none", 0, true, false},
		{"NONE", 0, true, false},
		{"min", 2.0 / 100, false, false},
		{"max", 98.0 / 100, false, false},
		{"mask", 0.3, false, false},
		{"0", 0, false, false},
		{"0.25", 0.25, false, false},
		{"1", 1, false, false},
		{"50", 0.5, false, false},
		{"75%", 0.75, false, false},
		{"0.5%", 0.005, false, false},
		{"100", 1, false, false},
		{"101", 0, false, true},
		{"-0.1", 0, false, true},
		{"abc", 0, false, true},
		{"NaN", 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, err := ParseAccept(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidAccept) {
					t.Fatalf("ParseAccept(%q) error = %v, want INVALID_ACCEPT", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAccept(%q) error: %v", tt.in, err)
			}
			if got := a.Resolve(100, 0.3); got != tt.want {
				t.Errorf("Resolve = %v, want %v", got, tt.want)
			}
			if a.Strict() != tt.strict {
				t.Errorf("Strict = %v, want %v", a.Strict(), tt.strict)
			}
		})
	}
}

func TestAcceptText(t *testing.T) {
	for _, in := range []string{"none", "min", "max", "mask", "0.25"} {
		var a Accept
		if err := a.UnmarshalText([]byte(in)); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", in, err)
		}
		out, _ := a.MarshalText()
		if string(out) != in {
			t.Errorf("MarshalText = %q, want %q", out, in)
		}
	}
	if got := (Accept{}).String(); got != "0.5" {
		t.Errorf("zero Accept String = %q, want 0.5", got)
	}
}

func TestAcceptFractionValidation(t *testing.T) {
	if _, err := (Options{Accept: AcceptFraction(1.5)}).withDefaults(); !errors.Is(err, errors.ErrCodeInvalidAccept) {
		t.Errorf("expected INVALID_ACCEPT, got %v", err)
	}
}

func TestMustParseAccept(t *testing.T) {
	if got := MustParseAccept("max"); got.String() != "max" {
		t.Errorf("MustParseAccept(max) = %v", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("MustParseAccept(bogus) did not panic")
		}
	}()
	MustParseAccept("bogus")
}

func TestAcceptMaxSeen(t *testing.T) {
	for dim := 1; dim <= 512; dim++ {
		area := dim * dim
		want := map[string]int{
			"none": 0,
			"min":  min(2, area),
			"max":  max(area-2, 0),
		}
		for name, w := range want {
			if got := MustParseAccept(name).MaxSeen(area, 0); got != w {
				t.Fatalf("dim %d: %s MaxSeen = %d, want %d", dim, name, got, w)
			}
		}
	}

	tests := []struct {
		accept  Accept
		area    int
		invalid float64
		want    int
	}{
		{AcceptFraction(0.29), 100, 0, 29},
		{AcceptFraction(0.5), 49, 0, 24},
		{AcceptFraction(1), 49, 0, 49},
		{AcceptFraction(0), 49, 0, 0},
		{AcceptMask, 100, 0.3, 30},
		{Accept{}, 100, 0, 50},
	}
	for _, tt := range tests {
		if got := tt.accept.MaxSeen(tt.area, tt.invalid); got != tt.want {
			t.Errorf("%v.MaxSeen(%d, %v) = %d, want %d", tt.accept, tt.area, tt.invalid, got, tt.want)
		}
	}
}
