package feature

import (
	"errors"
	"testing"
)

func TestSet_ZeroValue(t *testing.T) {
	var s Set
	if s.Has(ReturnTypeNotation) {
		t.Error("zero Set must have nothing enabled")
	}
	if s.Len() != 0 || s.String() != "" {
		t.Errorf("zero Set: Len=%d String=%q", s.Len(), s.String())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{"empty", "", []string{}, false},
		{"underscore", "return_type_notation", []string{ReturnTypeNotation}, false},
		{"dashes and spaces", " return-type-notation , ", []string{ReturnTypeNotation}, false},
		{"duplicates collapse", "return_type_notation,return-type-notation", []string{ReturnTypeNotation}, false},
		{"unknown", "async_closure", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFeature) {
					t.Fatalf("Parse(%q) err = %v, want ErrUnknownFeature", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			got := s.Names()
			if len(got) != len(tt.want) {
				t.Fatalf("Names() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Names()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSet_HasNormalizes(t *testing.T) {
	s := New("return_type_notation")
	if !s.Has("return-type-notation") {
		t.Error("Has must accept the dashed spelling")
	}
	if s.Has("other") {
		t.Error("unexpected feature")
	}
}

func TestSet_UnionLeavesOperandsIntact(t *testing.T) {
	a := New()
	b := New(ReturnTypeNotation)
	u := a.Union(b)
	if !u.Has(ReturnTypeNotation) {
		t.Error("union lost a feature")
	}
	if a.Has(ReturnTypeNotation) {
		t.Error("Union mutated its receiver")
	}
}

func TestKnownReturnsCopy(t *testing.T) {
	k := Known()
	k[0] = "mutated"
	if Known()[0] != ReturnTypeNotation {
		t.Error("Known exposes internal slice")
	}
}
