package videoparams

import "testing"

func TestSystemString(t *testing.T) {
	tests := []struct {
		s    System
		want string
	}{
		{PAL, "PAL"},
		{PALM, "PAL_M"},
		{NTSC, "NTSC"},
		{Unknown, "Unknown"},
		{System(99), "Unknown"},
	}
	for _, test := range tests {
		if got := test.s.String(); got != test.want {
			t.Errorf("System(%d).String() = %q, want %q", test.s, got, test.want)
		}
	}
}

func TestActiveWidthHeight(t *testing.T) {
	p := Parameters{
		ActiveVideoStart:     10,
		ActiveVideoEnd:       100,
		FirstActiveFieldLine: 20,
		LastActiveFieldLine:  300,
	}
	if got, want := p.ActiveWidth(), 90; got != want {
		t.Errorf("ActiveWidth() = %d, want %d", got, want)
	}
	if got, want := p.ActiveHeight(), 281; got != want {
		t.Errorf("ActiveHeight() = %d, want %d", got, want)
	}
}

func TestActiveWidthHeightDegenerate(t *testing.T) {
	p := Parameters{}
	if got := p.ActiveWidth(); got != 0 {
		t.Errorf("ActiveWidth() = %d, want 0", got)
	}
	if got := p.ActiveHeight(); got != 0 {
		t.Errorf("ActiveHeight() = %d, want 0", got)
	}
}
