package preview

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/sample"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

func testVFR() vfr.VFR {
	params := videoparams.Parameters{
		FieldWidth: 8, FieldHeight: 4,
		ActiveVideoStart: 1, ActiveVideoEnd: 7,
		FirstActiveFieldLine: 0, LastActiveFieldLine: 3,
		Black16bIRE: 10000, White16bIRE: 40000,
	}
	line := make([]uint16, 8)
	for i := range line {
		line[i] = 25000
	}
	fields := make([]vfr.MemoryField, 2)
	for i := range fields {
		buf := make([]uint16, 8*4)
		data := sample.NewField(8, 4, buf)
		for y := 0; y < 4; y++ {
			copy(data.Line(y), line)
		}
		fields[i] = vfr.MemoryField{
			Descriptor: vfr.FieldDescriptor{FieldID: ids.FieldID(i), Width: 8, Height: 4, FrameNumber: 1},
			Data:       data,
		}
	}
	return vfr.NewMemory("src", vfr.Provenance{}, params, fields, false, false, false)
}

func TestRenderField(t *testing.T) {
	v := testVFR()
	img, err := Render(v, Field, 0, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 6 || b.Dy() != 4 {
		t.Fatalf("image size = %dx%d, want 6x4", b.Dx(), b.Dy())
	}
}

func TestRenderFrameWeaves(t *testing.T) {
	v := testVFR()
	img, err := Render(v, Frame, 0, 1)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b := img.Bounds()
	if b.Dy() != 8 {
		t.Fatalf("frame image height = %d, want 8 (2x field height)", b.Dy())
	}
}

func TestRenderSplitStacks(t *testing.T) {
	v := testVFR()
	img, err := Render(v, Split, 0, 1)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b := img.Bounds()
	if b.Dy() != 8 {
		t.Fatalf("split image height = %d, want 8", b.Dy())
	}
}

func TestRenderUnknownFieldErrors(t *testing.T) {
	v := testVFR()
	if _, err := Render(v, Field, 99, 0); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestRenderUnknownOutputTypeErrors(t *testing.T) {
	v := testVFR()
	if _, err := Render(v, OutputType("bogus"), 0, 0); err == nil {
		t.Fatal("expected an error for an unknown output type")
	}
}

func TestEncodePNGRoundTrips(t *testing.T) {
	v := testVFR()
	img, err := Render(v, Field, 0, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Fatalf("decoded bounds %v != encoded bounds %v", decoded.Bounds(), img.Bounds())
	}
}
