package screenshot

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	img, err := Decode(encodeTestPNG(t, 64, 32))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("unexpected dimensions %v", img.Bounds())
	}
}

func TestDecode_InvalidData(t *testing.T) {
	if _, err := Decode([]byte("not a png")); err == nil {
		t.Fatal("expected error for invalid PNG data")
	}
	if _, err := Decode(nil); err == nil {
		t.Fatal("expected error for empty data")
	}
}

func TestScale(t *testing.T) {
	img, err := Decode(encodeTestPNG(t, 100, 50))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	half := Scale(img, 0.5)
	if half.Bounds().Dx() != 50 || half.Bounds().Dy() != 25 {
		t.Errorf("scaled dimensions = %v, want 50x25", half.Bounds())
	}

	if Scale(img, 1) != img {
		t.Error("factor 1 must return the image unchanged")
	}
	if Scale(img, 0) != img {
		t.Error("non-positive factor must return the image unchanged")
	}
}

func TestSavePNG(t *testing.T) {
	img, err := Decode(encodeTestPNG(t, 8, 8))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := SavePNG(path, img); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if _, err := Decode(data); err != nil {
		t.Errorf("saved file is not a valid PNG: %v", err)
	}
}
