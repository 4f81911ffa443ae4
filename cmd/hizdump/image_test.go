package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
)

func TestLevelImageUpscales(t *testing.T) {
	l := pyramid.NewLevel(2, 1)
	l.Set(0, 0, 0)
	l.Set(1, 0, 10)

	img := levelImage(l, 0, 10, 8)
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Fatalf("expected 8x4, got %v", b)
	}
	if c := img.NRGBAAt(3, 3); c.R != 0 || c.A != 255 {
		t.Errorf("near texel should be black, got %v", c)
	}
	if c := img.NRGBAAt(4, 0); c.R != 255 {
		t.Errorf("far texel should be white, got %v", c)
	}

	if b := levelImage(pyramid.NewLevel(100, 50), 0, 1, 8).Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("large levels keep their size, got %v", b)
	}
}

func TestFromImageAndWriteLevels(t *testing.T) {
	dir := t.TempDir()
	src := image.NewGray16(image.Rect(0, 0, 6, 4))
	src.SetGray16(5, 3, color.Gray16{Y: 0xffff})
	path := filepath.Join(dir, "depth.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	pyr, err := fromImage(path, 1, 9)
	if err != nil {
		t.Fatal(err)
	}
	if pyr.Levels() != pyramid.LevelCount(6, 4) {
		t.Errorf("unexpected level count %d", pyr.Levels())
	}
	top := pyr.Level(pyr.Levels() - 1)
	if got := top.At(0, 0); got != 9 {
		t.Errorf("top level should hold the far texel, got %v", got)
	}

	paths, err := writeLevels(pyr, filepath.Join(dir, "out"), 1, 9, 16)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != pyr.Levels() {
		t.Fatalf("expected one file per level, got %d", len(paths))
	}
	for _, p := range paths {
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Errorf("missing output %s: %v", p, err)
		}
	}
}

func TestFromImageErrors(t *testing.T) {
	if _, err := fromImage(filepath.Join(t.TempDir(), "none.png"), 0.1, 10); err == nil {
		t.Error("expected an open error")
	}
	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := fromImage(bad, 0.1, 10); err == nil {
		t.Error("expected a decode error")
	}
}
