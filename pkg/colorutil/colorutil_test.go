package colorutil

import (
	"image/color"
	"testing"
)

func TestParseHex(t *testing.T) {
	c, ok := ParseHex("#FF8800")
	if !ok {
		t.Fatal("valid hex rejected")
	}
	want := color.RGBA{R: 0xFF, G: 0x88, B: 0x00, A: 0xFF}
	if c != want {
		t.Errorf("ParseHex = %+v, want %+v", c, want)
	}
}

func TestParseHexInvalid(t *testing.T) {
	for _, s := range []string{"", "FF8800", "#GGGGGG", "#FFF", "red"} {
		c, ok := ParseHex(s)
		if ok {
			t.Errorf("ParseHex(%q) accepted", s)
		}
		if c != Fallback {
			t.Errorf("ParseHex(%q) = %+v, want fallback", s, c)
		}
	}
}

func TestFormatHexRoundTrip(t *testing.T) {
	orig := color.RGBA{R: 0x12, G: 0xAB, B: 0xEF, A: 0xFF}
	parsed, ok := ParseHex(FormatHex(orig))
	if !ok || parsed != orig {
		t.Errorf("round trip = %+v, want %+v", parsed, orig)
	}
}

func TestNextColorWraps(t *testing.T) {
	if NextColor(0) != Palette[0] {
		t.Error("NextColor(0) != Palette[0]")
	}
	if NextColor(len(Palette)) != Palette[0] {
		t.Error("NextColor did not wrap around the palette")
	}
}

func TestWithAlpha(t *testing.T) {
	c := WithAlpha(color.RGBA{R: 1, G: 2, B: 3, A: 255}, 60)
	if c.A != 60 || c.R != 1 || c.G != 2 || c.B != 3 {
		t.Errorf("WithAlpha = %+v", c)
	}
}
