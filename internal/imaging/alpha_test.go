package imaging

import (
	"image/color"
	"testing"
)

func TestAlphaMode(t *testing.T) {
	img := solidImage(2, 2, color.NRGBA{200, 100, 50, 128})
	bg := color.NRGBA{0, 0, 255, 255}

	tests := []struct {
		method string
		active bool
		want   color.NRGBA
	}{
		{"On", true, color.NRGBA{200, 100, 50, 128}},
		{"Off", false, color.NRGBA{200, 100, 50, 128}},
		{"Opaque", true, color.NRGBA{200, 100, 50, 255}},
		{"Transparent", true, color.NRGBA{200, 100, 50, 0}},
		{"Extract", false, color.NRGBA{128, 128, 128, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got, active, err := AlphaMode(img, tt.method, bg)
			if err != nil {
				t.Fatalf("AlphaMode failed: %v", err)
			}
			if active != tt.active {
				t.Errorf("active = %v, want %v", active, tt.active)
			}
			if c := got.NRGBAAt(0, 0); c != tt.want {
				t.Errorf("pixel = %v, want %v", c, tt.want)
			}
		})
	}

	removed, active, err := AlphaMode(img, "Remove", bg)
	if err != nil || active {
		t.Fatalf("Remove: active %v err %v", active, err)
	}
	if c := removed.NRGBAAt(0, 0); c.A != 255 || c.B < 100 || c.R > 110 {
		t.Errorf("Remove = %v, want blended over blue", c)
	}

	if _, _, err := AlphaMode(img, "Sideways", bg); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestAlphaMode_Background(t *testing.T) {
	img := solidImage(1, 2, red)
	img.SetNRGBA(0, 1, color.NRGBA{9, 9, 9, 0})
	got, _, err := AlphaMode(img, "Background", blue)
	if err != nil {
		t.Fatalf("AlphaMode failed: %v", err)
	}
	if c := got.NRGBAAt(0, 1); c != (color.NRGBA{0, 0, 255, 0}) {
		t.Errorf("transparent pixel = %v, want blue with zero alpha", c)
	}
	if got.NRGBAAt(0, 0) != red {
		t.Error("opaque pixel changed")
	}
}

func TestOpaquePaint(t *testing.T) {
	img := quadrantImage(4, 4)
	got := OpaquePaint(img, red, black, 0, false)
	if got.NRGBAAt(0, 0) != black || got.NRGBAAt(3, 0) != green {
		t.Errorf("paint = %v %v", got.NRGBAAt(0, 0), got.NRGBAAt(3, 0))
	}
	inv := OpaquePaint(img, red, black, 0, true)
	if inv.NRGBAAt(0, 0) != red || inv.NRGBAAt(3, 0) != black {
		t.Errorf("inverse paint = %v %v", inv.NRGBAAt(0, 0), inv.NRGBAAt(3, 0))
	}
	near := solidImage(1, 1, color.NRGBA{250, 5, 5, 255})
	if OpaquePaint(near, red, black, 0.1, false).NRGBAAt(0, 0) != black {
		t.Error("fuzz did not match a near color")
	}
}

func TestTransparentPaint(t *testing.T) {
	img := quadrantImage(4, 4)
	got := TransparentPaint(img, white, 0, false)
	if got.NRGBAAt(3, 3).A != 0 || got.NRGBAAt(0, 0).A != 255 {
		t.Errorf("transparent = %v %v", got.NRGBAAt(3, 3), got.NRGBAAt(0, 0))
	}
	inv := TransparentPaint(img, white, 0, true)
	if inv.NRGBAAt(3, 3).A != 255 || inv.NRGBAAt(0, 0).A != 0 {
		t.Error("inverse transparent selected the wrong pixels")
	}
}
