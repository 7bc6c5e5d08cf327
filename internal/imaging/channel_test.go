package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestParseChannels(t *testing.T) {
	tests := []struct {
		in      string
		want    Channels
		wantErr bool
	}{
		{"Red", Red, false},
		{"RGB", RGB, false},
		{"RGBA", AllChannels, false},
		{"All", AllChannels, false},
		{"red,blue", Red | Blue, false},
		{"Gray", RGB, false},
		{"CMYK", RGB, false},
		{"opacity", Alpha, false},
		{"xyz", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChannels(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseChannels(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestChannelsString(t *testing.T) {
	if s := (Red | Alpha).String(); s != "RA" {
		t.Errorf("String = %q, want RA", s)
	}
}

func TestSeparate(t *testing.T) {
	img := quadrantImage(4, 4)
	planes := Separate(img, Red|Green)
	if len(planes) != 2 {
		t.Fatalf("got %d planes, want 2", len(planes))
	}
	if c := planes[0].NRGBAAt(0, 0); c != white {
		t.Errorf("red plane at red pixel = %v, want white", c)
	}
	if c := planes[0].NRGBAAt(3, 0); c != black {
		t.Errorf("red plane at green pixel = %v, want black", c)
	}
	if c := planes[1].NRGBAAt(3, 0); c != white {
		t.Errorf("green plane at green pixel = %v, want white", c)
	}

	half := solidImage(1, 1, color.NRGBA{200, 0, 0, 100})
	if c := Separate(half, Red)[0].NRGBAAt(0, 0); c.R != 200 {
		t.Errorf("translucent red plane = %v, want 200", c)
	}
}

func TestCombine(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 15)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	got, err := Combine(Separate(img, RGB), RGB)
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if string(got.Pix) != string(img.Pix) {
		t.Errorf("combine(separate) = %v, want %v", got.Pix, img.Pix)
	}

	only, err := Combine(Separate(img, Blue), Blue)
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if c := only.NRGBAAt(0, 0); c.R != 0 || c.B != img.Pix[2] || c.A != 255 {
		t.Errorf("blue-only combine = %v", c)
	}

	if _, err := Combine(nil, RGB); err == nil {
		t.Error("expected error for empty input")
	}
}
