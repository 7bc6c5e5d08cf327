package imagelist

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestImage_CopyOnWrite(t *testing.T) {
	a := New(solid(2, 2, color.NRGBA{R: 255, A: 255}))
	b := a.Clone()
	require.Same(t, a.Blob(), b.Blob())
	require.Equal(t, 2, a.Blob().Refs())

	pix := b.Mutable()
	pix.SetNRGBA(0, 0, color.NRGBA{B: 255, A: 255})

	require.NotSame(t, a.Blob(), b.Blob())
	require.Equal(t, 1, a.Blob().Refs())
	require.Equal(t, color.NRGBA{R: 255, A: 255}, a.Pixels().NRGBAAt(0, 0))
	require.Equal(t, color.NRGBA{B: 255, A: 255}, b.Pixels().NRGBAAt(0, 0))

	// sole owner writes in place
	before := a.Blob()
	a.Mutable()
	require.Same(t, before, a.Blob())
}

func TestImage_CloneCopiesMaps(t *testing.T) {
	a := New(solid(1, 1, color.NRGBA{A: 255}))
	a.Properties["label"] = "one"
	b := a.Clone()
	b.Properties["label"] = "two"
	require.Equal(t, "one", a.Properties["label"])
}

func TestImage_SetPixelsFollowsPage(t *testing.T) {
	a := New(solid(4, 4, color.NRGBA{A: 255}))
	a.SetPixels(solid(2, 3, color.NRGBA{A: 255}))
	require.Equal(t, Page{Width: 2, Height: 3}, a.Page)
	require.Equal(t, 2, a.Width())
	require.Equal(t, 3, a.Height())
}

func TestArena_DestroySince(t *testing.T) {
	a := NewArena()
	h1 := a.Add(New(nil))
	mark := a.Mark()
	h2 := a.Add(New(nil))
	h3 := a.Add(New(nil))

	a.DestroySince(mark, NewList(h3))
	require.NotNil(t, a.Get(h1))
	require.Nil(t, a.Get(h2))
	require.NotNil(t, a.Get(h3))
	require.Equal(t, 2, a.Len())
}

func TestList_Primitives(t *testing.T) {
	l := NewList(1, 2, 3)

	i, ok := l.Index(-1)
	require.True(t, ok)
	require.Equal(t, 2, i)
	_, ok = l.Index(3)
	require.False(t, ok)
	_, ok = l.Index(-4)
	require.False(t, ok)

	l.Append(4)
	l.Prepend(0)
	require.Equal(t, []Handle{0, 1, 2, 3, 4}, l.Handles())

	require.NoError(t, l.InsertAt(2, 9, 8))
	require.Equal(t, []Handle{0, 1, 9, 8, 2, 3, 4}, l.Handles())

	old, err := l.Replace(2, 7, 7, 7)
	require.NoError(t, err)
	require.Equal(t, Handle(9), old)
	require.Equal(t, []Handle{0, 1, 7, 7, 7, 8, 2, 3, 4}, l.Handles())

	h, err := l.RemoveAt(0)
	require.NoError(t, err)
	require.Equal(t, Handle(0), h)

	require.NoError(t, l.Swap(0, l.Len()-1))
	require.Equal(t, Handle(4), l.At(0))
	require.Error(t, l.Swap(0, 99))

	tail, err := l.Split(2)
	require.NoError(t, err)
	require.Equal(t, []Handle{4, 7}, l.Handles())
	require.Equal(t, 6, tail.Len())

	l.Concat(tail)
	require.Equal(t, 8, l.Len())

	l.Reverse()
	require.Equal(t, Handle(1), l.At(0))

	c := l.Clone()
	c.Append(100)
	require.Equal(t, 8, l.Len())
}

func TestList_HandlesIsACopy(t *testing.T) {
	l := NewList(1, 2)
	hs := l.Handles()
	hs[0] = 42
	require.Equal(t, Handle(1), l.At(0))
}
