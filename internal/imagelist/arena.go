package imagelist

import "sort"

// Handle identifies an image in an Arena. Handles are never reused.
type Handle uint64

// Arena owns every live image of a pipeline run.
type Arena struct {
	next   Handle
	images map[Handle]*Image
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{next: 1, images: map[Handle]*Image{}}
}

// Add takes ownership of img and returns its handle.
func (a *Arena) Add(img *Image) Handle {
	h := a.next
	a.next++
	a.images[h] = img
	return h
}

// AddAll adds every image in order.
func (a *Arena) AddAll(imgs []*Image) []Handle {
	out := make([]Handle, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, a.Add(img))
	}
	return out
}

// Get returns the image behind h, or nil once it was destroyed.
func (a *Arena) Get(h Handle) *Image {
	return a.images[h]
}

// Images resolves every handle of l.
func (a *Arena) Images(l *List) []*Image {
	out := make([]*Image, 0, l.Len())
	for _, h := range l.Handles() {
		if img := a.images[h]; img != nil {
			out = append(out, img)
		}
	}
	return out
}

// Destroy releases the image behind h.
func (a *Arena) Destroy(h Handle) {
	if img, ok := a.images[h]; ok {
		img.Release()
		delete(a.images, h)
	}
}

// DestroyList destroys every image of l.
func (a *Arena) DestroyList(l *List) {
	for _, h := range l.Handles() {
		a.Destroy(h)
	}
}

// Len returns the number of live images.
func (a *Arena) Len() int {
	return len(a.images)
}

// Mark returns a watermark; every handle created later compares greater
// or equal to it.
func (a *Arena) Mark() Handle {
	return a.next
}

// DestroySince destroys every image added at or after mark that is not
// listed in keep. It rolls back the scratch images of a failed operator.
func (a *Arena) DestroySince(mark Handle, keep ...*List) {
	kept := map[Handle]bool{}
	for _, l := range keep {
		for _, h := range l.Handles() {
			kept[h] = true
		}
	}
	var doomed []Handle
	for h := range a.images {
		if h >= mark && !kept[h] {
			doomed = append(doomed, h)
		}
	}
	sort.Slice(doomed, func(i, j int) bool { return doomed[i] < doomed[j] })
	for _, h := range doomed {
		a.Destroy(h)
	}
}
