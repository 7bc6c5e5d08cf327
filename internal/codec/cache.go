package codec

import (
	"context"
	"sort"
	"sync"

	"github.com/ironsheep/image-pipeline/internal/imagelist"
)

// Registry is a process-wide store of named image lists and string
// values. The cache: pseudo format reads and writes its image entries;
// -define registry:key=value and %[registry:key] reach its values.
//
// Registry is safe for concurrent use. Stored lists are cloned on the
// way in and out, so callers never share frames with the registry.
type Registry struct {
	mu     sync.RWMutex
	images map[string][]*imagelist.Image
	values map[string]string
}

// Default is the registry used by codecs created with a nil registry.
var Default = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		images: make(map[string][]*imagelist.Image),
		values: make(map[string]string),
	}
}

// SetImages stores a copy of imgs under key, replacing any previous entry.
func (r *Registry) SetImages(key string, imgs []*imagelist.Image) {
	stored := cloneAll(imgs)
	r.mu.Lock()
	old := r.images[key]
	r.images[key] = stored
	r.mu.Unlock()
	releaseAll(old)
}

// Images returns a copy of the list stored under key.
func (r *Registry) Images(key string) ([]*imagelist.Image, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	imgs, ok := r.images[key]
	if !ok {
		return nil, false
	}
	return cloneAll(imgs), true
}

// CacheKey names the registry entry a decoded file is kept under. The
// read modifier and any format prefix are dropped, so "png:a.png[0]" and
// "a.png" share the entry; pseudo formats keep their prefix.
func CacheKey(spec string) string {
	base, _ := splitModifier(spec)
	magick, name := SplitMagick(base)
	if _, ok := pseudoByName[magick]; ok {
		return "cache:" + magick + ":" + name
	}
	return "cache:" + name
}

// Load returns the images for spec, decoding them with c on first use.
// Later calls naming the same file are served from the registry with the
// read modifier applied to a copy.
func (r *Registry) Load(ctx context.Context, c *Codec, spec string, opts Options) ([]*imagelist.Image, error) {
	base, mod := splitModifier(spec)
	key := CacheKey(spec)
	imgs, ok := r.Images(key)
	if !ok {
		decoded, err := c.Decode(ctx, base, opts)
		if err != nil {
			releaseAll(decoded)
			return nil, err
		}
		r.SetImages(key, decoded)
		imgs = decoded
	}
	return applyModifier(imgs, mod)
}

// Set stores a string value.
func (r *Registry) Set(key, value string) {
	r.mu.Lock()
	r.values[key] = value
	r.mu.Unlock()
}

// Get returns a string value.
func (r *Registry) Get(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Delete removes a string value.
func (r *Registry) Delete(key string) {
	r.mu.Lock()
	delete(r.values, key)
	r.mu.Unlock()
}

// Evict removes the image entry stored under key. Evicting an absent key
// does nothing.
func (r *Registry) Evict(key string) {
	r.mu.Lock()
	old := r.images[key]
	delete(r.images, key)
	r.mu.Unlock()
	releaseAll(old)
}

// Clear removes every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	old := r.images
	r.images = make(map[string][]*imagelist.Image)
	r.values = make(map[string]string)
	r.mu.Unlock()
	for _, imgs := range old {
		releaseAll(imgs)
	}
}

// Keys lists the image and value keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.images)+len(r.values))
	for k := range r.images {
		keys = append(keys, k)
	}
	for k := range r.values {
		if _, dup := r.images[k]; !dup {
			keys = append(keys, k)
		}
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

func cloneAll(imgs []*imagelist.Image) []*imagelist.Image {
	out := make([]*imagelist.Image, len(imgs))
	for i, img := range imgs {
		out[i] = img.Clone()
	}
	return out
}

func releaseAll(imgs []*imagelist.Image) {
	for _, img := range imgs {
		img.Release()
	}
}
