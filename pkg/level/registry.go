package level

import (
	"github.com/Faultbox/arx-levelgen/pkg/encoding"
)

// Registry collects the textures and items a generated level uses. Texture
// ids are 1-based and stable for the lifetime of the registry; call Reset
// between levels.
type Registry struct {
	textures map[string]int32
	paths    []string
	items    map[string]struct{}
	itemList []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset forgets all textures and items.
func (r *Registry) Reset() {
	r.textures = make(map[string]int32)
	r.paths = nil
	r.items = make(map[string]struct{})
	r.itemList = nil
}

// Texture returns the container id of a texture path, registering it on
// first use.
func (r *Registry) Texture(path string) int32 {
	path = encoding.NormalizePath(path)
	if id, ok := r.textures[path]; ok {
		return id
	}
	r.paths = append(r.paths, path)
	id := int32(len(r.paths))
	r.textures[path] = id
	return id
}

// Item records an item path as used by the level.
func (r *Registry) Item(path string) {
	path = encoding.NormalizePath(path)
	if _, ok := r.items[path]; ok {
		return
	}
	r.items[path] = struct{}{}
	r.itemList = append(r.itemList, path)
}

// Containers returns the registered textures in id order.
func (r *Registry) Containers() []TextureContainer {
	out := make([]TextureContainer, len(r.paths))
	for i, p := range r.paths {
		out[i] = TextureContainer{ID: int32(i + 1), Path: p}
	}
	return out
}

// Items returns the used item paths in registration order.
func (r *Registry) Items() []string {
	return append([]string(nil), r.itemList...)
}
