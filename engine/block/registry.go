package block

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/dm-vev/voxelworld/engine/world/chunk"
)

var (
	// ErrRegistryFull is returned when registering more blocks than a voxel
	// can address.
	ErrRegistryFull = errors.New("block registry is full")
	// ErrDuplicateName is returned when registering a block with a name that
	// is already taken.
	ErrDuplicateName = errors.New("block name already registered")
	// ErrInvalidName is returned when registering a block without a name.
	ErrInvalidName = errors.New("invalid block name")
)

// Block describes how a material is displayed.
type Block struct {
	// ID is the material id of the block. It is assigned by the Registry.
	ID chunk.Voxel
	// Name is the unique name of the block, such as "stone".
	Name string
	// TextureName references the texture the block is drawn with.
	TextureName string
	// Liquid specifies if the block is a liquid.
	Liquid bool
	// Opaque specifies if the block hides what lies behind it.
	Opaque bool
}

// Registry maps material ids to blocks. Ids are assigned in the order blocks
// are registered, starting at 1, as id 0 is empty space. A Registry is safe
// for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	blocks []Block
	names  map[string]chunk.Voxel
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]chunk.Voxel)}
}

// Default returns a registry holding dirt, stone and water, in that order.
func Default() *Registry {
	r := NewRegistry()
	for _, b := range []Block{
		{Name: "dirt", TextureName: "dirt", Opaque: true},
		{Name: "stone", TextureName: "stone", Opaque: true},
		{Name: "water", TextureName: "water", Liquid: true},
	} {
		if _, err := r.Register(b); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds b to the registry and returns the id assigned to it.
func (r *Registry) Register(b Block) (chunk.Voxel, error) {
	if b.Name == "" {
		return 0, ErrInvalidName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[b.Name]; ok {
		return 0, fmt.Errorf("register %v: %w", b.Name, ErrDuplicateName)
	}
	if len(r.blocks) >= math.MaxUint8 {
		return 0, fmt.Errorf("register %v: %w", b.Name, ErrRegistryFull)
	}
	b.ID = chunk.Voxel(len(r.blocks) + 1)
	r.blocks = append(r.blocks, b)
	r.names[b.Name] = b.ID
	return b.ID, nil
}

// ByID returns the block with the material id passed.
func (r *Registry) ByID(id chunk.Voxel) (Block, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == chunk.Empty || int(id) > len(r.blocks) {
		return Block{}, false
	}
	return r.blocks[id-1], true
}

// ByName returns the block with the name passed.
func (r *Registry) ByName(name string) (Block, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.names[name]
	if !ok {
		return Block{}, false
	}
	return r.blocks[id-1], true
}

// Texture returns the texture name of the material id passed.
func (r *Registry) Texture(id chunk.Voxel) (string, bool) {
	b, ok := r.ByID(id)
	return b.TextureName, ok
}

// Len returns the number of registered blocks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blocks)
}

// All returns all registered blocks ordered by id.
func (r *Registry) All() []Block {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.blocks)
}
