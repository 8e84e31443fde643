package block

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dm-vev/voxelworld/engine/world/chunk"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRegistryAssignsIDsInOrder(t *testing.T) {
	r := Default()
	for i, name := range []string{"dirt", "stone", "water"} {
		b, ok := r.ByName(name)
		if !ok || b.ID != chunk.Voxel(i+1) {
			t.Fatalf("%v: got id %d (%v), want %d", name, b.ID, ok, i+1)
		}
	}
	if tex, ok := r.Texture(2); !ok || tex != "stone" {
		t.Fatalf("texture of id 2 is %q", tex)
	}
	if _, ok := r.ByID(chunk.Empty); ok {
		t.Fatalf("empty voxel resolved to a block")
	}
	if _, ok := r.ByID(4); ok {
		t.Fatalf("unregistered id resolved to a block")
	}
	if _, err := r.Register(Block{Name: "stone", TextureName: "x"}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if _, err := r.Register(Block{TextureName: "x"}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestRegistryFull(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 255; i++ {
		if _, err := r.Register(Block{Name: string(rune('a'+i%26)) + string(rune('0'+i/26)), TextureName: "t"}); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}
	if _, err := r.Register(Block{Name: "overflow", TextureName: "t"}); !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("expected ErrRegistryFull, got %v", err)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %v: %v", name, err)
	}
}

func TestLoadFolder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "stone.block.toml", "texture_name = \"stone_tex\"\nopaque = true\n")
	writeFile(t, dir, "dirt.block.toml", "texture_name = \"dirt_tex\"\nopaque = true\n")
	writeFile(t, dir, "water.block.yaml", "texture_name: water_tex\nliquid: true\n")
	writeFile(t, dir, "broken.block.toml", "texture_name = = \n")
	writeFile(t, dir, "notexture.block.yml", "liquid: true\n")
	writeFile(t, dir, "readme.txt", "ignored")

	r, err := LoadFolder(dir, discard)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("loaded %d blocks, want 3: %v", r.Len(), r.All())
	}
	// Lexical order: dirt, stone, water.
	want := []Block{
		{ID: 1, Name: "dirt", TextureName: "dirt_tex", Opaque: true},
		{ID: 2, Name: "stone", TextureName: "stone_tex", Opaque: true},
		{ID: 3, Name: "water", TextureName: "water_tex", Liquid: true},
	}
	for i, b := range r.All() {
		if b != want[i] {
			t.Fatalf("block %d = %+v, want %+v", i, b, want[i])
		}
	}
}

func TestLoadFolderMissing(t *testing.T) {
	r, err := LoadFolder(filepath.Join(t.TempDir(), "missing"), discard)
	if err == nil {
		t.Fatalf("expected an error for a missing folder")
	}
	if r == nil || r.Len() != 0 {
		t.Fatalf("expected an empty registry")
	}
}

func TestExportRoundTripKeepsIDs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blocks")
	r := NewRegistry()
	for _, name := range []string{"zinc", "air_pocket", "marble"} {
		if _, err := r.Register(Block{Name: name, TextureName: name + "_tex", Opaque: true}); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	if err := r.Export(dir); err != nil {
		t.Fatalf("export: %v", err)
	}
	loaded, err := LoadFolder(dir, discard)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, want := loaded.All(), r.All()
	if len(got) != len(want) {
		t.Fatalf("loaded %d blocks, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("block %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadAsync(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dirt.block.toml", "texture_name = \"dirt\"\n")

	res := <-LoadAsync(context.Background(), dir, discard)
	if res.Err != nil || res.Registry.Len() != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = <-LoadAsync(ctx, filepath.Join(dir, "missing"), discard)
	if res.Err == nil {
		t.Fatalf("expected an error")
	}
}

func TestBlockName(t *testing.T) {
	for file, want := range map[string]string{
		"stone.block.toml":     "stone",
		"001-stone.block.toml": "stone",
		"red-sand.block.yaml":  "red-sand",
		"water.block.yml":      "water",
		"stone.toml":           "",
		".block.toml":          "",
	} {
		got, ok := blockName(file)
		if got != want || ok != (want != "") {
			t.Errorf("blockName(%q) = %q, %v", file, got, ok)
		}
	}
}
