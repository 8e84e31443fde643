package block

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

const (
	tomlSuffix = ".block.toml"
	yamlSuffix = ".block.yaml"
	ymlSuffix  = ".block.yml"
)

// record is the on-disk form of a Block. The name of a block is taken from
// the name of the file it is stored in.
type record struct {
	TextureName string `toml:"texture_name" yaml:"texture_name"`
	Liquid      bool   `toml:"liquid" yaml:"liquid"`
	Opaque      bool   `toml:"opaque" yaml:"opaque"`
}

// LoadFolder reads every block record in dir and registers them in lexical
// order of their file names, so that ids are stable across runs. Records may
// be stored as TOML (name.block.toml) or YAML (name.block.yaml). Records that
// cannot be read or decoded are logged and skipped. An error is only returned
// if dir itself cannot be read, in which case the registry returned is empty.
func LoadFolder(dir string, log *slog.Logger) (*Registry, error) {
	if log == nil {
		log = slog.Default()
	}
	reg := NewRegistry()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return reg, fmt.Errorf("load block folder: %w", err)
	}
	slices.SortFunc(entries, func(a, b os.DirEntry) int { return strings.Compare(a.Name(), b.Name()) })

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := blockName(e.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, e.Name())
		b, err := readRecord(path, name)
		if err != nil {
			log.Error("load block: "+err.Error(), "file", path)
			continue
		}
		if _, err := reg.Register(b); err != nil {
			log.Error("load block: "+err.Error(), "file", path)
		}
	}
	return reg, nil
}

// LoadResult is delivered by LoadAsync once a block folder has been read.
type LoadResult struct {
	Registry *Registry
	Err      error
}

// LoadAsync reads dir like LoadFolder on a separate goroutine. The channel
// returned receives exactly one result and is then closed. If ctx is cancelled
// before the folder has been read, the result holds ctx.Err().
func LoadAsync(ctx context.Context, dir string, log *slog.Logger) <-chan LoadResult {
	out := make(chan LoadResult, 1)
	go func() {
		defer close(out)
		done := make(chan LoadResult, 1)
		go func() {
			reg, err := LoadFolder(dir, log)
			done <- LoadResult{Registry: reg, Err: err}
		}()
		select {
		case res := <-done:
			out <- res
		case <-ctx.Done():
			out <- LoadResult{Registry: NewRegistry(), Err: ctx.Err()}
		}
	}()
	return out
}

// Export writes every block in r to dir as a TOML record, creating dir if it
// does not yet exist. Blocks are written with a numeric prefix so that loading
// the folder again assigns the same ids.
func (r *Registry) Export(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export blocks: %w", err)
	}
	for _, b := range r.All() {
		data, err := toml.Marshal(record{TextureName: b.TextureName, Liquid: b.Liquid, Opaque: b.Opaque})
		if err != nil {
			return fmt.Errorf("export block %v: encode: %w", b.Name, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%03d-%v%v", b.ID, b.Name, tomlSuffix))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("export block %v: %w", b.Name, err)
		}
	}
	return nil
}

func readRecord(path, name string) (Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Block{}, err
	}
	var rec record
	switch {
	case strings.HasSuffix(path, tomlSuffix):
		err = toml.Unmarshal(data, &rec)
	default:
		err = yaml.Unmarshal(data, &rec)
	}
	if err != nil {
		return Block{}, fmt.Errorf("decode %v: %w", name, err)
	}
	if rec.TextureName == "" {
		return Block{}, fmt.Errorf("decode %v: %w", name, errMissingTexture)
	}
	return Block{Name: name, TextureName: rec.TextureName, Liquid: rec.Liquid, Opaque: rec.Opaque}, nil
}

var errMissingTexture = errors.New("texture_name must not be empty")

// blockName returns the block name encoded in a file name, stripping the
// record suffix and an optional numeric ordering prefix such as "001-".
func blockName(file string) (string, bool) {
	var name string
	switch {
	case strings.HasSuffix(file, tomlSuffix):
		name = strings.TrimSuffix(file, tomlSuffix)
	case strings.HasSuffix(file, yamlSuffix):
		name = strings.TrimSuffix(file, yamlSuffix)
	case strings.HasSuffix(file, ymlSuffix):
		name = strings.TrimSuffix(file, ymlSuffix)
	default:
		return "", false
	}
	if prefix, rest, ok := strings.Cut(name, "-"); ok && prefix != "" && strings.Trim(prefix, "0123456789") == "" {
		name = rest
	}
	return name, name != ""
}
