package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dm-vev/voxelworld/engine/world"
	"github.com/klauspost/compress/zstd"
)

// OBJWriter writes chunk batches as a Wavefront OBJ document. Vertices are
// placed at world coordinates. Faces are grouped per chunk and select the
// texture name of their batch as material.
type OBJWriter struct {
	w *bufio.Writer
	// offset is the number of vertices written so far. OBJ indices are
	// 1-based and global to the document.
	offset uint32
}

// NewOBJWriter returns an OBJWriter writing to w. Flush must be called once
// all chunks have been written.
func NewOBJWriter(w io.Writer) *OBJWriter {
	return &OBJWriter{w: bufio.NewWriterSize(w, 64*1024)}
}

// WriteChunk writes the batches of the chunk at pos.
func (o *OBJWriter) WriteChunk(pos world.ChunkPos, batches []Batch) error {
	origin := pos.Origin()
	if _, err := fmt.Fprintf(o.w, "o chunk_%d_%d_%d\n", pos[0], pos[1], pos[2]); err != nil {
		return err
	}
	for _, b := range batches {
		for _, p := range b.Positions {
			fmt.Fprintf(o.w, "v %g %g %g\n", float32(origin[0])+p[0], float32(origin[1])+p[1], float32(origin[2])+p[2])
		}
		for _, uv := range b.UVs {
			fmt.Fprintf(o.w, "vt %g %g\n", uv[0], uv[1])
		}
		for _, n := range b.Normals {
			fmt.Fprintf(o.w, "vn %g %g %g\n", n[0], n[1], n[2])
		}
		fmt.Fprintf(o.w, "usemtl %v\n", b.Texture)
		for i := 0; i+2 < len(b.Indices); i += 3 {
			a, c, d := o.offset+b.Indices[i]+1, o.offset+b.Indices[i+1]+1, o.offset+b.Indices[i+2]+1
			if _, err := fmt.Fprintf(o.w, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, c, c, c, d, d, d); err != nil {
				return err
			}
		}
		o.offset += uint32(len(b.Positions))
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (o *OBJWriter) Flush() error {
	return o.w.Flush()
}

// WriteOBJ writes the batches of a single chunk to w as an OBJ document.
func WriteOBJ(w io.Writer, pos world.ChunkPos, batches []Batch) error {
	o := NewOBJWriter(w)
	if err := o.WriteChunk(pos, batches); err != nil {
		return fmt.Errorf("write obj: %w", err)
	}
	if err := o.Flush(); err != nil {
		return fmt.Errorf("write obj: %w", err)
	}
	return nil
}

// WriteOBJFile writes every chunk held by r to the file at path. If path ends
// in ".zst", the document is compressed with zstd.
func WriteOBJFile(path string, r *Recorder) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write obj file: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("write obj file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("write obj file: %w", cerr)
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".zst") {
		var enc *zstd.Encoder
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("write obj file: %w", err)
		}
		defer func() {
			if cerr := enc.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("write obj file: %w", cerr)
			}
		}()
		w = enc
	}

	o := NewOBJWriter(w)
	for _, pos := range r.Positions() {
		batches, _ := r.Batches(pos)
		if err := o.WriteChunk(pos, batches); err != nil {
			return fmt.Errorf("write obj file: %w", err)
		}
	}
	if err := o.Flush(); err != nil {
		return fmt.Errorf("write obj file: %w", err)
	}
	return nil
}
