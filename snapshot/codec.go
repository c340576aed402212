package snapshot

import (
	"encoding/json"
	"fmt"
	"github.com/pierrec/lz4/v4"
	"io"
	"strings"
)

const (
	// JSONExtension marks plain JSON snapshots
	JSONExtension = ".json"
	// LZ4Extension marks LZ4 framed JSON snapshots
	LZ4Extension = ".json.lz4"
)

// Codec encodes and decodes snapshots
type Codec interface {
	Encode(w io.Writer, snapshot *Snapshot) error
	Decode(r io.Reader, snapshot *Snapshot) error
	Extension() string
}

// JSONCodec stores snapshots as JSON
type JSONCodec struct {
	Indent bool
}

func (c *JSONCodec) Encode(w io.Writer, snapshot *Snapshot) error {
	encoder := json.NewEncoder(w)
	if c.Indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(snapshot); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

func (c *JSONCodec) Decode(r io.Reader, snapshot *Snapshot) error {
	if err := json.NewDecoder(r).Decode(snapshot); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return nil
}

func (c *JSONCodec) Extension() string {
	return JSONExtension
}

// LZ4Codec stores snapshots as LZ4 framed JSON
type LZ4Codec struct {
	JSONCodec
}

func (c *LZ4Codec) Encode(w io.Writer, snapshot *Snapshot) error {
	writer := lz4.NewWriter(w)
	if err := c.JSONCodec.Encode(writer, snapshot); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to compress snapshot: %w", err)
	}
	return nil
}

func (c *LZ4Codec) Decode(r io.Reader, snapshot *Snapshot) error {
	return c.JSONCodec.Decode(lz4.NewReader(r), snapshot)
}

func (c *LZ4Codec) Extension() string {
	return LZ4Extension
}

// CodecFor returns the codec matching location extension; JSON is the default
func CodecFor(location string) Codec {
	if strings.HasSuffix(strings.ToLower(location), ".lz4") {
		return &LZ4Codec{}
	}
	return &JSONCodec{}
}

// IsSnapshotFile returns true for names with a snapshot extension
func IsSnapshotFile(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, LZ4Extension) || strings.HasSuffix(name, JSONExtension)
}
