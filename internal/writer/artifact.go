// Package writer persists encoded chunks incrementally and streams
// them back to a downstream consumer.
package writer

import (
	"NetFlowGen/internal/compress"
	"NetFlowGen/internal/model"
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Artifact file layout, all integers little-endian:
//
//	magic "NFGP" | version u8 | codec u8 | reserved u16
//	headerLen u32 | header JSON
//	repeated chunk frames:
//	  0x01 | index u32 | rows u32 | width u32 | rawLen u32 | payloadLen u32 | payload
//	footer:
//	  0x02 | meta JSON | metaLen u32 | magic "NFGC"
//
// The trailing magic is written only by Close, so a file without it is
// an incomplete run, never silently mistaken for a finished one.
const (
	headerMagic   = "NFGP"
	footerMagic   = "NFGC"
	formatVersion = 1

	frameChunk  = 0x01
	frameFooter = 0x02
)

// Artifact is an incremental on-disk sink for encoded chunks. It
// implements the model.Sink interface.
type Artifact struct {
	path  string
	file  *os.File
	buf   *bufio.Writer
	codec compress.Codec
}

var _ model.Sink = (*Artifact)(nil)

// Create opens a new artifact file. It fails with model.ErrOutputExists
// before any chunk is processed when the path exists and force is
// false; with force, an existing file is replaced.
func Create(path string, codec compress.Codec, force bool) (*Artifact, error) {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return nil, fmt.Errorf("output path '%s' is a directory", path)
		}
		if !force {
			return nil, fmt.Errorf("%w: '%s'", model.ErrOutputExists, path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to replace existing output: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file '%s': %w", path, err)
	}

	a := &Artifact{
		path:  path,
		file:  file,
		buf:   bufio.NewWriter(file),
		codec: codec,
	}

	preamble := append([]byte(headerMagic), formatVersion, byte(codec.ID()), 0, 0)
	if _, err := a.buf.Write(preamble); err != nil {
		a.Abort()
		return nil, fmt.Errorf("failed to write artifact preamble: %w", err)
	}
	return a, nil
}

// Begin writes the self-describing header. Called once before the
// first Append.
func (a *Artifact) Begin(hdr *model.SinkHeader) error {
	data, err := json.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact header: %w", err)
	}
	if err := binary.Write(a.buf, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	if _, err := a.buf.Write(data); err != nil {
		return fmt.Errorf("failed to write artifact header: %w", err)
	}
	return nil
}

// Append frames and persists one encoded chunk.
func (a *Artifact) Append(ctx context.Context, chunk *model.EncodedChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw := make([]byte, 0, len(chunk.Rows)*chunk.Width*8)
	for _, row := range chunk.Rows {
		for _, v := range row {
			raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
		}
	}

	payload, err := a.codec.Compress(raw)
	if err != nil {
		return fmt.Errorf("failed to compress chunk %d: %w", chunk.Index, err)
	}

	frame := make([]byte, 0, 21)
	frame = append(frame, frameChunk)
	frame = binary.LittleEndian.AppendUint32(frame, uint32(chunk.Index))
	frame = binary.LittleEndian.AppendUint32(frame, uint32(len(chunk.Rows)))
	frame = binary.LittleEndian.AppendUint32(frame, uint32(chunk.Width))
	frame = binary.LittleEndian.AppendUint32(frame, uint32(len(raw)))
	frame = binary.LittleEndian.AppendUint32(frame, uint32(len(payload)))
	if _, err := a.buf.Write(frame); err != nil {
		return fmt.Errorf("failed to write chunk frame: %w", err)
	}
	if _, err := a.buf.Write(payload); err != nil {
		return fmt.Errorf("failed to write chunk payload: %w", err)
	}
	return nil
}

// Close writes the footer and the completion marker and flushes the
// file. Once it returns, the artifact is fully readable.
func (a *Artifact) Close(meta *model.RunMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal run metadata: %w", err)
	}

	if err := a.buf.WriteByte(frameFooter); err != nil {
		return err
	}
	if _, err := a.buf.Write(data); err != nil {
		return fmt.Errorf("failed to write run metadata: %w", err)
	}
	tail := binary.LittleEndian.AppendUint32(nil, uint32(len(data)))
	tail = append(tail, footerMagic...)
	if _, err := a.buf.Write(tail); err != nil {
		return err
	}

	if err := a.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush artifact: %w", err)
	}
	if err := a.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync artifact: %w", err)
	}
	err = a.file.Close()
	a.file = nil
	return err
}

// Abort releases the file handle without completing the artifact. The
// file is left behind without its completion marker so the failed run
// is detectable.
func (a *Artifact) Abort() {
	if a.file == nil {
		return
	}
	a.buf.Flush()
	a.file.Close()
	a.file = nil
}
