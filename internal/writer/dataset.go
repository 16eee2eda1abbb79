package writer

import (
	"NetFlowGen/internal/compress"
	"NetFlowGen/internal/model"
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// Dataset is a completed processed-dataset artifact opened for
// streaming consumption. It exposes the embedded schema and run
// metadata plus the encoded chunks in their original order.
type Dataset struct {
	path       string
	file       *os.File
	codec      compress.Codec
	dataOffset int64
	dataEnd    int64

	Header *model.SinkHeader
	Meta   *model.RunMeta
}

// OpenDataset opens and validates an artifact. A file without the
// trailing completion marker fails with model.ErrIncompleteArtifact:
// partial output of a dead run is never served as a dataset.
func OpenDataset(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: '%s'", model.ErrDatasetNotFound, path)
		}
		return nil, err
	}

	d := &Dataset{path: path, file: file}
	if err := d.readHeader(); err != nil {
		file.Close()
		return nil, err
	}
	if err := d.readFooter(); err != nil {
		file.Close()
		return nil, err
	}
	return d, nil
}

func (d *Dataset) readHeader() error {
	preamble := make([]byte, 8)
	if _, err := io.ReadFull(d.file, preamble); err != nil {
		return fmt.Errorf("%w: '%s': truncated preamble", model.ErrIncompleteArtifact, d.path)
	}
	if string(preamble[:4]) != headerMagic {
		return fmt.Errorf("'%s' is not a processed dataset artifact", d.path)
	}
	if preamble[4] != formatVersion {
		return fmt.Errorf("unsupported artifact version %d", preamble[4])
	}
	codec, err := compress.ByID(compress.ID(preamble[5]))
	if err != nil {
		return err
	}
	d.codec = codec

	var hdrLen uint32
	if err := binary.Read(d.file, binary.LittleEndian, &hdrLen); err != nil {
		return fmt.Errorf("%w: '%s': truncated header", model.ErrIncompleteArtifact, d.path)
	}
	data := make([]byte, hdrLen)
	if _, err := io.ReadFull(d.file, data); err != nil {
		return fmt.Errorf("%w: '%s': truncated header", model.ErrIncompleteArtifact, d.path)
	}
	d.Header = &model.SinkHeader{}
	if err := json.Unmarshal(data, d.Header); err != nil {
		return fmt.Errorf("failed to parse artifact header: %w", err)
	}
	d.dataOffset = int64(12 + hdrLen)
	return nil
}

func (d *Dataset) readFooter() error {
	info, err := d.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size < d.dataOffset+9 {
		return fmt.Errorf("%w: '%s': no completion marker", model.ErrIncompleteArtifact, d.path)
	}

	tail := make([]byte, 8)
	if _, err := d.file.ReadAt(tail, size-8); err != nil {
		return err
	}
	if string(tail[4:]) != footerMagic {
		return fmt.Errorf("%w: '%s': no completion marker", model.ErrIncompleteArtifact, d.path)
	}
	metaLen := int64(binary.LittleEndian.Uint32(tail[:4]))
	metaStart := size - 8 - metaLen
	if metaStart <= d.dataOffset {
		return fmt.Errorf("%w: '%s': corrupt footer", model.ErrIncompleteArtifact, d.path)
	}

	marker := make([]byte, 1)
	if _, err := d.file.ReadAt(marker, metaStart-1); err != nil {
		return err
	}
	if marker[0] != frameFooter {
		return fmt.Errorf("%w: '%s': corrupt footer", model.ErrIncompleteArtifact, d.path)
	}

	data := make([]byte, metaLen)
	if _, err := d.file.ReadAt(data, metaStart); err != nil {
		return err
	}
	d.Meta = &model.RunMeta{}
	if err := json.Unmarshal(data, d.Meta); err != nil {
		return fmt.Errorf("failed to parse run metadata: %w", err)
	}
	if d.Meta.State != nil {
		for _, v := range d.Meta.State.Vocabs {
			v.Rebuild()
		}
	}
	d.dataEnd = metaStart - 1
	return nil
}

// Chunks returns an iterator over the encoded chunks in write order.
// The iterator shares the dataset's file handle; a dataset supports one
// active iteration at a time.
func (d *Dataset) Chunks() (*ChunkIterator, error) {
	if _, err := d.file.Seek(d.dataOffset, io.SeekStart); err != nil {
		return nil, err
	}
	return &ChunkIterator{
		d:   d,
		buf: bufio.NewReader(io.LimitReader(d.file, d.dataEnd-d.dataOffset)),
	}, nil
}

// Close releases the artifact's file handle.
func (d *Dataset) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// ChunkIterator streams encoded chunks back from an artifact.
type ChunkIterator struct {
	d   *Dataset
	buf *bufio.Reader
}

// Next returns the next encoded chunk, or io.EOF after the last one.
func (it *ChunkIterator) Next(ctx context.Context) (*model.EncodedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	marker, err := it.buf.ReadByte()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	if marker != frameChunk {
		return nil, fmt.Errorf("unexpected frame marker 0x%x in '%s'", marker, it.d.path)
	}

	var fields [5]uint32
	for i := range fields {
		if err := binary.Read(it.buf, binary.LittleEndian, &fields[i]); err != nil {
			return nil, fmt.Errorf("%w: '%s': truncated chunk frame", model.ErrIncompleteArtifact, it.d.path)
		}
	}
	index, rows, width, rawLen, payloadLen := fields[0], fields[1], fields[2], fields[3], fields[4]

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(it.buf, payload); err != nil {
		return nil, fmt.Errorf("%w: '%s': truncated chunk payload", model.ErrIncompleteArtifact, it.d.path)
	}
	raw, err := it.d.codec.Decompress(payload, int(rawLen))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress chunk %d: %w", index, err)
	}
	if len(raw) != int(rows)*int(width)*8 {
		return nil, fmt.Errorf("chunk %d payload size mismatch", index)
	}

	chunk := &model.EncodedChunk{
		Index: int(index),
		Width: int(width),
		Rows:  make([][]float64, rows),
	}
	for r := 0; r < int(rows); r++ {
		row := make([]float64, width)
		for c := 0; c < int(width); c++ {
			bits := binary.LittleEndian.Uint64(raw[(r*int(width)+c)*8:])
			row[c] = math.Float64frombits(bits)
		}
		chunk.Rows[r] = row
	}
	return chunk, nil
}
