// Package cidds reads CIDDS-style network-flow files as a lazy, finite
// sequence of fixed-size chunks.
package cidds

import (
	"NetFlowGen/internal/model"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Columns of a CIDDS flow file. Only the first eleven carry the fields
// the encoders use; the trailing attack annotation columns are ignored.
const (
	colDateFirstSeen = iota
	colDuration
	colProto
	colSrcIPAddr
	colSrcPt
	colDstIPAddr
	colDstPt
	colPackets
	colBytes
	colFlows
	colFlags
	minColumns = colFlags + 1
)

// FieldCount is the number of values each produced FlowRecord holds, in
// schema order: date_first_seen, duration, proto, src_ip_addr, src_pt,
// dst_ip_addr, dst_pt, packets, bytes, flags.
const FieldCount = 10

// Reader produces chunks of parsed flow records from a CIDDS CSV file.
// It is single-pass: consuming it advances the file position, and it can
// only be restarted by reopening the source.
type Reader struct {
	path      string
	file      *os.File
	csv       *csv.Reader
	chunkSize int
	maxRows   int64

	rows      int64 // rows delivered so far
	line      int64 // current line in the file, for error reporting
	chunkIdx  int
	exhausted bool
}

// Open opens a flow file for chunked reading. It fails with
// model.ErrDatasetNotFound before any read attempt if the path does not
// exist. maxRows of 0 means unlimited.
func Open(path string, chunkSize int, maxRows int64) (*Reader, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be >= 1, got %d", chunkSize)
	}
	if maxRows < 0 {
		return nil, fmt.Errorf("max rows must be >= 0, got %d", maxRows)
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: '%s'", model.ErrDatasetNotFound, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset '%s': %w", path, err)
	}

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1 // attack annotation columns vary
	r.TrimLeadingSpace = true

	reader := &Reader{
		path:      path,
		file:      file,
		csv:       r,
		chunkSize: chunkSize,
		maxRows:   maxRows,
	}

	// The first line is the header row.
	if _, err := r.Read(); err != nil {
		file.Close()
		if err == io.EOF {
			return nil, &model.FormatError{Path: path, Row: 0, Reason: "file is empty"}
		}
		return nil, &model.FormatError{Path: path, Row: 0, Reason: err.Error()}
	}
	reader.line = 1

	return reader, nil
}

// Next returns the next chunk, containing exactly the configured chunk
// size of records except possibly the last. It returns io.EOF once the
// sequence is exhausted.
func (r *Reader) Next(ctx context.Context) (*model.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.exhausted {
		return nil, io.EOF
	}

	records := make([]model.FlowRecord, 0, r.chunkSize)
	for len(records) < r.chunkSize {
		if r.maxRows > 0 && r.rows >= r.maxRows {
			r.exhausted = true
			break
		}

		row, err := r.csv.Read()
		if err == io.EOF {
			r.exhausted = true
			break
		}
		r.line++
		if err != nil {
			return nil, &model.FormatError{Path: r.path, Row: r.line, Reason: err.Error()}
		}

		rec, err := r.parseRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		r.rows++
	}

	if len(records) == 0 {
		return nil, io.EOF
	}

	chunk := &model.Chunk{Index: r.chunkIdx, Records: records}
	r.chunkIdx++
	return chunk, nil
}

// Rows returns the number of rows delivered so far.
func (r *Reader) Rows() int64 {
	return r.rows
}

// Close releases the file handle. Safe to call more than once.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *Reader) parseRow(row []string) (model.FlowRecord, error) {
	if len(row) < minColumns {
		return nil, &model.FormatError{
			Path: r.path, Row: r.line,
			Reason: fmt.Sprintf("expected at least %d columns, got %d", minColumns, len(row)),
		}
	}

	rec := make(model.FlowRecord, FieldCount)
	fail := func(col string, err error) (model.FlowRecord, error) {
		return nil, &model.FormatError{
			Path: r.path, Row: r.line,
			Reason: fmt.Sprintf("bad %s value: %v", col, err),
		}
	}

	ts, err := parseTimestamp(row[colDateFirstSeen])
	if err != nil {
		return fail("date_first_seen", err)
	}
	rec[0] = ts

	if rec[1], err = parseFloat(row[colDuration]); err != nil {
		return fail("duration", err)
	}

	rec[2] = parseProto(row[colProto])

	if rec[3], err = parseAddress(row[colSrcIPAddr]); err != nil {
		return fail("src_ip_addr", err)
	}
	if rec[4], err = parsePort(row[colSrcPt]); err != nil {
		return fail("src_pt", err)
	}
	if rec[5], err = parseAddress(row[colDstIPAddr]); err != nil {
		return fail("dst_ip_addr", err)
	}
	if rec[6], err = parsePort(row[colDstPt]); err != nil {
		return fail("dst_pt", err)
	}
	if rec[7], err = parseFloat(row[colPackets]); err != nil {
		return fail("packets", err)
	}
	if rec[8], err = parseBytes(row[colBytes]); err != nil {
		return fail("bytes", err)
	}
	if rec[9], err = parseFlags(row[colFlags]); err != nil {
		return fail("flags", err)
	}

	return rec, nil
}

// Timestamp layouts observed in CIDDS exports.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (model.Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Value{Empty: true}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Value{Time: t}, nil
		}
	}
	return model.Value{}, fmt.Errorf("unrecognized timestamp '%s'", s)
}

func parseFloat(s string) (model.Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Value{Empty: true}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Value{}, err
	}
	return model.Value{Num: v}, nil
}

func parseProto(s string) model.Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Value{Empty: true}
	}
	return model.Value{Str: s}
}

// parsePort handles the destination ports of ICMP flows, which CIDDS
// expresses as float values (type.code encoded as a decimal).
func parsePort(s string) (model.Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Value{Empty: true}, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return model.Value{Num: float64(v)}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Value{}, err
	}
	return model.Value{Num: float64(int64(f * 10))}, nil
}

// parseBytes handles byte counts that are either plain integers or
// suffixed like "1.0 M".
func parseBytes(s string) (model.Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Value{Empty: true}, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return model.Value{Num: float64(v)}, nil
	}
	parts := strings.Fields(s)
	f, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return model.Value{}, fmt.Errorf("unrecognized byte count '%s'", s)
	}
	return model.Value{Num: float64(int64(f * 1e6))}, nil
}

// parseFlags converts a TCP flag string like ".AP.S." into a 6-bit
// field ordered URG, ACK, PSH, RST, SYN, FIN from the highest bit down.
func parseFlags(s string) (model.Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Value{Empty: true}, nil
	}
	if len(s) != 6 {
		return model.Value{}, fmt.Errorf("unrecognized flag string '%s'", s)
	}
	var bits uint8
	letters := "UAPRSF"
	for i := 0; i < 6; i++ {
		if s[i] == letters[i] {
			bits |= 1 << (5 - i)
		} else if s[i] != '.' {
			return model.Value{}, fmt.Errorf("unrecognized flag string '%s'", s)
		}
	}
	return model.Value{Bits: bits}, nil
}
