// Package pipeline orchestrates Reader -> Encoder -> Sink for one
// preprocessing run, chunk by chunk.
package pipeline

import (
	"NetFlowGen/internal/compress"
	"NetFlowGen/internal/config"
	"NetFlowGen/internal/encoder"
	_ "NetFlowGen/internal/encoder/impl/binary"    // Registers the binary encoder
	_ "NetFlowGen/internal/encoder/impl/embedding" // Registers the embedding encoder
	_ "NetFlowGen/internal/encoder/impl/numeric"   // Registers the numeric encoder
	"NetFlowGen/internal/model"
	"NetFlowGen/internal/schema"
	"NetFlowGen/internal/writer"
	"NetFlowGen/pkg/cidds"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// State tracks the pipeline through its run.
type State uint8

const (
	StateInit State = iota
	StateSchemaResolved
	StateStreaming
	StateFinalized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSchemaResolved:
		return "schema_resolved"
	case StateStreaming:
		return "streaming"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pipeline wires a chunked reader, an encoding strategy and a sink into
// one memory-bounded run. At most one chunk and its encoded form are
// being processed at any time; chunk reading overlaps encoding through
// a channel of depth one.
type Pipeline struct {
	cfg    *config.Config
	log    zerolog.Logger
	format string
	input  string
	output string
	force  bool

	state State
}

// New creates a pipeline for one input/output pair.
func New(cfg *config.Config, log zerolog.Logger, format, input, output string, force bool) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		log:    log,
		format: format,
		input:  input,
		output: output,
		force:  force,
	}
}

// State returns the pipeline's current state.
func (p *Pipeline) State() State {
	return p.state
}

// Run executes the full preprocessing run. The context is checked
// between chunks; cancellation aborts cleanly, releasing the input
// handle and the sink.
func (p *Pipeline) Run(ctx context.Context) (*model.RunSummary, error) {
	start := time.Now()
	twoPass := p.cfg.Preprocess.Normalization.Policy == config.PolicyTwoPass

	// INIT: resolve everything that can fail before touching files,
	// then open input and output so an existing output is rejected
	// before any chunk is processed.
	sch, err := schema.Resolve(p.format)
	if err != nil {
		return nil, p.fail("init", -1, err)
	}
	enc, err := encoder.Create(p.cfg.Preprocess.Encoder, p.cfg)
	if err != nil {
		return nil, p.fail("init", -1, err)
	}

	reader, err := p.openReader()
	if err != nil {
		return nil, p.fail("init", -1, err)
	}
	defer reader.Close()

	sink, err := p.newSink()
	if err != nil {
		return nil, p.fail("init", -1, err)
	}

	// SCHEMA_RESOLVED: seed normalization state; under the two-pass
	// policy, scan the input once for exact bounds and the full
	// vocabulary before any encoding happens.
	p.state = StateSchemaResolved
	st := model.NewNormalizationState(sch)

	if twoPass {
		if err := p.scanBounds(ctx, reader, sch, st); err != nil {
			sink.Abort()
			return nil, err
		}
		st.FreezeVocabs()
		reader.Close()
		if reader, err = p.openReader(); err != nil {
			sink.Abort()
			return nil, p.fail("scan", -1, err)
		}
		defer reader.Close()
	}

	// STREAMING: encode chunk by chunk, appending in chunk order.
	p.state = StateStreaming
	summary, err := p.stream(ctx, reader, sink, sch, st, enc, twoPass)
	if err != nil {
		sink.Abort()
		return nil, err
	}

	// FINALIZED: persist the metadata and the completion marker.
	meta := &model.RunMeta{
		Encoding:  enc.Finalize(sch, st),
		State:     st,
		Rows:      summary.Rows,
		Chunks:    summary.Chunks,
		Unknown:   summary.Unknown,
		CreatedAt: time.Now().UTC(),
	}
	if err := sink.Close(meta); err != nil {
		return nil, p.fail("finalize", -1, err)
	}
	p.state = StateFinalized

	summary.Elapsed = time.Since(start)
	p.log.Info().
		Uint64("rows", summary.Rows).
		Int("chunks", summary.Chunks).
		Dur("elapsed", summary.Elapsed).
		Interface("unknown_substitutions", summary.Unknown).
		Msg("preprocessing run complete")
	return summary, nil
}

func (p *Pipeline) openReader() (*cidds.Reader, error) {
	return cidds.Open(p.input, p.cfg.Preprocess.ChunkSize, p.cfg.Preprocess.MaxRows)
}

func (p *Pipeline) newSink() (model.Sink, error) {
	switch p.cfg.Preprocess.Sink.Type {
	case "clickhouse":
		return writer.NewClickHouseSink(p.cfg.Preprocess.Sink.ClickHouse, p.output, p.force)
	default:
		codec, err := compress.ByName(p.cfg.Preprocess.Sink.Compression)
		if err != nil {
			return nil, err
		}
		return writer.Create(p.output, codec, p.force)
	}
}

// scanBounds is the bounds-only first pass of the two-pass policy.
func (p *Pipeline) scanBounds(ctx context.Context, reader *cidds.Reader, sch *model.FieldSchema, st *model.NormalizationState) error {
	chunks := 0
	for {
		chunk, err := reader.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return p.fail("scan", chunks, err)
		}
		st.Observe(chunk, sch)
		chunks++
	}
	p.log.Debug().Int("chunks", chunks).Msg("bounds scan complete")
	return nil
}

type readResult struct {
	chunk *model.Chunk
	err   error
}

// stream runs the encode pass. Reading overlaps encoding through a
// bounded channel so the reader never gets more than one chunk ahead
// of the sink.
func (p *Pipeline) stream(ctx context.Context, reader *cidds.Reader, sink model.Sink, sch *model.FieldSchema, st *model.NormalizationState, enc model.Encoder, twoPass bool) (*model.RunSummary, error) {
	ctx, cancel := context.WithCancel(ctx)
	results := make(chan readResult, 1)
	defer func() {
		// Stop the reader goroutine and wait for it to let go of the
		// reader before the caller closes it.
		cancel()
		for range results {
		}
	}()

	go func() {
		defer close(results)
		for {
			chunk, err := reader.Next(ctx)
			select {
			case results <- readResult{chunk, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	summary := &model.RunSummary{Unknown: make(map[string]uint64)}
	began := false

	begin := func() error {
		meta := enc.Finalize(sch, st)
		hdr := &model.SinkHeader{
			Format:       sch.Format,
			Encoder:      enc.Name(),
			FeatureNames: meta.FeatureNames,
			Schema:       sch,
		}
		return sink.Begin(hdr)
	}

	// Under the two-pass policy the state is already final, so the
	// self-describing header can be written up front.
	if twoPass {
		if err := begin(); err != nil {
			return nil, p.fail("streaming", -1, err)
		}
		began = true
	}

	for res := range results {
		if res.err == io.EOF {
			break
		}
		if res.err != nil {
			return nil, p.fail("streaming", summary.Chunks, res.err)
		}
		chunk := res.chunk

		if !twoPass {
			// Streaming policy: fold each chunk into the state before
			// encoding it. The vocabulary freezes after the first chunk
			// so the encoded width stays fixed; later unseen categories
			// degrade to the unknown slot.
			st.Observe(chunk, sch)
			if !began {
				st.FreezeVocabs()
				if err := begin(); err != nil {
					return nil, p.fail("streaming", chunk.Index, err)
				}
				began = true
			}
		}

		encoded, err := enc.Encode(chunk, sch, st)
		if err != nil {
			return nil, p.fail("streaming", chunk.Index, err)
		}
		if err := sink.Append(ctx, encoded); err != nil {
			return nil, p.fail("streaming", chunk.Index, err)
		}

		summary.Rows += uint64(len(chunk.Records))
		summary.Chunks++
		for field, n := range encoded.Unknown {
			summary.Unknown[field] += n
		}
		p.log.Debug().
			Int("chunk", chunk.Index).
			Int("rows", len(chunk.Records)).
			Msg("chunk encoded")
	}

	if err := ctx.Err(); err != nil {
		return nil, p.fail("streaming", summary.Chunks, err)
	}

	// An empty input still produces a valid, self-describing artifact.
	if !began {
		if err := begin(); err != nil {
			return nil, p.fail("streaming", -1, err)
		}
	}

	return summary, nil
}

// fail transitions the pipeline to its terminal failure state.
func (p *Pipeline) fail(stage string, chunk int, err error) error {
	p.state = StateFailed
	perr := &model.PipelineError{Stage: stage, Chunk: chunk, Err: err}
	p.log.Error().Err(err).Str("stage", stage).Int("chunk", chunk).Msg("preprocessing run failed")
	return perr
}

// Describe returns a short human-readable account of a run
// configuration, used by the CLI.
func (p *Pipeline) Describe() string {
	return fmt.Sprintf("%s -> %s (format=%s encoder=%s chunk_size=%d policy=%s)",
		p.input, p.output, p.format, p.cfg.Preprocess.Encoder,
		p.cfg.Preprocess.ChunkSize, p.cfg.Preprocess.Normalization.Policy)
}
