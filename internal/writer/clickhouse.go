package writer

import (
	"NetFlowGen/internal/config"
	"NetFlowGen/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createRowsTableStatement = `
CREATE TABLE IF NOT EXISTS encoded_flows (
    Dataset    String,
    ChunkIndex UInt32,
    RowIndex   UInt32,
    Features   Array(Float64)
) ENGINE = MergeTree()
ORDER BY (Dataset, ChunkIndex, RowIndex);
`

const createRunsTableStatement = `
CREATE TABLE IF NOT EXISTS encoded_runs (
    Dataset     String,
    Encoder     String,
    Header      String,
    Meta        String,
    CompletedAt DateTime
) ENGINE = MergeTree()
ORDER BY (Dataset, CompletedAt);
`

// ClickHouseSink persists encoded chunks into ClickHouse instead of a
// local artifact file. The run row in encoded_runs is written only by
// Close and plays the role of the completion marker: consumers treat a
// dataset without it as incomplete.
type ClickHouseSink struct {
	conn    driver.Conn
	dataset string
	header  string
}

var _ model.Sink = (*ClickHouseSink)(nil)

// NewClickHouseSink connects and prepares the target tables. It fails
// with model.ErrOutputExists when a completed run with the same dataset
// name exists and force is false; with force, previous rows for the
// dataset are dropped.
func NewClickHouseSink(cfg config.ClickHouseConfig, dataset string, force bool) (*ClickHouseSink, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	ctx := context.Background()
	for _, stmt := range []string{createRowsTableStatement, createRunsTableStatement} {
		if err := conn.Exec(ctx, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	var count uint64
	row := conn.QueryRow(ctx, "SELECT count() FROM encoded_runs WHERE Dataset = ?", dataset)
	if err := row.Scan(&count); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to check for existing dataset: %w", err)
	}
	if count > 0 {
		if !force {
			conn.Close()
			return nil, fmt.Errorf("%w: dataset '%s'", model.ErrOutputExists, dataset)
		}
		for _, table := range []string{"encoded_flows", "encoded_runs"} {
			stmt := fmt.Sprintf("ALTER TABLE %s DELETE WHERE Dataset = ?", table)
			if err := conn.Exec(ctx, stmt, dataset); err != nil {
				conn.Close()
				return nil, fmt.Errorf("failed to drop existing dataset: %w", err)
			}
		}
	}

	return &ClickHouseSink{conn: conn, dataset: dataset}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// Begin records the run header for the completion row.
func (s *ClickHouseSink) Begin(hdr *model.SinkHeader) error {
	data, err := json.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("failed to marshal run header: %w", err)
	}
	s.header = string(data)
	return nil
}

// Append batch-inserts the rows of one encoded chunk.
func (s *ClickHouseSink) Append(ctx context.Context, chunk *model.EncodedChunk) error {
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO encoded_flows")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for i, row := range chunk.Rows {
		if err := batch.Append(s.dataset, uint32(chunk.Index), uint32(i), row); err != nil {
			return fmt.Errorf("failed to append row to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch for chunk %d: %w", chunk.Index, err)
	}
	return nil
}

// Close writes the completion row and disconnects.
func (s *ClickHouseSink) Close(meta *model.RunMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal run metadata: %w", err)
	}

	ctx := context.Background()
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO encoded_runs")
	if err != nil {
		return fmt.Errorf("failed to prepare run batch: %w", err)
	}
	encoderName := ""
	if meta.Encoding != nil {
		encoderName = meta.Encoding.Encoder
	}
	if err := batch.Append(s.dataset, encoderName, s.header, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to append run row: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to write completion row: %w", err)
	}
	return s.conn.Close()
}

// Abort disconnects without writing the completion row.
func (s *ClickHouseSink) Abort() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}
