package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/richd0tcom/powrmet/internal/domain"
)

const sampleColumns = `"deviceId", "timestamp_mcu", "voltage", "current", "power", "energy", "rssi", "timestamp_server"`

// PostgresSampleStore appends samples to a table keyed by a BIGSERIAL id.
// Readings are stored as JSONB so that whatever the device sent survives.
type PostgresSampleStore struct {
	db    *sql.DB
	table string
}

func NewPostgresConnection(connString string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return db, nil
}

func NewPostgresSampleStore(db *sql.DB, table string) *PostgresSampleStore {
	if table == "" {
		table = DefaultCollection
	}
	return &PostgresSampleStore{db: db, table: pq.QuoteIdentifier(table)}
}

// EnsureSchema creates the table and the timestamp_server index if missing.
func (p *PostgresSampleStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id BIGSERIAL PRIMARY KEY, "deviceId" TEXT NOT NULL, "timestamp_mcu" JSONB, "voltage" JSONB, "current" JSONB, "power" JSONB, "energy" JSONB, "rssi" JSONB, "timestamp_server" TEXT NOT NULL)`, p.table)
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s ("timestamp_server")`,
		pq.QuoteIdentifier(strings.Trim(p.table, `"`)+"_ts_idx"), p.table)
	if _, err := p.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (p *PostgresSampleStore) Append(ctx context.Context, s domain.Sample) (string, error) {
	args, err := sampleArgs(s)
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id", p.table, sampleColumns)

	var id int64
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func (p *PostgresSampleStore) AppendBatch(ctx context.Context, samples []domain.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(p.table)
	b.WriteString(" (")
	b.WriteString(sampleColumns)
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(samples)*8)
	for i, s := range samples {
		if i > 0 {
			b.WriteString(",")
		}
		n := len(args)
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8))

		row, err := sampleArgs(s)
		if err != nil {
			return err
		}
		args = append(args, row...)
	}

	_, err := p.db.ExecContext(ctx, b.String(), args...)
	return err
}

func (p *PostgresSampleStore) RangeByTimestampServer(ctx context.Context, startInclusive string) ([]domain.Sample, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE "timestamp_server" >= $1 ORDER BY id`, sampleColumns, p.table)
	rows, err := p.db.QueryContext(ctx, query, startInclusive)
	if err != nil {
		return nil, err
	}
	return scanSamples(rows)
}

func (p *PostgresSampleStore) LastInserted(ctx context.Context, n int) ([]domain.Sample, error) {
	if n <= 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id DESC LIMIT $1`, sampleColumns, p.table)
	rows, err := p.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, err
	}
	return scanSamples(rows)
}

func (p *PostgresSampleStore) Close() error {
	return p.db.Close()
}

func sampleArgs(s domain.Sample) ([]any, error) {
	args := []any{s.DeviceID}
	for _, m := range []domain.Measure{s.TimestampDevice, s.Voltage, s.Current, s.Power, s.Energy, s.RSSI} {
		raw, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("marshal reading: %w", err)
		}
		args = append(args, string(raw))
	}
	return append(args, s.TimestampServer), nil
}

func scanSamples(rows *sql.Rows) ([]domain.Sample, error) {
	defer rows.Close()

	var out []domain.Sample
	for rows.Next() {
		var (
			s   domain.Sample
			raw [6][]byte
		)
		if err := rows.Scan(&s.DeviceID, &raw[0], &raw[1], &raw[2], &raw[3], &raw[4], &raw[5], &s.TimestampServer); err != nil {
			return nil, err
		}
		targets := []*domain.Measure{&s.TimestampDevice, &s.Voltage, &s.Current, &s.Power, &s.Energy, &s.RSSI}
		for i, b := range raw {
			if b == nil {
				continue
			}
			if err := json.Unmarshal(b, targets[i]); err != nil {
				return nil, fmt.Errorf("decode reading: %w", err)
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ domain.SampleStore = (*PostgresSampleStore)(nil)
