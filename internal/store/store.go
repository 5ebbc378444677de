package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/goliatone/go-reportgen/pkg/catalog"
	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/validation"
)

// ErrReportNotFound is returned when no values are stored for a report id.
var ErrReportNotFound = errors.New("store: report not found")

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	id         TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS report_values (
	report_id  TEXT PRIMARY KEY,
	page_id    TEXT NOT NULL,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_report_values_page_id ON report_values (page_id);
`

// Report is one stored value set.
type Report struct {
	ID        uuid.UUID    `json:"id"`
	PageID    string       `json:"pageId"`
	Values    model.Values `json:"values"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store persists template records and report values in SQLite.
type Store struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path.
func Open(path string, options ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s, err := New(db, options...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection and creates the tables.
func New(db *sql.DB, options ...Option) (*Store, error) {
	s := &Store{db: db, now: time.Now, logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTemplate validates and upserts a template record.
func (s *Store) SaveTemplate(ctx context.Context, record model.TemplateRecord) error {
	if err := validation.ValidateTemplate(record); err != nil {
		return err
	}
	if record.Complexity == "" {
		record.Complexity = model.ComplexityFor(len(record.Fields))
	}
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("store: encode template %s: %w", record.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (id, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		record.ID, string(doc), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store: save template %s: %w", record.ID, err)
	}
	s.logger.Debug("template saved", zap.String("id", record.ID))
	return nil
}

// Template loads a record. Missing ids wrap catalog.ErrNotFound so the store
// can sit in a template source chain.
func (s *Store) Template(ctx context.Context, id string) (*model.TemplateRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM templates WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load template %s: %w", id, err)
	}

	var record model.TemplateRecord
	if err := json.Unmarshal([]byte(doc), &record); err != nil {
		return nil, fmt.Errorf("store: decode template %s: %w", id, err)
	}
	return &record, nil
}

// Templates lists every stored record ordered by id.
func (s *Store) Templates(ctx context.Context) ([]model.TemplateRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, document FROM templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list templates: %w", err)
	}
	defer rows.Close()

	var out []model.TemplateRecord
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("store: scan template: %w", err)
		}
		var record model.TemplateRecord
		if err := json.Unmarshal([]byte(doc), &record); err != nil {
			return nil, fmt.Errorf("store: decode template %s: %w", id, err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list templates: %w", err)
	}
	return out, nil
}

// DeleteTemplate removes a stored record. Deleting a missing id is not an
// error.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete template %s: %w", id, err)
	}
	return nil
}

// CreateReport stores values under a fresh report id.
func (s *Store) CreateReport(ctx context.Context, pageID string, values model.Values) (uuid.UUID, error) {
	id := uuid.New()
	if err := s.SaveValues(ctx, id, pageID, values); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// SaveValues upserts the values of a report.
func (s *Store) SaveValues(ctx context.Context, reportID uuid.UUID, pageID string, values model.Values) error {
	if reportID == uuid.Nil {
		return errors.New("store: report id is required")
	}
	if values == nil {
		values = model.Values{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("store: encode values: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO report_values (report_id, page_id, payload, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(report_id) DO UPDATE SET page_id = excluded.page_id, payload = excluded.payload, updated_at = excluded.updated_at`,
		reportID.String(), pageID, string(payload), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store: save values %s: %w", reportID, err)
	}
	s.logger.Debug("values saved", zap.Stringer("report_id", reportID), zap.String("page_id", pageID), zap.Int("fields", len(values)))
	return nil
}

// Values loads a report.
func (s *Store) Values(ctx context.Context, reportID uuid.UUID) (Report, error) {
	var (
		pageID, payload string
		updated         time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT page_id, payload, updated_at FROM report_values WHERE report_id = ?`,
		reportID.String(),
	).Scan(&pageID, &payload, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, fmt.Errorf("%w: %s", ErrReportNotFound, reportID)
	}
	if err != nil {
		return Report{}, fmt.Errorf("store: load values %s: %w", reportID, err)
	}

	report := Report{ID: reportID, PageID: pageID, UpdatedAt: updated}
	if err := json.Unmarshal([]byte(payload), &report.Values); err != nil {
		return Report{}, fmt.Errorf("store: decode values %s: %w", reportID, err)
	}
	return report, nil
}

// DeleteValues removes a report. Missing ids return ErrReportNotFound.
func (s *Store) DeleteValues(ctx context.Context, reportID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM report_values WHERE report_id = ?`, reportID.String())
	if err != nil {
		return fmt.Errorf("store: delete values %s: %w", reportID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrReportNotFound, reportID)
	}
	return nil
}
