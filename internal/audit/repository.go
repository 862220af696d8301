package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Filter controls which findings to return.
type Filter struct {
	EventType   string   // optional: exact event type
	MinSeverity Severity // optional: only findings at or above this level
	SessionID   string   // optional: findings raised within one session
	Limit       int      // default 50, max 200
	Offset      int      // pagination offset
}

// ListResult contains paginated findings.
type ListResult struct {
	Findings []Finding `json:"findings"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// Repository defines the interface for finding persistence.
type Repository interface {
	Create(ctx context.Context, f *Finding) error
	GetByID(ctx context.Context, id string) (*Finding, error)
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores findings in the compliance_findings table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new findings repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ReportFinding implements FindingSink.
func (r *SQLiteRepository) ReportFinding(ctx context.Context, f *Finding) error {
	return r.Create(ctx, f)
}

// Create inserts a finding. The ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, f *Finding) error {
	if f.ID == "" {
		f.ID = "fnd-" + uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	typesJSON, err := json.Marshal(f.Types)
	if err != nil {
		return fmt.Errorf("marshalling finding types: %w", err)
	}

	var contextJSON *string
	if f.Context != nil {
		b, err := json.Marshal(f.Context)
		if err != nil {
			return fmt.Errorf("marshalling finding context: %w", err)
		}
		s := string(b)
		contextJSON = &s
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO compliance_findings
		 (id, event_type, category, title, description, severity, normalized_severity,
		  types, remediation, compliance_status, session_id, context, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.EventType, nullableString(f.Category), f.Title, f.Description,
		string(f.Severity), f.NormalizedSeverity,
		string(typesJSON), f.Remediation, f.ComplianceStatus,
		nullableString(f.SessionID), contextJSON,
		f.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting finding: %w", err)
	}

	return nil
}

// timeLayout has a fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// nullableString returns nil for empty strings so nullable TEXT columns stay NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

const findingColumns = `id, event_type, category, title, description, severity, normalized_severity,
	types, remediation, compliance_status, session_id, context, created_at`

// GetByID returns a single finding.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Finding, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+findingColumns+" FROM compliance_findings WHERE id = ?", id)

	f, err := scanFinding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFindingNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// List returns findings matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 { //nolint:mnd // max page size for findings queries
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.EventType != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, filter.EventType)
	}
	if filter.MinSeverity != "" {
		conditions = append(conditions, "normalized_severity >= ?")
		args = append(args, filter.MinSeverity.Normalized())
	}
	if filter.SessionID != "" {
		conditions = append(conditions, "session_id = ?")
		args = append(args, filter.SessionID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM compliance_findings " + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting findings: %w", err)
	}

	query := "SELECT " + findingColumns + " FROM compliance_findings " + where +
		" ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	findings := []Finding{}
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		findings = append(findings, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating findings: %w", err)
	}

	return &ListResult{
		Findings: findings,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFinding(row rowScanner) (*Finding, error) {
	var f Finding
	var severity, typesJSON, createdAt string
	var category, sessionID, contextJSON sql.NullString

	if err := row.Scan(&f.ID, &f.EventType, &category, &f.Title, &f.Description,
		&severity, &f.NormalizedSeverity, &typesJSON, &f.Remediation,
		&f.ComplianceStatus, &sessionID, &contextJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning finding: %w", err)
	}

	f.Severity = Severity(severity)
	f.Category = category.String
	f.SessionID = sessionID.String
	f.RelatedRequirements = append([]string(nil), relatedRequirements...)

	if err := json.Unmarshal([]byte(typesJSON), &f.Types); err != nil {
		return nil, fmt.Errorf("decoding finding types: %w", err)
	}
	if contextJSON.Valid && contextJSON.String != "" {
		var ctxMap map[string]any
		if json.Unmarshal([]byte(contextJSON.String), &ctxMap) == nil {
			f.Context = ctxMap
		}
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing finding timestamp %q: %w", createdAt, err)
	}
	f.CreatedAt = t

	return &f, nil
}
