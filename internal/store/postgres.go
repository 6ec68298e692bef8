package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT collection, id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1
		ORDER BY created_at ASC, id ASC
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// GetOrdered lists a collection sorted by one top-level field. Documents
// lacking the field are excluded, matching document-database semantics.
func (s *PostgresStore) GetOrdered(ctx context.Context, collection, field string, direction Direction) ([]Document, error) {
	if !fieldPattern.MatchString(field) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	var order string
	switch direction {
	case Ascending:
		order = "ASC"
	case Descending:
		order = "DESC"
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}
	query := fmt.Sprintf(`
		SELECT collection, id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND data ? $2
		ORDER BY data->>$2 %s, created_at ASC
	`, order)
	rows, err := s.db.QueryContext(ctx, query, collection, field)
	if err != nil {
		return nil, fmt.Errorf("list %s ordered by %s: %w", collection, field, err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// Create inserts a new document under a store-assigned id.
func (s *PostgresStore) Create(ctx context.Context, collection string, data any) (string, error) {
	id := uuid.NewString()
	payload, err := encodeData(data, id)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
	`, collection, id, payload)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	return id, nil
}

// Replace writes the full document, creating it when absent.
func (s *PostgresStore) Replace(ctx context.Context, collection, id string, data any) error {
	payload, err := encodeData(data, id)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, collection, id, payload)
	if err != nil {
		return fmt.Errorf("replace %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update merges top-level fields into an existing document.
func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, collection, id, string(payload))
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s/%s rows: %w", collection, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrDocumentNotFound)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) GetAdminByEmail(ctx context.Context, email string) (Admin, error) {
	var admin Admin
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, role, created_at, updated_at
		FROM admins
		WHERE LOWER(email) = LOWER($1)
	`, strings.TrimSpace(email)).Scan(&admin.ID, &admin.Email, &admin.DisplayName, &admin.PasswordHash, &admin.Role, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return Admin{}, err
	}
	return admin, nil
}

func (s *PostgresStore) GetAdminByID(ctx context.Context, id string) (Admin, error) {
	var admin Admin
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, role, created_at, updated_at
		FROM admins
		WHERE id = $1
	`, id).Scan(&admin.ID, &admin.Email, &admin.DisplayName, &admin.PasswordHash, &admin.Role, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return Admin{}, err
	}
	return admin, nil
}

// UpsertAdmin creates the admin or replaces the password hash of an existing one.
func (s *PostgresStore) UpsertAdmin(ctx context.Context, admin Admin) (Admin, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO admins (id, email, display_name, password_hash, role)
		VALUES ($1, LOWER($2), $3, $4, $5)
		ON CONFLICT (email) DO UPDATE
			SET password_hash = EXCLUDED.password_hash,
				display_name = EXCLUDED.display_name,
				role = EXCLUDED.role,
				updated_at = NOW()
		RETURNING id, email, display_name, password_hash, role, created_at, updated_at
	`, admin.ID, strings.TrimSpace(admin.Email), admin.DisplayName, admin.PasswordHash, admin.Role).Scan(
		&admin.ID, &admin.Email, &admin.DisplayName, &admin.PasswordHash, &admin.Role, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return Admin{}, fmt.Errorf("upsert admin: %w", err)
	}
	return admin, nil
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, adminID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, admin_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET admin_id=EXCLUDED.admin_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, adminID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (string, error) {
	var adminID string
	err := s.db.QueryRowContext(ctx, `
		SELECT admin_id
		FROM refresh_sessions
		WHERE token_hash = $1
			AND revoked_at IS NULL
			AND expires_at > NOW()
	`, tokenHash).Scan(&adminID)
	if err != nil {
		return "", err
	}
	return adminID, nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	items := make([]Document, 0)
	for rows.Next() {
		var doc Document
		var data []byte
		if err := rows.Scan(&doc.Collection, &doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.Data = json.RawMessage(data)
		items = append(items, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return items, nil
}

// encodeData marshals data to a JSON object and stamps the document id into it.
func encodeData(data any, id string) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("document must be a JSON object: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["id"] = id
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(payload), nil
}
