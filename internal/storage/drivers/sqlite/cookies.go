package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

type cookiesRepo struct {
	db DBTX
}

func (r *cookiesRepo) Replace(ctx context.Context, cookies []apiclient.StoredCookie) error {
	if err := r.Clear(ctx); err != nil {
		return err
	}

	for _, c := range cookies {
		var expires sql.NullTime
		if !c.Expires.IsZero() {
			expires = sql.NullTime{Time: c.Expires.UTC(), Valid: true}
		}

		_, err := r.db.ExecContext(ctx, `
			INSERT INTO cookies (name, value, path, expires, secure, http_only)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.Name, c.Value, c.Path, expires, c.Secure, c.HttpOnly)
		if err != nil {
			return fmt.Errorf("failed to store cookie %s: %w", c.Name, err)
		}
	}
	return nil
}

func (r *cookiesRepo) List(ctx context.Context) ([]apiclient.StoredCookie, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, value, path, expires, secure, http_only
		FROM cookies ORDER BY name, path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cookies: %w", err)
	}
	defer rows.Close()

	var out []apiclient.StoredCookie
	for rows.Next() {
		var (
			c       apiclient.StoredCookie
			expires sql.NullTime
		)
		if err := rows.Scan(&c.Name, &c.Value, &c.Path, &expires, &c.Secure, &c.HttpOnly); err != nil {
			return nil, fmt.Errorf("failed to scan cookie row: %w", err)
		}
		if expires.Valid {
			c.Expires = expires.Time
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cookie rows: %w", err)
	}
	return out, nil
}

func (r *cookiesRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	return nil
}
