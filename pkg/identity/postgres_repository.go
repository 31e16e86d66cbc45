package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PostgresIdentityRepository implements IdentityStore using PostgreSQL
type PostgresIdentityRepository struct {
	db DBTX
}

// NewPostgresIdentityRepository creates a new PostgreSQL identity repository
func NewPostgresIdentityRepository(db DBTX) *PostgresIdentityRepository {
	return &PostgresIdentityRepository{db: db}
}

// FindIdentityByUsername resolves a username within a realm
func (r *PostgresIdentityRepository) FindIdentityByUsername(ctx context.Context, realm, username string) (PrincipalRef, error) {
	query := `
		SELECT id, realm, username
		FROM identities
		WHERE realm = $1 AND username = $2 AND deleted_at IS NULL
	`

	var principal PrincipalRef
	err := r.db.QueryRow(ctx, query, NormalizeRealm(realm), username).Scan(
		&principal.ID,
		&principal.Realm,
		&principal.Username,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			slog.Debug("Identity not found", "realm", realm, "username", username)
			return PrincipalRef{}, ErrIdentityNotFound
		}
		return PrincipalRef{}, fmt.Errorf("failed to find identity: %w", err)
	}
	return principal, nil
}

// GetAttributes fetches every requested attribute with one query
func (r *PostgresIdentityRepository) GetAttributes(ctx context.Context, principal PrincipalRef, names []string) (AttributeValues, error) {
	query := `
		SELECT name, value
		FROM identity_attributes
		WHERE identity_id = $1 AND name = ANY($2)
		ORDER BY name, value
	`

	rows, err := r.db.Query(ctx, query, principal.ID, names)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributes: %w", err)
	}
	defer rows.Close()

	raw := make(map[string][]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		raw[name] = append(raw[name], value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attributes: %w", err)
	}

	return NewAttributeValues(raw), nil
}

// SaveIdentity upserts an identity by realm and username and replaces its attributes
func (r *PostgresIdentityRepository) SaveIdentity(ctx context.Context, identity Identity) (Identity, error) {
	identity = prepareIdentity(identity)

	upsert := `
		INSERT INTO identities (id, realm, username, created_at, last_modified_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (realm, username) DO UPDATE
		SET last_modified_at = EXCLUDED.last_modified_at, deleted_at = NULL
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, upsert, identity.ID, identity.Realm, identity.Username, identity.CreatedAt, identity.LastModifiedAt).
		Scan(&identity.ID, &identity.CreatedAt)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to save identity: %w", err)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM identity_attributes WHERE identity_id = $1`, identity.ID); err != nil {
		return Identity{}, fmt.Errorf("failed to clear attributes: %w", err)
	}

	var names, values []string
	for name, vals := range identity.Attributes {
		for _, v := range vals {
			names = append(names, name)
			values = append(values, v)
		}
	}
	if len(names) == 0 {
		return identity, nil
	}

	insert := `
		INSERT INTO identity_attributes (identity_id, name, value)
		SELECT $1, n, v FROM unnest($2::text[], $3::text[]) AS t(n, v)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.Exec(ctx, insert, identity.ID, names, values); err != nil {
		return Identity{}, fmt.Errorf("failed to save attributes: %w", err)
	}

	return identity, nil
}
