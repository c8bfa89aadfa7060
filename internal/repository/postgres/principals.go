package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/repository"
)

var principalColumns = []string{
	"u.id",
	"u.email",
	"u.display_name",
	"u.role",
	"u.phone",
	"u.is_active",
	"u.is_verified",
	"lp.id",
	"tp.id",
}

// PrincipalRepository implements port.PrincipalRepository over the dashboard's users table
// and its landlord/tenant profile tables.
type PrincipalRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPrincipalRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewPrincipalRepository(exec pgExecutor) *PrincipalRepository {
	return &PrincipalRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID resolves a principal by identifier.
func (r *PrincipalRepository) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, repository.ErrNotFound
	}

	stmt, args, err := r.selectPrincipal(principalColumns...).
		Where(squirrel.Eq{"u.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select principal sql: %w", err)
	}

	principal, _, err := scanPrincipal(r.exec.QueryRow(ctx, stmt, args...), false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("scan principal: %w", err)
	}

	return principal, nil
}

// GetCredentials resolves a principal and its password hash by email, case-insensitively.
func (r *PrincipalRepository) GetCredentials(ctx context.Context, email string) (*domain.PrincipalCredentials, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, repository.ErrNotFound
	}

	columns := append(append([]string{}, principalColumns...), "u.password_hash")
	stmt, args, err := r.selectPrincipal(columns...).
		Where(squirrel.Expr("lower(u.email) = ?", email)).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select credentials sql: %w", err)
	}

	principal, hash, err := scanPrincipal(r.exec.QueryRow(ctx, stmt, args...), true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("scan credentials: %w", err)
	}

	return &domain.PrincipalCredentials{Principal: *principal, PasswordHash: hash}, nil
}

func (r *PrincipalRepository) selectPrincipal(columns ...string) squirrel.SelectBuilder {
	return r.builder.
		Select(columns...).
		From("rentspot.users AS u").
		LeftJoin("rentspot.landlord_profiles AS lp ON lp.user_id = u.id").
		LeftJoin("rentspot.tenant_profiles AS tp ON tp.user_id = u.id")
}

func scanPrincipal(row pgx.Row, withHash bool) (*domain.Principal, string, error) {
	var (
		principal domain.Principal
		role      string
		phone     sql.NullString
		landlord  sql.NullString
		tenant    sql.NullString
		hash      sql.NullString
	)

	dest := []any{
		&principal.ID,
		&principal.Email,
		&principal.DisplayName,
		&role,
		&phone,
		&principal.IsActive,
		&principal.IsVerified,
		&landlord,
		&tenant,
	}
	if withHash {
		dest = append(dest, &hash)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", repository.ErrNotFound
		}
		return nil, "", err
	}

	principal.Role = domain.Role(strings.ToLower(role))
	principal.Phone = nullableString(phone)
	principal.LandlordProfileID = nullableString(landlord)
	principal.TenantProfileID = nullableString(tenant)

	return &principal, hash.String, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

var _ port.PrincipalRepository = (*PrincipalRepository)(nil)
