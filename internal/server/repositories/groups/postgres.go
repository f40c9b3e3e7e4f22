// Package groups stores chat groups in PostgreSQL.
package groups

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/dmitrijs2005/safecircle/internal/dbx"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
)

// nameConstraint is the unique constraint on groups.name.
const nameConstraint = "groups_name_key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, group *models.Group) (*models.Group, error) {
	query :=
		`INSERT INTO groups (name, lat, lon, is_public, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		group.Name, group.Lat, group.Lon, group.IsPublic, group.OwnerID, group.CreatedAt).Scan(&group.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err, nameConstraint) {
			return nil, common.ErrNameConflict
		}
		return nil, dbx.Error(err)
	}

	return group, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	query :=
		`SELECT id, name, lat, lon, is_public, owner_id, created_at FROM groups
		 WHERE id = $1
		 `

	g := &models.Group{}
	var lat, lon sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&g.ID, &g.Name, &lat, &lon, &g.IsPublic, &g.OwnerID, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Error(err)
	}
	if lat.Valid && lon.Valid {
		g.Lat, g.Lon = &lat.Float64, &lon.Float64
	}

	return g, nil
}

func (r *PostgresRepository) DeleteIfEmpty(ctx context.Context, id string, createdBefore time.Time) (bool, error) {
	query :=
		`DELETE FROM groups g
		 WHERE g.id = $1 AND g.created_at <= $2
		 AND NOT EXISTS (SELECT 1 FROM group_members m WHERE m.group_id = g.id)
		 `

	res, err := r.db.ExecContext(ctx, query, id, createdBefore)
	if err != nil {
		return false, dbx.Error(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dbx.Error(err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) DeleteEmpty(ctx context.Context, createdBefore time.Time) ([]string, error) {
	query :=
		`DELETE FROM groups g
		 WHERE g.created_at <= $1
		 AND NOT EXISTS (SELECT 1 FROM group_members m WHERE m.group_id = g.id)
		 RETURNING g.id
		 `

	rows, err := r.db.QueryContext(ctx, query, createdBefore)
	if err != nil {
		return nil, dbx.Error(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dbx.Error(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Error(err)
	}
	return ids, nil
}

func (r *PostgresRepository) ListPublicAnchored(ctx context.Context) ([]*models.GroupSummary, error) {
	query :=
		`SELECT g.id, g.name, g.lat, g.lon, g.created_at, COUNT(m.account_id)
		 FROM groups g
		 LEFT JOIN group_members m ON m.group_id = g.id
		 WHERE g.is_public AND g.lat IS NOT NULL AND g.lon IS NOT NULL
		 GROUP BY g.id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbx.Error(err)
	}
	defer rows.Close()

	var result []*models.GroupSummary
	for rows.Next() {
		s := &models.GroupSummary{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lon, &s.CreatedAt, &s.MemberCount); err != nil {
			return nil, dbx.Error(err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Error(err)
	}
	return result, nil
}
