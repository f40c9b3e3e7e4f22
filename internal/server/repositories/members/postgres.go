// Package members stores group memberships in PostgreSQL. The primary key on
// group_members.account_id enforces one group per account.
package members

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/dmitrijs2005/safecircle/internal/dbx"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, accountID string) (*models.Membership, error) {
	query :=
		`SELECT account_id, group_id, joined_cursor, joined_at FROM group_members
		 WHERE account_id = $1
		 `

	m := &models.Membership{}
	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&m.AccountID, &m.GroupID, &m.JoinedCursor, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Error(err)
	}
	return m, nil
}

func (r *PostgresRepository) Join(ctx context.Context, accountID, groupID string, now time.Time) (*models.Membership, error) {
	query :=
		`INSERT INTO group_members (account_id, group_id, joined_cursor, joined_at)
		 VALUES ($1, $2, (SELECT COALESCE(MAX(id), 0) FROM messages WHERE group_id = $2), $3)
		 ON CONFLICT (account_id) DO UPDATE
		   SET group_id = EXCLUDED.group_id, joined_cursor = EXCLUDED.joined_cursor, joined_at = EXCLUDED.joined_at
		   WHERE group_members.group_id <> EXCLUDED.group_id
		 RETURNING account_id, group_id, joined_cursor, joined_at
		 `

	m := &models.Membership{}
	err := r.db.QueryRowContext(ctx, query, accountID, groupID, now).
		Scan(&m.AccountID, &m.GroupID, &m.JoinedCursor, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// already a member of groupID
			return r.Get(ctx, accountID)
		}
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Error(err)
	}
	return m, nil
}

func (r *PostgresRepository) Leave(ctx context.Context, accountID, groupID string) (bool, error) {
	query :=
		`DELETE FROM group_members
		 WHERE account_id = $1 AND group_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, accountID, groupID)
	if err != nil {
		return false, dbx.Error(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dbx.Error(err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, groupID string) ([]*models.Member, error) {
	query :=
		`SELECT a.username, a.lat, a.lon, a.last_seen, m.joined_at
		 FROM group_members m
		 JOIN accounts a ON a.id = m.account_id
		 WHERE m.group_id = $1
		 ORDER BY m.joined_at, a.username
		 `

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, dbx.Error(err)
	}
	defer rows.Close()

	var result []*models.Member
	for rows.Next() {
		m := &models.Member{}
		var lastSeen sql.NullTime
		if err := rows.Scan(&m.UserName, &m.Lat, &m.Lon, &lastSeen, &m.JoinedAt); err != nil {
			return nil, dbx.Error(err)
		}
		if lastSeen.Valid {
			t := lastSeen.Time
			m.LastSeen = &t
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Error(err)
	}
	return result, nil
}

func (r *PostgresRepository) Status(ctx context.Context, accountID string) (models.GroupStatus, error) {
	query :=
		`SELECT m.group_id, g.name, g.is_public, m.joined_cursor
		 FROM group_members m
		 JOIN groups g ON g.id = m.group_id
		 WHERE m.account_id = $1
		 `

	var s models.GroupStatus
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&s.GroupID, &s.Name, &s.IsPublic, &s.JoinedCursor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.GroupStatus{}, nil
		}
		return models.GroupStatus{}, dbx.Error(err)
	}
	return s, nil
}
