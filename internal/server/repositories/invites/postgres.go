// Package invites stores group invites in PostgreSQL.
package invites

import (
	"context"

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

func (r *PostgresRepository) Upsert(ctx context.Context, invite *models.Invite) (*models.Invite, error) {
	query :=
		`INSERT INTO invites (inviter_id, invitee_id, group_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (invitee_id, group_id) DO UPDATE
		   SET inviter_id = EXCLUDED.inviter_id, created_at = EXCLUDED.created_at
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		invite.InviterID, invite.InviteeID, invite.GroupID, invite.CreatedAt).Scan(&invite.ID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Error(err)
	}
	return invite, nil
}

func (r *PostgresRepository) ListFor(ctx context.Context, inviteeID string) ([]*models.Invite, error) {
	query :=
		`SELECT i.id, i.inviter_id, a.username, i.invitee_id, i.group_id, g.name, i.created_at
		 FROM invites i
		 JOIN accounts a ON a.id = i.inviter_id
		 JOIN groups g ON g.id = i.group_id
		 WHERE i.invitee_id = $1
		 ORDER BY i.id
		 `

	rows, err := r.db.QueryContext(ctx, query, inviteeID)
	if err != nil {
		return nil, dbx.Error(err)
	}
	defer rows.Close()

	var result []*models.Invite
	for rows.Next() {
		i := &models.Invite{}
		if err := rows.Scan(&i.ID, &i.InviterID, &i.InviterName, &i.InviteeID, &i.GroupID, &i.GroupName, &i.CreatedAt); err != nil {
			return nil, dbx.Error(err)
		}
		result = append(result, i)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Error(err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64, inviteeID string) error {
	query :=
		`DELETE FROM invites
		 WHERE id = $1 AND invitee_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, id, inviteeID)
	if err != nil {
		return dbx.Error(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.Error(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteFor(ctx context.Context, inviteeID, groupID string) error {
	query :=
		`DELETE FROM invites
		 WHERE invitee_id = $1 AND group_id = $2
		 `

	if _, err := r.db.ExecContext(ctx, query, inviteeID, groupID); err != nil {
		return dbx.Error(err)
	}
	return nil
}
