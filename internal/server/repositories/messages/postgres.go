// Package messages stores group and private messages in PostgreSQL.
package messages

import (
	"context"
	"database/sql"
	"errors"

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

func (r *PostgresRepository) CreateGroupMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query :=
		`INSERT INTO messages (sender_id, group_id, text, audio_key, photo_key, created_at)
		 SELECT $1, $2, $3, $4, $5, $6
		 WHERE EXISTS (SELECT 1 FROM group_members WHERE account_id = $1 AND group_id = $2)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		msg.SenderID, msg.GroupID, msg.Text, dbx.NullString(msg.AudioKey), dbx.NullString(msg.PhotoKey), msg.CreatedAt).
		Scan(&msg.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotMember
		}
		return nil, dbx.Error(err)
	}
	return msg, nil
}

func (r *PostgresRepository) CreatePrivateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query :=
		`INSERT INTO messages (sender_id, receiver_id, text, audio_key, photo_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		msg.SenderID, msg.ReceiverID, msg.Text, dbx.NullString(msg.AudioKey), dbx.NullString(msg.PhotoKey), msg.CreatedAt).
		Scan(&msg.ID)
	if err != nil {
		return nil, dbx.Error(err)
	}
	return msg, nil
}

func (r *PostgresRepository) GroupSince(ctx context.Context, accountID, groupID string, afterID int64, limit int) ([]*models.Message, error) {
	query :=
		`SELECT m.id, m.sender_id, s.username, m.group_id, '', m.text,
		        COALESCE(m.audio_key, ''), COALESCE(m.photo_key, ''), m.created_at
		 FROM messages m
		 JOIN group_members gm ON gm.group_id = m.group_id AND gm.account_id = $1
		 JOIN accounts s ON s.id = m.sender_id
		 WHERE m.group_id = $2 AND m.id > GREATEST($3, gm.joined_cursor)
		 ORDER BY m.id
		 LIMIT $4
		 `

	return r.list(ctx, query, accountID, groupID, afterID, limit)
}

func (r *PostgresRepository) PrivateSince(ctx context.Context, accountID string, afterID int64, limit int) ([]*models.Message, error) {
	query :=
		`SELECT m.id, m.sender_id, s.username, '', rc.username, m.text,
		        COALESCE(m.audio_key, ''), COALESCE(m.photo_key, ''), m.created_at
		 FROM messages m
		 JOIN accounts s ON s.id = m.sender_id
		 JOIN accounts rc ON rc.id = m.receiver_id
		 WHERE (m.sender_id = $1 OR m.receiver_id = $1) AND m.id > $2
		 ORDER BY m.id
		 LIMIT $3
		 `

	return r.list(ctx, query, accountID, afterID, limit)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.Error(err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.GroupID, &m.ReceiverName, &m.Text,
			&m.AudioKey, &m.PhotoKey, &m.CreatedAt); err != nil {
			return nil, dbx.Error(err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Error(err)
	}
	return result, nil
}
