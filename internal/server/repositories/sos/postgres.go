// Package sos stores emergency alerts in PostgreSQL.
package sos

import (
	"context"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/dbx"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, alert *models.SosAlert) (*models.SosAlert, error) {
	query :=
		`INSERT INTO sos_alerts (sender_id, lat, lon, comment, photo_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		alert.SenderID, alert.Lat, alert.Lon, alert.Comment, dbx.NullString(alert.PhotoKey), alert.CreatedAt).
		Scan(&alert.ID)
	if err != nil {
		return nil, dbx.Error(err)
	}
	return alert, nil
}

func (r *PostgresRepository) Since(ctx context.Context, after time.Time, limit int) ([]*models.SosAlert, error) {
	query :=
		`SELECT s.id, s.sender_id, a.username, s.lat, s.lon, s.comment, COALESCE(s.photo_key, ''), s.created_at
		 FROM sos_alerts s
		 JOIN accounts a ON a.id = s.sender_id
		 WHERE s.created_at > $1
		 ORDER BY s.created_at, s.id
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, after, limit)
	if err != nil {
		return nil, dbx.Error(err)
	}
	defer rows.Close()

	var result []*models.SosAlert
	for rows.Next() {
		s := &models.SosAlert{}
		if err := rows.Scan(&s.ID, &s.SenderID, &s.SenderName, &s.Lat, &s.Lon, &s.Comment, &s.PhotoKey, &s.CreatedAt); err != nil {
			return nil, dbx.Error(err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Error(err)
	}
	return result, nil
}
