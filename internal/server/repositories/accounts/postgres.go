// Package accounts stores registered accounts in PostgreSQL.
package accounts

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

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (username, password_hash, created_at)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.UserName, account.PasswordHash, account.CreatedAt).Scan(&account.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return nil, common.ErrAlreadyExists
		}
		return nil, dbx.Error(err)
	}

	return account, nil
}

const selectAccount = `SELECT id, username, password_hash, lat, lon, last_seen,
		 COALESCE(session_id, ''), COALESCE(device_id, ''), created_at
		 FROM accounts
		 `

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	a := &models.Account{}
	var lastSeen sql.NullTime
	err := row.Scan(&a.ID, &a.UserName, &a.PasswordHash, &a.Lat, &a.Lon, &lastSeen,
		&a.SessionID, &a.DeviceID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		a.LastSeen = &t
	}
	return a, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, selectAccount+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Error(err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*models.Account, error) {
	return r.getOne(ctx, "WHERE username = $1", userName)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, "WHERE id = $1", id)
}

func (r *PostgresRepository) OpenSession(ctx context.Context, id, sessionID, deviceID string, exclusive bool, now time.Time) (bool, error) {
	query :=
		`UPDATE accounts SET session_id = $2, device_id = $3, last_seen = $5
		 WHERE id = $1 AND (NOT $4 OR session_id IS NULL OR device_id = $3)
		 `

	res, err := r.db.ExecContext(ctx, query, id, sessionID, deviceID, exclusive, now)
	if err != nil {
		return false, dbx.Error(err)
	}
	return affected(res)
}

func (r *PostgresRepository) CloseSession(ctx context.Context, id, sessionID string) (bool, error) {
	query :=
		`UPDATE accounts SET session_id = NULL, device_id = NULL
		 WHERE id = $1 AND session_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, id, sessionID)
	if err != nil {
		return false, dbx.Error(err)
	}
	return affected(res)
}

func (r *PostgresRepository) Touch(ctx context.Context, id, sessionID, deviceID string, checkDevice bool, now time.Time) (*models.Account, error) {
	query :=
		`UPDATE accounts SET last_seen = $5
		 WHERE id = $1 AND session_id = $2 AND (NOT $4 OR device_id = $3)
		 RETURNING id, username, session_id, COALESCE(device_id, '')
		 `

	a := &models.Account{LastSeen: &now}
	err := r.db.QueryRowContext(ctx, query, id, sessionID, deviceID, checkDevice, now).
		Scan(&a.ID, &a.UserName, &a.SessionID, &a.DeviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Error(err)
	}
	return a, nil
}

func (r *PostgresRepository) UpdatePosition(ctx context.Context, id string, lat, lon float64, now time.Time) error {
	query :=
		`UPDATE accounts SET lat = $2, lon = $3, last_seen = $4
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, lat, lon, now)
	if err != nil {
		return dbx.Error(err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListActiveSince(ctx context.Context, requesterID string, since time.Time) ([]*models.Account, error) {
	query := selectAccount +
		`WHERE last_seen >= $2 AND session_id IS NOT NULL AND id <> $1
		 AND NOT EXISTS (
		   SELECT 1 FROM account_ignores i WHERE i.account_id = $1 AND i.ignored_id = accounts.id
		 )
		 `

	rows, err := r.db.QueryContext(ctx, query, requesterID, since)
	if err != nil {
		return nil, dbx.Error(err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, dbx.Error(err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Error(err)
	}
	return result, nil
}

func (r *PostgresRepository) Ignore(ctx context.Context, id, ignoredID string, now time.Time) error {
	query :=
		`INSERT INTO account_ignores (account_id, ignored_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, id, ignoredID, now); err != nil {
		return dbx.Error(err)
	}
	return nil
}

func (r *PostgresRepository) Unignore(ctx context.Context, id, ignoredID string) error {
	query :=
		`DELETE FROM account_ignores
		 WHERE account_id = $1 AND ignored_id = $2
		 `

	if _, err := r.db.ExecContext(ctx, query, id, ignoredID); err != nil {
		return dbx.Error(err)
	}
	return nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, dbx.Error(err)
	}
	return n > 0, nil
}
