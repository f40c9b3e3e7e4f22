package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/safecircle/internal/dbx"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/groups"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/invites"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/members"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/messages"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/sos"
)

// RepositoryManager vends repositories bound to either a *sql.DB or a
// transaction, so services can compose several of them atomically.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Groups(db dbx.DBTX) groups.Repository
	Members(db dbx.DBTX) members.Repository
	Messages(db dbx.DBTX) messages.Repository
	Sos(db dbx.DBTX) sos.Repository
	Invites(db dbx.DBTX) invites.Repository
}
