package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/dmitrijs2005/safecircle/internal/geo"
	"github.com/dmitrijs2005/safecircle/internal/server/config"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/repomanager"
)

// PresenceService answers who is around: accounts seen within the
// staleness window and located within a radius of the requester.
type PresenceService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	staleness     time.Duration
	defaultRadius float64
	now           func() time.Time
}

func NewPresenceService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *PresenceService {
	return &PresenceService{
		db:            db,
		repomanager:   m,
		staleness:     cfg.PresenceStaleness,
		defaultRadius: cfg.NearbyRadiusKm,
		now:           utcNow,
	}
}

// UpdatePosition records the account's position and marks it as seen.
func (s *PresenceService) UpdatePosition(ctx context.Context, accountID string, lat, lon float64) error {
	return s.repomanager.Accounts(s.db).UpdatePosition(ctx, accountID, lat, lon, s.now())
}

// NearbyPeers lists visible accounts within radiusKm of the requester,
// nearest first. A non-positive radius means the configured default.
func (s *PresenceService) NearbyPeers(ctx context.Context, accountID string, radiusKm float64) ([]*models.PeerView, error) {
	if radiusKm <= 0 {
		radiusKm = s.defaultRadius
	}

	repo := s.repomanager.Accounts(s.db)

	me, err := repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	candidates, err := repo.ListActiveSince(ctx, accountID, s.now().Add(-s.staleness))
	if err != nil {
		return nil, err
	}

	origin := geo.Point{Lat: me.Lat, Lon: me.Lon}
	peers := make([]*models.PeerView, 0, len(candidates))
	for _, c := range candidates {
		if c.LastSeen == nil {
			continue
		}
		d := geo.DistanceKm(origin, geo.Point{Lat: c.Lat, Lon: c.Lon})
		if d > radiusKm {
			continue
		}
		peers = append(peers, &models.PeerView{
			UserName:   c.UserName,
			Lat:        c.Lat,
			Lon:        c.Lon,
			LastSeen:   *c.LastSeen,
			DistanceKm: d,
		})
	}

	sort.SliceStable(peers, func(i, j int) bool {
		if peers[i].DistanceKm != peers[j].DistanceKm {
			return peers[i].DistanceKm < peers[j].DistanceKm
		}
		return peers[i].UserName < peers[j].UserName
	})

	return peers, nil
}

// Ignore hides targetName from the account's peer lists. Idempotent.
func (s *PresenceService) Ignore(ctx context.Context, accountID, targetName string) error {
	target, err := s.resolveOther(ctx, accountID, targetName)
	if err != nil {
		return err
	}
	return s.repomanager.Accounts(s.db).Ignore(ctx, accountID, target.ID, s.now())
}

// Unignore reverses Ignore. Idempotent.
func (s *PresenceService) Unignore(ctx context.Context, accountID, targetName string) error {
	target, err := s.resolveOther(ctx, accountID, targetName)
	if err != nil {
		return err
	}
	return s.repomanager.Accounts(s.db).Unignore(ctx, accountID, target.ID)
}

func (s *PresenceService) resolveOther(ctx context.Context, accountID, userName string) (*models.Account, error) {
	target, err := s.repomanager.Accounts(s.db).GetByUserName(ctx, userName)
	if err != nil {
		return nil, err
	}
	if target.ID == accountID {
		return nil, fmt.Errorf("%w: cannot target yourself", common.ErrInvalidArgument)
	}
	return target, nil
}
