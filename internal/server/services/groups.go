package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/dmitrijs2005/safecircle/internal/dbx"
	"github.com/dmitrijs2005/safecircle/internal/geo"
	"github.com/dmitrijs2005/safecircle/internal/server/config"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/repomanager"
)

// GroupService manages groups and the one-group-per-account membership.
// An empty group is deleted once it is older than the grace period; the
// check runs whenever someone leaves it and on every Sweep.
type GroupService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	grace         time.Duration
	defaultRadius float64
	now           func() time.Time
}

func NewGroupService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *GroupService {
	return &GroupService{
		db:            db,
		repomanager:   m,
		grace:         cfg.GroupGracePeriod,
		defaultRadius: cfg.NearbyRadiusKm,
		now:           utcNow,
	}
}

// Create makes a new group owned by ownerID and moves the owner into it.
// A taken name yields common.ErrNameConflict and leaves the owner's
// previous membership untouched.
func (s *GroupService) Create(ctx context.Context, ownerID, name string, anchor *geo.Point, isPublic bool) (*models.Group, error) {
	now := s.now()
	group := &models.Group{Name: name, IsPublic: isPublic, OwnerID: ownerID, CreatedAt: now}
	if anchor != nil {
		lat, lon := anchor.Lat, anchor.Lon
		group.Lat, group.Lon = &lat, &lon
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		prev, err := s.currentMembership(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if _, err := s.repomanager.Groups(tx).Create(ctx, group); err != nil {
			return err
		}
		if _, err := s.repomanager.Members(tx).Join(ctx, ownerID, group.ID, now); err != nil {
			return err
		}
		return s.dropIfAbandoned(ctx, tx, prev, group.ID, now)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// Join moves accountID into groupID, leaving any previous group. The
// returned membership's cursor hides messages posted before the join.
// Joining the current group again changes nothing.
func (s *GroupService) Join(ctx context.Context, accountID, groupID string) (*models.Membership, error) {
	if !isGroupID(groupID) {
		return nil, common.ErrorNotFound
	}
	now := s.now()
	var membership *models.Membership

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Groups(tx).GetByID(ctx, groupID); err != nil {
			return err
		}
		prev, err := s.currentMembership(ctx, tx, accountID)
		if err != nil {
			return err
		}
		membership, err = s.repomanager.Members(tx).Join(ctx, accountID, groupID, now)
		if err != nil {
			return err
		}
		if err := s.repomanager.Invites(tx).DeleteFor(ctx, accountID, groupID); err != nil {
			return err
		}
		return s.dropIfAbandoned(ctx, tx, prev, groupID, now)
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// Leave removes accountID from groupID. Leaving a group one is not a member
// of succeeds; leaving a group that does not exist is common.ErrorNotFound.
func (s *GroupService) Leave(ctx context.Context, accountID, groupID string) error {
	if !isGroupID(groupID) {
		return common.ErrorNotFound
	}
	if _, err := s.repomanager.Groups(s.db).GetByID(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.repomanager.Members(s.db).Leave(ctx, accountID, groupID); err != nil {
		return err
	}
	_, err := s.repomanager.Groups(s.db).DeleteIfEmpty(ctx, groupID, s.now().Add(-s.grace))
	return err
}

// ListPublicNear lists public anchored groups within radiusKm of the point,
// nearest first. A non-positive radius means the configured default.
func (s *GroupService) ListPublicNear(ctx context.Context, lat, lon, radiusKm float64) ([]*models.GroupSummary, error) {
	if radiusKm <= 0 {
		radiusKm = s.defaultRadius
	}

	all, err := s.repomanager.Groups(s.db).ListPublicAnchored(ctx)
	if err != nil {
		return nil, err
	}

	origin := geo.Point{Lat: lat, Lon: lon}
	result := make([]*models.GroupSummary, 0, len(all))
	for _, g := range all {
		g.DistanceKm = geo.DistanceKm(origin, geo.Point{Lat: g.Lat, Lon: g.Lon})
		if g.DistanceKm <= radiusKm {
			result = append(result, g)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DistanceKm != result[j].DistanceKm {
			return result[i].DistanceKm < result[j].DistanceKm
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Members lists groupID's members as seen by accountID. Like group message
// reads, it is empty unless accountID belongs to the group.
func (s *GroupService) Members(ctx context.Context, accountID, groupID string) ([]*models.Member, error) {
	if !isGroupID(groupID) {
		return nil, nil
	}
	m, err := s.currentMembership(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.GroupID != groupID {
		return nil, nil
	}
	return s.repomanager.Members(s.db).ListMembers(ctx, groupID)
}

func (s *GroupService) Status(ctx context.Context, accountID string) (models.GroupStatus, error) {
	return s.repomanager.Members(s.db).Status(ctx, accountID)
}

// Sweep deletes every empty group past its grace period and returns their ids.
func (s *GroupService) Sweep(ctx context.Context) ([]string, error) {
	return s.repomanager.Groups(s.db).DeleteEmpty(ctx, s.now().Add(-s.grace))
}

func (s *GroupService) currentMembership(ctx context.Context, tx dbx.DBTX, accountID string) (*models.Membership, error) {
	m, err := s.repomanager.Members(tx).Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// dropIfAbandoned deletes the group prev pointed at when the account just
// moved elsewhere and nobody is left in it.
func (s *GroupService) dropIfAbandoned(ctx context.Context, tx dbx.DBTX, prev *models.Membership, newGroupID string, now time.Time) error {
	if prev == nil || prev.GroupID == newGroupID {
		return nil
	}
	_, err := s.repomanager.Groups(tx).DeleteIfEmpty(ctx, prev.GroupID, now.Add(-s.grace))
	return err
}
