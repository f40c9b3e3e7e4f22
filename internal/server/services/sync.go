package services

import (
	"context"

	"github.com/dmitrijs2005/safecircle/internal/server/models"
	"golang.org/x/sync/errgroup"
)

// SyncService answers the client's periodic poll in one round trip.
type SyncService struct {
	presence *PresenceService
	groups   *GroupService
	messages *MessageService
}

func NewSyncService(presence *PresenceService, groups *GroupService, messages *MessageService) *SyncService {
	return &SyncService{presence: presence, groups: groups, messages: messages}
}

// Sync records the caller's position, then gathers everything new since the
// request's cursors. The reads run concurrently; the first failure cancels
// the rest and fails the call. Every step is idempotent, so the client can
// simply retry with the same cursors.
func (s *SyncService) Sync(ctx context.Context, id *models.Identity, req *models.SyncRequest) (*models.SyncResult, error) {
	if err := s.presence.UpdatePosition(ctx, id.AccountID, req.Lat, req.Lon); err != nil {
		return nil, err
	}

	res := &models.SyncResult{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		res.Peers, err = s.presence.NearbyPeers(gctx, id.AccountID, 0)
		return err
	})
	if req.GroupID != "" {
		g.Go(func() (err error) {
			res.GroupMessages, err = s.messages.GroupMessagesSince(gctx, id.AccountID, req.GroupID, req.LastGroupMessageID)
			return err
		})
		g.Go(func() (err error) {
			res.GroupMembers, err = s.groups.Members(gctx, id.AccountID, req.GroupID)
			return err
		})
	}
	g.Go(func() (err error) {
		res.PrivateMessages, err = s.messages.PrivateMessagesSince(gctx, id.AccountID, req.LastPrivateMessageID)
		return err
	})
	g.Go(func() (err error) {
		res.SosAlerts, err = s.messages.SosAlertsSince(gctx, req.LastSosTime)
		return err
	})
	g.Go(func() (err error) {
		res.Invites, err = s.messages.InvitesFor(gctx, id.AccountID)
		return err
	})
	g.Go(func() (err error) {
		res.Group, err = s.groups.Status(gctx, id.AccountID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Cursors = nextCursors(req, res)
	return res, nil
}

func nextCursors(req *models.SyncRequest, res *models.SyncResult) models.SyncCursors {
	c := models.SyncCursors{
		LastGroupMessageID:   req.LastGroupMessageID,
		LastPrivateMessageID: req.LastPrivateMessageID,
		LastSosTime:          req.LastSosTime,
	}
	for _, m := range res.GroupMessages {
		c.LastGroupMessageID = max(c.LastGroupMessageID, m.ID)
	}
	for _, m := range res.PrivateMessages {
		c.LastPrivateMessageID = max(c.LastPrivateMessageID, m.ID)
	}
	for _, a := range res.SosAlerts {
		if a.CreatedAt.After(c.LastSosTime) {
			c.LastSosTime = a.CreatedAt
		}
	}
	return c
}
