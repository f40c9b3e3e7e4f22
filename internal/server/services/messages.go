package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/dmitrijs2005/safecircle/internal/server/config"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/repomanager"
)

var errEmptyMessage = fmt.Errorf("%w: message needs text or an attachment", common.ErrInvalidArgument)

// MessageService writes and reads the append-only message log, SOS alerts
// and group invites. Reads return at most pageSize items; clients page by
// passing the last id (or time) they received.
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	pageSize    int
	now         func() time.Time
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *MessageService {
	return &MessageService{
		db:          db,
		repomanager: m,
		pageSize:    cfg.MessagePageSize,
		now:         utcNow,
	}
}

// PostGroupMessage appends to groupID's stream. Only current members may
// post (common.ErrNotMember).
func (s *MessageService) PostGroupMessage(ctx context.Context, senderID, groupID, text, audioKey, photoKey string) (*models.Message, error) {
	if text == "" && audioKey == "" && photoKey == "" {
		return nil, errEmptyMessage
	}
	if !isGroupID(groupID) {
		return nil, common.ErrNotMember
	}
	return s.repomanager.Messages(s.db).CreateGroupMessage(ctx, &models.Message{
		SenderID:  senderID,
		GroupID:   groupID,
		Text:      text,
		AudioKey:  audioKey,
		PhotoKey:  photoKey,
		CreatedAt: s.now(),
	})
}

// PostPrivateMessage sends a direct message to receiverName.
func (s *MessageService) PostPrivateMessage(ctx context.Context, senderID, receiverName, text, audioKey, photoKey string) (*models.Message, error) {
	if text == "" && audioKey == "" && photoKey == "" {
		return nil, errEmptyMessage
	}

	receiver, err := s.repomanager.Accounts(s.db).GetByUserName(ctx, receiverName)
	if err != nil {
		return nil, err
	}
	if receiver.ID == senderID {
		return nil, fmt.Errorf("%w: cannot message yourself", common.ErrInvalidArgument)
	}

	return s.repomanager.Messages(s.db).CreatePrivateMessage(ctx, &models.Message{
		SenderID:     senderID,
		ReceiverID:   receiver.ID,
		ReceiverName: receiver.UserName,
		Text:         text,
		AudioKey:     audioKey,
		PhotoKey:     photoKey,
		CreatedAt:    s.now(),
	})
}

// PostSos broadcasts an emergency alert to everyone.
func (s *MessageService) PostSos(ctx context.Context, senderID string, lat, lon float64, comment, photoKey string) (*models.SosAlert, error) {
	return s.repomanager.Sos(s.db).Create(ctx, &models.SosAlert{
		SenderID:  senderID,
		Lat:       lat,
		Lon:       lon,
		Comment:   comment,
		PhotoKey:  photoKey,
		CreatedAt: s.now(),
	})
}

// SendInvite invites inviteeName into groupID. The inviter must be a member
// of the group. Inviting again refreshes the pending invite.
func (s *MessageService) SendInvite(ctx context.Context, inviterID, inviteeName, groupID string) (*models.Invite, error) {
	if !isGroupID(groupID) {
		return nil, common.ErrorNotFound
	}
	group, err := s.repomanager.Groups(s.db).GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	membersRepo := s.repomanager.Members(s.db)
	m, err := membersRepo.Get(ctx, inviterID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotMember
		}
		return nil, err
	}
	if m.GroupID != groupID {
		return nil, common.ErrNotMember
	}

	invitee, err := s.repomanager.Accounts(s.db).GetByUserName(ctx, inviteeName)
	if err != nil {
		return nil, err
	}
	if invitee.ID == inviterID {
		return nil, fmt.Errorf("%w: cannot invite yourself", common.ErrInvalidArgument)
	}
	if cur, err := membersRepo.Get(ctx, invitee.ID); err == nil && cur.GroupID == groupID {
		return nil, common.ErrAlreadyExists
	} else if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	return s.repomanager.Invites(s.db).Upsert(ctx, &models.Invite{
		InviterID: inviterID,
		InviteeID: invitee.ID,
		GroupID:   groupID,
		GroupName: group.Name,
		CreatedAt: s.now(),
	})
}

// RejectInvite discards an invite addressed to inviteeID.
func (s *MessageService) RejectInvite(ctx context.Context, inviteeID string, inviteID int64) error {
	return s.repomanager.Invites(s.db).Delete(ctx, inviteID, inviteeID)
}

// GroupMessagesSince returns group messages after afterID that accountID may
// see. Non-members get an empty list.
func (s *MessageService) GroupMessagesSince(ctx context.Context, accountID, groupID string, afterID int64) ([]*models.Message, error) {
	if !isGroupID(groupID) {
		return nil, nil
	}
	return s.repomanager.Messages(s.db).GroupSince(ctx, accountID, groupID, afterID, s.pageSize)
}

// PrivateMessagesSince returns private messages sent or received by
// accountID with ids above afterID.
func (s *MessageService) PrivateMessagesSince(ctx context.Context, accountID string, afterID int64) ([]*models.Message, error) {
	return s.repomanager.Messages(s.db).PrivateSince(ctx, accountID, afterID, s.pageSize)
}

// SosAlertsSince returns alerts created strictly after after.
func (s *MessageService) SosAlertsSince(ctx context.Context, after time.Time) ([]*models.SosAlert, error) {
	return s.repomanager.Sos(s.db).Since(ctx, after, s.pageSize)
}

func (s *MessageService) InvitesFor(ctx context.Context, accountID string) ([]*models.Invite, error) {
	return s.repomanager.Invites(s.db).ListFor(ctx, accountID)
}
