package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/dmitrijs2005/safecircle/internal/dbx"
	"github.com/dmitrijs2005/safecircle/internal/server/config"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/groups"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/invites"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/members"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/messages"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/sos"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// memStore is an in-memory stand-in for the PostgreSQL schema. Every
// repository method runs under one mutex, which gives the same
// per-statement atomicity the real queries have.
type memStore struct {
	mu sync.Mutex

	seq      int
	accounts map[string]*models.Account
	ignores  map[[2]string]bool
	groups   map[string]*models.Group
	members  map[string]*models.Membership
	messages []*models.Message
	sos      []*models.SosAlert
	invites  []*models.Invite

	nextMessageID int64
	nextSosID     int64
	nextInviteID  int64

	// fail, when set, is returned by every repository call.
	fail error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*models.Account{},
		ignores:  map[[2]string]bool{},
		groups:   map[string]*models.Group{},
		members:  map[string]*models.Membership{},
	}
}

func (s *memStore) newID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// uuidArg fails the way PostgreSQL does when a non-UUID string is bound to a
// uuid column.
func uuidArg(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid input syntax for type uuid: %q", id)
	}
	return nil
}

func (s *memStore) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// --- accounts ---

type memAccounts struct{ *memStore }

var _ accounts.Repository = memAccounts{}

func (s memAccounts) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	for _, x := range s.accounts {
		if x.UserName == a.UserName {
			return nil, common.ErrAlreadyExists
		}
	}
	a.ID = s.newID("acc")
	c := *a
	s.accounts[a.ID] = &c
	return a, nil
}

func (s memAccounts) GetByUserName(ctx context.Context, userName string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	for _, x := range s.accounts {
		if x.UserName == userName {
			c := *x
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (s memAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	x, ok := s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *x
	return &c, nil
}

func (s memAccounts) OpenSession(ctx context.Context, id, sessionID, deviceID string, exclusive bool, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return false, s.fail
	}
	a, ok := s.accounts[id]
	if !ok {
		return false, nil
	}
	if exclusive && a.SessionID != "" && a.DeviceID != deviceID {
		return false, nil
	}
	a.SessionID, a.DeviceID = sessionID, deviceID
	t := now
	a.LastSeen = &t
	return true, nil
}

func (s memAccounts) CloseSession(ctx context.Context, id, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return false, s.fail
	}
	a, ok := s.accounts[id]
	if !ok || a.SessionID == "" || a.SessionID != sessionID {
		return false, nil
	}
	a.SessionID, a.DeviceID = "", ""
	return true, nil
}

func (s memAccounts) Touch(ctx context.Context, id, sessionID, deviceID string, checkDevice bool, now time.Time) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	a, ok := s.accounts[id]
	if !ok || a.SessionID == "" || a.SessionID != sessionID || (checkDevice && a.DeviceID != deviceID) {
		return nil, common.ErrorNotFound
	}
	t := now
	a.LastSeen = &t
	c := *a
	return &c, nil
}

func (s memAccounts) UpdatePosition(ctx context.Context, id string, lat, lon float64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	a, ok := s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	t := now
	a.Lat, a.Lon, a.LastSeen = lat, lon, &t
	return nil
}

func (s memAccounts) ListActiveSince(ctx context.Context, requesterID string, since time.Time) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	var out []*models.Account
	for _, a := range s.accounts {
		if a.ID == requesterID || a.SessionID == "" || a.LastSeen == nil || a.LastSeen.Before(since) {
			continue
		}
		if s.ignores[[2]string{requesterID, a.ID}] {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

func (s memAccounts) Ignore(ctx context.Context, id, ignoredID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.ignores[[2]string{id, ignoredID}] = true
	return nil
}

func (s memAccounts) Unignore(ctx context.Context, id, ignoredID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	delete(s.ignores, [2]string{id, ignoredID})
	return nil
}

// --- groups ---

type memGroups struct{ *memStore }

var _ groups.Repository = memGroups{}

func (s memGroups) Create(ctx context.Context, g *models.Group) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	for _, x := range s.groups {
		if x.Name == g.Name {
			return nil, common.ErrNameConflict
		}
	}
	g.ID = uuid.NewString()
	c := *g
	s.groups[g.ID] = &c
	return g, nil
}

func (s memGroups) GetByID(ctx context.Context, id string) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	if err := uuidArg(id); err != nil {
		return nil, err
	}
	g, ok := s.groups[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *g
	return &c, nil
}

func (s *memStore) memberCount(groupID string) int {
	n := 0
	for _, m := range s.members {
		if m.GroupID == groupID {
			n++
		}
	}
	return n
}

// deleteGroup removes the group and cascades like the foreign keys do.
func (s *memStore) deleteGroup(id string) {
	delete(s.groups, id)
	for acc, m := range s.members {
		if m.GroupID == id {
			delete(s.members, acc)
		}
	}
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.GroupID != id {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	keptInv := s.invites[:0]
	for _, i := range s.invites {
		if i.GroupID != id {
			keptInv = append(keptInv, i)
		}
	}
	s.invites = keptInv
}

func (s memGroups) DeleteIfEmpty(ctx context.Context, id string, createdBefore time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return false, s.fail
	}
	if err := uuidArg(id); err != nil {
		return false, err
	}
	g, ok := s.groups[id]
	if !ok || g.CreatedAt.After(createdBefore) || s.memberCount(id) > 0 {
		return false, nil
	}
	s.deleteGroup(id)
	return true, nil
}

func (s memGroups) DeleteEmpty(ctx context.Context, createdBefore time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	var ids []string
	for id, g := range s.groups {
		if !g.CreatedAt.After(createdBefore) && s.memberCount(id) == 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		s.deleteGroup(id)
	}
	return ids, nil
}

func (s memGroups) ListPublicAnchored(ctx context.Context) ([]*models.GroupSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	var out []*models.GroupSummary
	for _, g := range s.groups {
		if !g.IsPublic || !g.HasAnchor() {
			continue
		}
		out = append(out, &models.GroupSummary{
			ID: g.ID, Name: g.Name, Lat: *g.Lat, Lon: *g.Lon,
			MemberCount: s.memberCount(g.ID), CreatedAt: g.CreatedAt,
		})
	}
	return out, nil
}

// --- members ---

type memMembers struct{ *memStore }

var _ members.Repository = memMembers{}

func (s memMembers) Get(ctx context.Context, accountID string) (*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	m, ok := s.members[accountID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *m
	return &c, nil
}

func (s memMembers) Join(ctx context.Context, accountID, groupID string, now time.Time) (*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	if err := uuidArg(groupID); err != nil {
		return nil, err
	}
	if _, ok := s.groups[groupID]; !ok {
		return nil, common.ErrorNotFound
	}
	if m, ok := s.members[accountID]; ok && m.GroupID == groupID {
		c := *m
		return &c, nil
	}
	var cursor int64
	for _, msg := range s.messages {
		if msg.GroupID == groupID && msg.ID > cursor {
			cursor = msg.ID
		}
	}
	m := &models.Membership{AccountID: accountID, GroupID: groupID, JoinedCursor: cursor, JoinedAt: now}
	s.members[accountID] = m
	c := *m
	return &c, nil
}

func (s memMembers) Leave(ctx context.Context, accountID, groupID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return false, s.fail
	}
	if err := uuidArg(groupID); err != nil {
		return false, err
	}
	m, ok := s.members[accountID]
	if !ok || m.GroupID != groupID {
		return false, nil
	}
	delete(s.members, accountID)
	return true, nil
}

func (s memMembers) ListMembers(ctx context.Context, groupID string) ([]*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	if err := uuidArg(groupID); err != nil {
		return nil, err
	}
	var out []*models.Member
	for acc, m := range s.members {
		if m.GroupID != groupID {
			continue
		}
		a := s.accounts[acc]
		out = append(out, &models.Member{UserName: a.UserName, Lat: a.Lat, Lon: a.Lon, LastSeen: a.LastSeen, JoinedAt: m.JoinedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out, nil
}

func (s memMembers) Status(ctx context.Context, accountID string) (models.GroupStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return models.GroupStatus{}, s.fail
	}
	m, ok := s.members[accountID]
	if !ok {
		return models.GroupStatus{}, nil
	}
	g := s.groups[m.GroupID]
	return models.GroupStatus{GroupID: g.ID, Name: g.Name, IsPublic: g.IsPublic, JoinedCursor: m.JoinedCursor}, nil
}

// --- messages ---

type memMessages struct{ *memStore }

var _ messages.Repository = memMessages{}

func (s memMessages) CreateGroupMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	if err := uuidArg(msg.GroupID); err != nil {
		return nil, err
	}
	if m, ok := s.members[msg.SenderID]; !ok || m.GroupID != msg.GroupID {
		return nil, common.ErrNotMember
	}
	s.nextMessageID++
	msg.ID = s.nextMessageID
	msg.SenderName = s.accounts[msg.SenderID].UserName
	c := *msg
	s.messages = append(s.messages, &c)
	return msg, nil
}

func (s memMessages) CreatePrivateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	s.nextMessageID++
	msg.ID = s.nextMessageID
	msg.SenderName = s.accounts[msg.SenderID].UserName
	msg.ReceiverName = s.accounts[msg.ReceiverID].UserName
	c := *msg
	s.messages = append(s.messages, &c)
	return msg, nil
}

func (s memMessages) GroupSince(ctx context.Context, accountID, groupID string, afterID int64, limit int) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	if err := uuidArg(groupID); err != nil {
		return nil, err
	}
	m, ok := s.members[accountID]
	if !ok || m.GroupID != groupID {
		return nil, nil
	}
	floor := max(afterID, m.JoinedCursor)
	var out []*models.Message
	for _, msg := range s.messages {
		if msg.GroupID == groupID && msg.ID > floor && len(out) < limit {
			c := *msg
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s memMessages) PrivateSince(ctx context.Context, accountID string, afterID int64, limit int) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	var out []*models.Message
	for _, msg := range s.messages {
		if msg.ReceiverID == "" || msg.ID <= afterID || len(out) >= limit {
			continue
		}
		if msg.SenderID == accountID || msg.ReceiverID == accountID {
			c := *msg
			out = append(out, &c)
		}
	}
	return out, nil
}

// --- sos ---

type memSos struct{ *memStore }

var _ sos.Repository = memSos{}

func (s memSos) Create(ctx context.Context, a *models.SosAlert) (*models.SosAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	s.nextSosID++
	a.ID = s.nextSosID
	a.SenderName = s.accounts[a.SenderID].UserName
	c := *a
	s.sos = append(s.sos, &c)
	return a, nil
}

func (s memSos) Since(ctx context.Context, after time.Time, limit int) ([]*models.SosAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	var out []*models.SosAlert
	for _, a := range s.sos {
		if a.CreatedAt.After(after) {
			c := *a
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- invites ---

type memInvites struct{ *memStore }

var _ invites.Repository = memInvites{}

func (s memInvites) Upsert(ctx context.Context, inv *models.Invite) (*models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	if err := uuidArg(inv.GroupID); err != nil {
		return nil, err
	}
	if _, ok := s.groups[inv.GroupID]; !ok {
		return nil, common.ErrorNotFound
	}
	for _, x := range s.invites {
		if x.InviteeID == inv.InviteeID && x.GroupID == inv.GroupID {
			x.InviterID, x.CreatedAt = inv.InviterID, inv.CreatedAt
			inv.ID = x.ID
			return inv, nil
		}
	}
	s.nextInviteID++
	inv.ID = s.nextInviteID
	c := *inv
	s.invites = append(s.invites, &c)
	return inv, nil
}

func (s memInvites) ListFor(ctx context.Context, inviteeID string) ([]*models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	var out []*models.Invite
	for _, x := range s.invites {
		if x.InviteeID == inviteeID {
			c := *x
			c.InviterName = s.accounts[x.InviterID].UserName
			c.GroupName = s.groups[x.GroupID].Name
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s memInvites) Delete(ctx context.Context, id int64, inviteeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	for i, x := range s.invites {
		if x.ID == id && x.InviteeID == inviteeID {
			s.invites = append(s.invites[:i], s.invites[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (s memInvites) DeleteFor(ctx context.Context, inviteeID, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if err := uuidArg(groupID); err != nil {
		return err
	}
	kept := s.invites[:0]
	for _, x := range s.invites {
		if !(x.InviteeID == inviteeID && x.GroupID == groupID) {
			kept = append(kept, x)
		}
	}
	s.invites = kept
	return nil
}

// --- manager ---

type memRepoManager struct{ store *memStore }

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return memAccounts{m.store} }
func (m *memRepoManager) Groups(dbx.DBTX) groups.Repository            { return memGroups{m.store} }
func (m *memRepoManager) Members(dbx.DBTX) members.Repository          { return memMembers{m.store} }
func (m *memRepoManager) Messages(dbx.DBTX) messages.Repository        { return memMessages{m.store} }
func (m *memRepoManager) Sos(dbx.DBTX) sos.Repository                  { return memSos{m.store} }
func (m *memRepoManager) Invites(dbx.DBTX) invites.Repository          { return memInvites{m.store} }

// fakeClock is a settable time source shared by all services of a harness.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// harness wires every service over one memStore. The *sql.DB is an
// in-memory SQLite database; it only provides real transactions for
// dbx.WithTx, the fake repositories ignore it.
type harness struct {
	store    *memStore
	clock    *fakeClock
	cfg      *config.Config
	sessions *SessionService
	presence *PresenceService
	groups   *GroupService
	messages *MessageService
	sync     *SyncService
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	return cfg
}

func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()

	db := newTxDB(t)
	store := newMemStore()
	rm := &memRepoManager{store: store}
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	h := &harness{
		store:    store,
		clock:    clock,
		cfg:      cfg,
		sessions: NewSessionService(db, rm, cfg),
		presence: NewPresenceService(db, rm, cfg),
		groups:   NewGroupService(db, rm, cfg),
		messages: NewMessageService(db, rm, cfg),
	}
	h.sessions.now = clock.Now
	h.sessions.hashCost = bcrypt.MinCost
	h.presence.now = clock.Now
	h.groups.now = clock.Now
	h.messages.now = clock.Now
	h.sync = NewSyncService(h.presence, h.groups, h.messages)
	return h
}

// login registers userName (if needed) and logs it in from device.
func (h *harness) login(t *testing.T, userName, device string) *models.Identity {
	t.Helper()
	ctx := context.Background()

	if _, err := h.sessions.Register(ctx, userName, "pw-"+userName); err != nil {
		require.ErrorIs(t, err, common.ErrAlreadyExists)
	}
	token, err := h.sessions.Login(ctx, userName, "pw-"+userName, device)
	require.NoError(t, err)
	id, err := h.sessions.Authenticate(ctx, token, device)
	require.NoError(t, err)
	return id
}
