package cli

import (
	"time"

	"github.com/dmitrijs2005/safecircle/internal/api"
)

const timeLayout = "15:04:05"

// render prints the parts of a sync result the user has not seen yet.
// Messages and alerts are already cursor-filtered by the server; invites
// come back in full every time and are deduplicated here.
func (a *App) render(resp *api.SyncResponse) {
	self := a.api.UserName()

	a.mu.Lock()
	prevGroup := a.groupID
	a.groupID, a.groupName = resp.Group.GroupID, resp.Group.Name
	a.mu.Unlock()

	switch {
	case resp.Group.GroupID == prevGroup:
	case resp.Group.InGroup():
		a.printf("You are in group %q (%s)", resp.Group.Name, resp.Group.GroupID)
	default:
		a.printf("You are not in a group")
	}

	for _, s := range resp.SosAlerts {
		a.printf("!!! SOS from %s at %.5f,%.5f [%s]: %s", s.SenderName, s.Lat, s.Lon, clock(s.CreatedAt), s.Comment)
	}

	for _, m := range resp.GroupMessages {
		if m.SenderName == self {
			continue
		}
		a.printf("[%s] %s: %s%s", clock(m.CreatedAt), m.SenderName, m.Text, attachments(m))
	}

	for _, m := range resp.PrivateMessages {
		if m.SenderName == self {
			continue
		}
		a.printf("[%s] (private) %s: %s%s", clock(m.CreatedAt), m.SenderName, m.Text, attachments(m))
	}

	a.mu.Lock()
	var fresh []*api.Invite
	for _, inv := range resp.Invites {
		if _, ok := a.seenInvites[inv.ID]; ok {
			continue
		}
		a.seenInvites[inv.ID] = struct{}{}
		fresh = append(fresh, inv)
	}
	a.mu.Unlock()

	for _, inv := range fresh {
		a.printf("Invite #%d from %s to group %q (join %s / reject %d)", inv.ID, inv.InviterName, inv.GroupName, inv.GroupID, inv.ID)
	}
}

func clock(t time.Time) string {
	return t.Local().Format(timeLayout)
}

func attachments(m *api.Message) string {
	s := ""
	if m.PhotoKey != "" {
		s += " [photo " + m.PhotoKey + "]"
	}
	if m.AudioKey != "" {
		s += " [audio " + m.AudioKey + "]"
	}
	return s
}
