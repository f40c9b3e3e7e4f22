package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/safecircle/internal/client/client"
	"github.com/dmitrijs2005/safecircle/internal/filex"
	"github.com/dmitrijs2005/safecircle/internal/netx"
)

const downloadDir = "downloads"

type usageError string

func (e usageError) Error() string { return "usage: " + string(e) }

// Where shows the position reported on the next poll, or sets it from
// "<lat> <lon>". A logged-in client sends the new position right away.
func (a *App) Where(ctx context.Context, args []string) error {
	if len(args) == 0 {
		lat, lon := a.api.Position()
		a.printf("Position: %.5f,%.5f", lat, lon)
		return nil
	}
	if len(args) != 2 {
		return usageError("where [<lat> <lon>]")
	}

	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil || lat < -90 || lat > 90 {
		return fmt.Errorf("bad latitude %q", args[0])
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil || lon < -180 || lon > 180 {
		return fmt.Errorf("bad longitude %q", args[1])
	}

	if !a.isLoggedIn() {
		a.api.SetPosition(lat, lon)
		return nil
	}
	return a.api.UpdateLocation(ctx, lat, lon)
}

// Peers lists visible accounts within an optional radius in km.
func (a *App) Peers(ctx context.Context, args []string) error {
	radius, err := optionalRadius(args, "peers [radius_km]")
	if err != nil {
		return err
	}

	peers, err := a.api.NearbyUsers(ctx, radius)
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		a.printf("Nobody nearby")
		return nil
	}

	a.table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "USER\tDISTANCE\tLAST SEEN")
		for _, p := range peers {
			fmt.Fprintf(w, "%s\t%.2f km\t%s\n", p.UserName, p.DistanceKm, clock(p.LastSeen))
		}
	})
	return nil
}

// Sync polls once, outside the background schedule.
func (a *App) Sync(ctx context.Context) error {
	err := a.pollOnce(ctx)
	a.afterCall(ctx, err)
	return err
}

// CreateGroup creates "<name> [public]". A public group is anchored at the
// current position.
func (a *App) CreateGroup(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 || (len(args) == 2 && args[1] != "public") {
		return usageError("create <name> [public]")
	}

	g, err := a.api.CreateGroup(ctx, args[0], len(args) == 2)
	if err != nil {
		return err
	}

	a.setGroup(g.ID, g.Name)
	a.printf("Created group %q (%s)", g.Name, g.ID)
	return nil
}

func (a *App) JoinGroup(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("join <group_id>")
	}

	resp, err := a.api.JoinGroup(ctx, args[0])
	if err != nil {
		return err
	}

	a.setGroup(resp.GroupID, resp.GroupID)
	a.printf("Joined group %s", resp.GroupID)
	return nil
}

func (a *App) LeaveGroup(ctx context.Context) error {
	if err := a.api.LeaveGroup(ctx); err != nil {
		return err
	}
	a.setGroup("", "")
	a.printf("Left the group")
	return nil
}

// Groups lists public groups near the current position.
func (a *App) Groups(ctx context.Context, args []string) error {
	radius, err := optionalRadius(args, "groups [radius_km]")
	if err != nil {
		return err
	}

	groups, err := a.api.ListPublicGroups(ctx, radius)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		a.printf("No public groups nearby")
		return nil
	}

	a.table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tMEMBERS\tDISTANCE")
		for _, g := range groups {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f km\n", g.ID, g.Name, g.MemberCount, g.DistanceKm)
		}
	})
	return nil
}

func (a *App) Members(ctx context.Context) error {
	members, err := a.api.GroupMembers(ctx)
	if err != nil {
		return err
	}

	a.table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "USER\tPOSITION\tJOINED")
		for _, m := range members {
			fmt.Fprintf(w, "%s\t%.5f,%.5f\t%s\n", m.UserName, m.Lat, m.Lon, clock(m.JoinedAt))
		}
	})
	return nil
}

// Say posts to the current group. Without arguments the text is read as
// several lines.
func (a *App) Say(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		var err error
		text, err = GetMultiline(a.reader, "Enter message", a.out)
		if err != nil {
			return err
		}
	}

	att := a.peekPending()
	if text == "" && att == (client.Attachments{}) {
		return nil
	}

	if _, err := a.api.SayToGroup(ctx, text, att); err != nil {
		return err
	}
	a.clearPending(att)
	return nil
}

func (a *App) PrivateMessage(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("pm <user> [text]")
	}

	text := strings.Join(args[1:], " ")
	att := a.peekPending()
	if text == "" && att == (client.Attachments{}) {
		return usageError("pm <user> [text]")
	}

	if _, err := a.api.SendPrivate(ctx, args[0], text, att); err != nil {
		return err
	}
	a.clearPending(att)
	return nil
}

// Sos raises an alert at the current position with an optional comment and
// the staged photo, if any.
func (a *App) Sos(ctx context.Context, args []string) error {
	att := a.peekPending()
	resp, err := a.api.SendSos(ctx, strings.Join(args, " "), att.PhotoKey)
	if err != nil {
		return err
	}
	a.clearPending(client.Attachments{PhotoKey: att.PhotoKey})
	a.printf("SOS #%d sent at %s", resp.ID, clock(resp.CreatedAt))
	return nil
}

func (a *App) Invite(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("invite <user>")
	}
	inv, err := a.api.Invite(ctx, args[0])
	if err != nil {
		return err
	}
	a.printf("Invited %s (invite #%d)", args[0], inv.ID)
	return nil
}

func (a *App) RejectInvite(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("reject <invite_id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("bad invite id %q", args[0])
	}
	return a.api.RejectInvite(ctx, id)
}

func (a *App) Ignore(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("ignore <user>")
	}
	return a.api.Ignore(ctx, args[0])
}

func (a *App) Unignore(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("unignore <user>")
	}
	return a.api.Unignore(ctx, args[0])
}

// Upload stores a photo or audio file and stages its key for the next
// message. Without a file it only prints the presigned request, for
// uploading with another tool.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 || (args[0] != "photo" && args[0] != "audio") {
		return usageError("upload <photo|audio> [file]")
	}
	kind := args[0]

	var f *os.File
	var size int64
	if len(args) == 2 {
		var err error
		f, err = os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil {
			return err
		}
		size = fi.Size()
	}

	t, err := a.api.RequestUpload(ctx, kind)
	if err != nil {
		return err
	}

	if f == nil {
		a.printf("Key: %s", t.Key)
		a.printf("PUT URL: %s", t.URL)
		for k, v := range t.Headers {
			a.printf("Header: %s: %s", k, v)
		}
		return nil
	}

	if err := netx.PutPresigned(ctx, t.URL, f, size, t.Headers); err != nil {
		return err
	}

	a.stagePending(kind, t.Key)
	a.printf("Uploaded %s as %s; it will be attached to your next message", args[1], t.Key)
	return nil
}

func (a *App) AttachmentURL(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("url <key>")
	}
	url, err := a.api.AttachmentURL(ctx, args[0])
	if err != nil {
		return err
	}
	a.printf("%s", url)
	return nil
}

// Download saves an attachment into the downloads directory under the
// last element of its key.
func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("download <key>")
	}

	url, err := a.api.AttachmentURL(ctx, args[0])
	if err != nil {
		return err
	}

	f, err := filex.CreateInSubDir(downloadDir, args[0])
	if err != nil {
		return err
	}

	n, err := netx.GetPresigned(ctx, url, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return err
	}

	a.printf("Saved %d bytes to %s", n, f.Name())
	return nil
}

func (a *App) stagePending(kind, key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if kind == "audio" {
		a.pending.AudioKey = key
	} else {
		a.pending.PhotoKey = key
	}
}

func (a *App) peekPending() client.Attachments {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// clearPending drops the staged keys that were sent, leaving any staged
// meanwhile.
func (a *App) clearPending(sent client.Attachments) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if sent.PhotoKey != "" && a.pending.PhotoKey == sent.PhotoKey {
		a.pending.PhotoKey = ""
	}
	if sent.AudioKey != "" && a.pending.AudioKey == sent.AudioKey {
		a.pending.AudioKey = ""
	}
}

func optionalRadius(args []string, usage string) (float64, error) {
	switch len(args) {
	case 0:
		return 0, nil
	case 1:
		r, err := strconv.ParseFloat(args[0], 64)
		if err != nil || r < 0 {
			return 0, usageError(usage)
		}
		return r, nil
	default:
		return 0, usageError(usage)
	}
}

func (a *App) table(fill func(w *tabwriter.Writer)) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fill(w)
	w.Flush()
}
