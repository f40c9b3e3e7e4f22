// Package cli provides the interactive SafeCircle command-line client.
//
// It wires configuration, the gRPC client and an interactive REPL. A
// background poller calls Sync on a fixed interval while a session is open
// and prints new group and private messages, SOS alerts and invites; while
// logged out it only pings the server to keep the online/offline indicator
// current.
//
// Key features:
//   - Register / Login / Logout (one device per account)
//   - Position reporting and nearby peers
//   - Group create / join / leave, public group discovery, member list
//   - Group and private messages, SOS alerts, invites, ignore lists
//   - Attachment upload and download URLs
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartSyncPoller, and runREPL for details.
package cli
