// Package cli provides the interactive TauriSky deck client.
//
// It wires the three state containers (session, accounts, deck) to a bridge
// invoker and drives them from a read–eval–print loop. On startup the stored
// session is restored, the account registry and deck are loaded, and an empty
// deck receives a home timeline for the signed-in account.
//
// Key features:
//   - Login / Logout with automatic token refresh in the background
//   - Multiple accounts: add, remove, switch
//   - Deck columns: list, add, remove, edit, reorder
//   - Column layout backup and restore
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
