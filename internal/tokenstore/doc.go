// Package tokenstore provides persistent storage for the CLI's cached
// authentication token.
//
// At most one token is stored at a time. Three backends are supported:
//   - DB: local Badger database (default), with transactional replace and
//     self-healing deduplication of surplus records
//   - File: single token file with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows
//     Credential Manager, etc.)
//
// WithOverride layers an environment-supplied token over any backend; the
// override always wins on read and persistent storage is never touched to
// produce it.
package tokenstore
