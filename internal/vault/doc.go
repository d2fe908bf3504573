// Package vault models the on-disk PARA layout of a second-brain vault.
// It validates the vault root, creates missing category folders, and builds
// a per-folder snapshot of note counts and modification times. Snapshots are
// rebuilt on every command because the vault is edited outside of sb.
package vault
