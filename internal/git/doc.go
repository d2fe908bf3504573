// Package git wraps the git CLI operations used by sb: status, add, commit,
// fetch, merge, push and checkout against a vault working tree, plus the
// init/remote helpers used when creating a vault. It does not depend on other
// internal packages; callers translate its sentinel errors into their own.
package git
