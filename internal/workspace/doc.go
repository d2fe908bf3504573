// Package workspace integrates configuration loading with vault resolution.
// It provides the Context type that holds the validated configuration, the
// opened vault root and its folder layout for the duration of one command.
package workspace
