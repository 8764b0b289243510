// Package state holds the in-memory session store, the single source of
// truth for call-session state.
package state
