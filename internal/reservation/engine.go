// Package reservation implements advisory exclusive locks over paths within
// a workspace. Records are published through atomicfile.Publish so
// acquisition is crash-safe: a crash between write and rename leaves no
// visible record, a crash after rename leaves a well-formed one.
//
// The engine resolves the small publish-race spec.md §4.C describes (two
// agents both observing an empty slot) with a verify-after-publish read: the
// last writer's rename always wins at the filesystem level, but the engine
// re-reads immediately after publishing and reports a conflict to whichever
// caller's copy did not survive, instead of letting both callers believe
// they hold the path.
package reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beads-village/bv/internal/atomicfile"
	"github.com/beads-village/bv/internal/pathsafety"
)

const dirName = ".reservations"

// Engine manages reservations for one workspace. The zero value is not
// usable — create instances with New.
type Engine struct {
	workspace string
	agentID   string
	now       func() time.Time
}

// New creates an Engine bound to workspace, acting on behalf of agentID.
func New(workspace, agentID string) *Engine {
	return &Engine{workspace: workspace, agentID: agentID, now: time.Now}
}

func (e *Engine) dir() string {
	return filepath.Join(e.workspace, dirName)
}

func (e *Engine) recordPath(shortID string) string {
	return filepath.Join(e.dir(), shortID+".json")
}

func (e *Engine) load(shortID string) (Record, bool, error) {
	data, err := atomicfile.Read(e.recordPath(shortID))
	if err != nil {
		if err == atomicfile.ErrNotFound {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// Malformed records are treated as absent, per spec.md §7's defensive
		// read policy: reads of malformed files are silently skipped.
		return Record{}, false, nil
	}
	return rec, true, nil
}

// Sweep removes every expired record under the workspace's reservation
// directory. Invoked internally before any enumerating or conflict-checking
// operation, and also invoked periodically by the background sweeper.
// Sweep removes every expired record and returns how many were removed.
func (e *Engine) Sweep(_ context.Context) (int, error) {
	entries, err := os.ReadDir(e.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reservation: sweep: list %q: %w", e.dir(), err)
	}

	now := e.now()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		full := filepath.Join(e.dir(), entry.Name())
		data, err := os.ReadFile(full)
		if err != nil {
			continue // best-effort: reads tolerate partial/missing files
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if rec.Expired(now) {
			if err := os.Remove(full); err == nil { // best-effort; a concurrent sweep may win the race
				removed++
			}
		}
	}
	return removed, nil
}

// Reserve attempts to acquire paths for ttl, defaulting to DefaultTTL when
// ttl <= 0. Per-path success/failure is reported independently; a single
// filesystem error never aborts the batch.
func (e *Engine) Reserve(ctx context.Context, paths []string, ttl time.Duration, reason string) (ReserveResult, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if _, err := e.Sweep(ctx); err != nil {
		return ReserveResult{}, err
	}

	now := e.now()
	expires := now.Add(ttl)
	result := ReserveResult{ExpiresAt: expires}

	for _, raw := range paths {
		norm, err := pathsafety.Normalize(e.workspace, raw)
		if err != nil {
			result.Errors = append(result.Errors, BatchError{Path: raw, Error: "Path outside workspace"})
			continue
		}
		shortID := pathsafety.ShortID(norm)

		existing, ok, err := e.load(shortID)
		if err != nil {
			result.Errors = append(result.Errors, BatchError{Path: raw, Error: err.Error()})
			continue
		}
		if ok && !existing.Expired(now) && existing.Agent != e.agentID {
			result.Conflicts = append(result.Conflicts, Conflict{
				Path:    existing.Path,
				Holder:  existing.Agent,
				Expires: existing.Expires,
			})
			continue
		}

		rec := Record{Path: norm, Agent: e.agentID, Reason: reason, Created: now, Expires: expires}
		data, err := json.Marshal(rec)
		if err != nil {
			result.Errors = append(result.Errors, BatchError{Path: raw, Error: err.Error()})
			continue
		}
		if err := atomicfile.Publish(e.dir(), shortID+".json", data); err != nil {
			result.Errors = append(result.Errors, BatchError{Path: raw, Error: err.Error()})
			continue
		}

		// Verify-after-publish: a concurrent writer may have renamed its own
		// copy over ours a moment later. Whoever the file now says holds the
		// path is the winner; if it is not us, report a conflict instead of
		// granting a path we do not actually hold.
		after, ok, err := e.load(shortID)
		if err != nil || !ok {
			result.Errors = append(result.Errors, BatchError{Path: raw, Error: "reservation vanished after publish"})
			continue
		}
		if after.Agent != e.agentID {
			result.Conflicts = append(result.Conflicts, Conflict{
				Path:    after.Path,
				Holder:  after.Agent,
				Expires: after.Expires,
			})
			continue
		}

		result.Granted = append(result.Granted, norm)
	}

	return result, nil
}

// Release releases exactly the given paths held by the caller; an empty list
// releases nothing (callers that release everything pass the session's held
// paths, from session.State.ReservedPaths() or ClearReservedPaths()). A path
// held by a different agent, or already absent, is a no-op — never an error.
func (e *Engine) Release(_ context.Context, paths []string) (ReleaseResult, error) {
	var released []string
	for _, raw := range paths {
		norm, err := pathsafety.Normalize(e.workspace, raw)
		if err != nil {
			continue
		}
		shortID := pathsafety.ShortID(norm)
		rec, ok, err := e.load(shortID)
		if err != nil || !ok {
			continue
		}
		if rec.Agent != e.agentID {
			continue
		}
		if err := os.Remove(e.recordPath(shortID)); err != nil && !os.IsNotExist(err) {
			continue
		}
		released = append(released, norm)
	}
	return ReleaseResult{Released: released}, nil
}

// Reservations sweeps, then returns every non-expired record.
func (e *Engine) Reservations(ctx context.Context) ([]Record, error) {
	if _, err := e.Sweep(ctx); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(e.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reservation: list %q: %w", e.dir(), err)
	}

	now := e.now()
	var out []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(e.dir(), entry.Name()))
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if !rec.Expired(now) {
			out = append(out, rec)
		}
	}
	return out, nil
}
