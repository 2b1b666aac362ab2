package dispatcher

import (
	"path/filepath"

	"github.com/beads-village/bv/internal/issuestore"
	"github.com/beads-village/bv/internal/mailbox"
	"github.com/beads-village/bv/internal/registry"
	"github.com/beads-village/bv/internal/reservation"
	"github.com/beads-village/bv/internal/session"
)

// Handlers holds the construction parameters every handler needs to build
// its per-call collaborators. Coordination state is all filesystem-resident
// (spec.md §1), so there is nothing to share across calls except the path
// to the issue-store CLI binary and the daemon preference; every
// collaborator, the issue-store driver included, is cheap to build
// fresh per call from the current session state.
type Handlers struct {
	IssueStoreBin string
	UseDaemon     bool
}

func (h *Handlers) reservationEngine(sctx *session.Context) *reservation.Engine {
	return reservation.New(sctx.State.Workspace(), sctx.State.AgentID())
}

func (h *Handlers) mailboxFor(sctx *session.Context) *mailbox.Mailbox {
	local := filepath.Join(sctx.State.Workspace(), ".mail")
	var team string
	if sctx.State.Team() != "" {
		team = filepath.Join(sctx.TeamDir(), "mail")
	}
	return mailbox.New(local, team, sctx.State.AgentID())
}

// registryFor returns nil when no team is configured — every caller must
// treat a nil registry as "skip the registry-backed side effect", not as an
// error, since operating without a team is a supported mode.
func (h *Handlers) registryFor(sctx *session.Context) *registry.Registry {
	if sctx.State.Team() == "" {
		return nil
	}
	return registry.New(sctx.TeamDir(), sctx.State.AgentID())
}

func (h *Handlers) issueStore(sctx *session.Context) issuestore.Driver {
	bin := h.IssueStoreBin
	if bin == "" {
		bin = "bd"
	}
	return issuestore.NewSelecting(sctx.State.Workspace(), sctx.State.AgentID(), bin, h.UseDaemon, sctx.Logger)
}
