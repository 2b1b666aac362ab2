package dispatcher

import (
	"context"
	"os"

	"github.com/beads-village/bv/internal/session"
)

func (h *Handlers) handleInit(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	workspace := stringArg(args, "ws")
	if workspace == "" {
		workspace = sctx.State.Workspace()
	}
	team := stringArg(args, "team")
	if team == "" {
		team = sctx.State.Team()
	}
	role := stringArg(args, "role")
	leader := boolArg(args, "leader", sctx.State.IsLeader())

	sctx.State.Init(workspace, team, role, leader)

	if _, err := h.issueStore(sctx).Init(ctx); err != nil {
		sctx.Logger.Warn("init: issue store init failed, continuing")
	}

	if reg := h.registryFor(sctx); reg != nil {
		if _, err := reg.Register(workspace, nil, role, leader); err != nil {
			sctx.Logger.Warn("init: registry register failed")
		}
	}

	h.broadcastSystem(sctx, "join")

	return map[string]any{
		"ok":              1,
		"agent":           sctx.State.AgentID(),
		"ws":              workspace,
		"team":            team,
		"role":            role,
		"is_leader":       leader,
		"available_teams": h.availableTeams(sctx),
	}, nil
}

func (h *Handlers) availableTeams(sctx *session.Context) []string {
	entries, err := os.ReadDir(sctx.VillageBase)
	if err != nil {
		return nil
	}
	var teams []string
	for _, e := range entries {
		if e.IsDir() {
			teams = append(teams, e.Name())
		}
	}
	return teams
}

func (h *Handlers) handleDiscover(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	reg := h.registryFor(sctx)
	if reg == nil {
		return nil, Fail("no team configured", "call init with team set first")
	}
	_ = reg.Heartbeat()

	agents, err := reg.Active(0)
	if err != nil {
		return nil, Fail(err.Error(), "retry")
	}
	workspaces, err := reg.DiscoverWorkspaces(0)
	if err != nil {
		return nil, Fail(err.Error(), "retry")
	}

	return map[string]any{
		"team":       sctx.State.Team(),
		"agents":     agents,
		"workspaces": workspaces,
		"totals": map[string]any{
			"agents":     len(agents),
			"workspaces": len(workspaces),
		},
	}, nil
}

func (h *Handlers) handleStatus(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	if reg := h.registryFor(sctx); reg != nil {
		_ = reg.Heartbeat()
	}

	openCount := 0
	if data, err := h.issueStore(sctx).List(ctx, "open", 50, 0); err == nil {
		_, total := decodeList(data)
		openCount = total
	}

	reservations, err := h.reservationEngine(sctx).Reservations(ctx)
	if err != nil {
		return nil, Fail(err.Error(), "retry")
	}

	agentCount := 0
	if reg := h.registryFor(sctx); reg != nil {
		if active, err := reg.Active(0); err == nil {
			agentCount = len(active)
		}
	}

	return map[string]any{
		"ok":           1,
		"ws":           sctx.State.Workspace(),
		"team":         sctx.State.Team(),
		"current_task": sctx.State.CurrentTask(),
		"completed":    sctx.State.CompletedCount(),
		"open_issues":  openCount,
		"reservations": len(reservations),
		"agents":       agentCount,
	}, nil
}
