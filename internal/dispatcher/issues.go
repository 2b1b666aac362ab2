package dispatcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/beads-village/bv/internal/issuestore"
	"github.com/beads-village/bv/internal/session"
)

func (h *Handlers) handleClaim(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	store := h.issueStore(sctx)

	if _, err := store.Sync(ctx); err != nil {
		sctx.Logger.Warn("claim: sync failed, continuing with stale ready list")
	}

	data, err := store.Ready(ctx, 20)
	if err != nil {
		return nil, Fail("issue store unavailable", "run doctor or init")
	}

	items, _ := decodeList(data)
	role := sctx.State.Role()
	var pick *issuestore.Issue
	for i := range items {
		if role == "" || len(items[i].Tags) == 0 || containsString(items[i].Tags, role) {
			pick = &items[i]
			break
		}
	}
	if pick == nil {
		msg := "no ready issues"
		if len(items) > 0 {
			msg = fmt.Sprintf("no tasks for role '%s'", role)
		}
		return map[string]any{"ok": 0, "msg": msg}, nil
	}

	if _, err := store.Update(ctx, pick.ID, map[string]any{"status": "in_progress"}); err != nil {
		return nil, Fail(err.Error(), "retry or run doctor")
	}

	sctx.State.SetCurrentTask(pick.ID)
	if reg := h.registryFor(sctx); reg != nil {
		_ = reg.UpdateTask(pick.ID)
	}
	h.broadcastSystem(sctx, "claimed:"+pick.ID)

	return map[string]any{
		"ok":    1,
		"id":    pick.ID,
		"title": pick.Title,
		"hint":  "call done when finished, or reserve before editing",
	}, nil
}

func (h *Handlers) handleDone(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	id := stringArg(args, "id")
	if id == "" {
		return nil, Fail("id is required", "pass the issue id returned by claim")
	}
	store := h.issueStore(sctx)

	if _, err := store.Close(ctx, id, stringArg(args, "msg")); err != nil {
		return nil, Fail(err.Error(), "check the id with show, or run doctor")
	}

	held := sctx.State.ClearReservedPaths()
	if len(held) > 0 {
		if _, err := h.reservationEngine(sctx).Release(ctx, held); err != nil {
			sctx.Logger.Warn("done: failed to release held reservations")
		}
	}

	_, _ = store.Sync(ctx)
	sctx.State.SetCurrentTask("")
	sctx.State.IncrementCompleted()
	h.broadcastSystem(sctx, "done:"+id)

	return map[string]any{"ok": 1, "done": id}, nil
}

func (h *Handlers) handleAdd(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	title := stringArg(args, "title")
	if title == "" {
		return nil, Fail("title is required", "pass a short issue title")
	}
	deps := coerceStringList(args["deps"])
	parent := stringArg(args, "parent")
	if parent == "" {
		parent = sctx.State.CurrentTask()
	}

	store := h.issueStore(sctx)
	data, err := store.Create(ctx, issuestore.CreateArgs{
		Title:       title,
		Type:        stringArg(args, "typ"),
		Priority:    stringArg(args, "pri"),
		Description: stringArg(args, "desc"),
		Deps:        deps,
		Tags:        coerceStringList(args["tags"]),
	})
	if err != nil {
		return nil, Fail(err.Error(), "run doctor or init")
	}

	var created issuestore.Issue
	_ = decodeInto(data, &created)

	if len(deps) == 0 && parent != "" && created.ID != "" {
		if _, err := store.DepAdd(ctx, created.ID, parent, "discovered-from"); err != nil {
			sctx.Logger.Debug("add: discovered-from dep add failed", zap.Error(err))
		}
	}

	return rawToAny(data), nil
}

func (h *Handlers) handleAssign(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	if !sctx.State.IsLeader() {
		return nil, Fail("permission denied", "only the team leader can assign issues")
	}
	id := stringArg(args, "id")
	role := stringArg(args, "role")
	if id == "" || role == "" {
		return nil, Fail("id and role are required", "pass both id and role")
	}

	store := h.issueStore(sctx)
	if _, err := store.Update(ctx, id, map[string]any{"add_tag": role}); err != nil {
		return nil, Fail(err.Error(), "check the id with show, or run doctor")
	}

	if boolArg(args, "notify", true) {
		h.broadcastTeam(sctx, "assigned:"+id)
	}

	return map[string]any{"ok": 1, "id": id, "assigned_to": role}, nil
}

func (h *Handlers) handleLs(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	status := stringArg(args, "status")
	if status == "" {
		status = "open"
	}
	limit := clamp(intArg(args, "limit", 10), 1, 50)
	offset := intArg(args, "offset", 0)

	data, err := h.issueStore(sctx).List(ctx, status, limit, offset)
	if err != nil {
		return nil, Fail(err.Error(), "run doctor or init")
	}
	items, total := decodeList(data)
	hasMore := offset+len(items) < total

	out := map[string]any{
		"items":    issuesToAny(items),
		"total":    total,
		"count":    len(items),
		"offset":   offset,
		"has_more": hasMore,
	}
	if hasMore {
		out["next_offset"] = offset + len(items)
	}
	return out, nil
}

func (h *Handlers) handleReady(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	limit := clamp(intArg(args, "limit", 5), 1, 20)

	data, err := h.issueStore(sctx).Ready(ctx, limit)
	if err != nil {
		return nil, Fail(err.Error(), "run doctor or init")
	}
	items, total := decodeList(data)

	return map[string]any{
		"items":    issuesToAny(items),
		"total":    total,
		"count":    len(items),
		"has_more": len(items) < total,
	}, nil
}

func (h *Handlers) handleShowIssue(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	id := stringArg(args, "id")
	if id == "" {
		return nil, Fail("id is required", "pass the issue id")
	}
	data, err := h.issueStore(sctx).Show(ctx, id)
	if err != nil {
		return nil, Fail(err.Error(), "check the id with ls, or run doctor")
	}
	return rawToAny(data), nil
}

func (h *Handlers) handleCleanup(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	days := intArg(args, "days", 2)
	store := h.issueStore(sctx)

	data, err := store.Cleanup(ctx, days)
	if err != nil {
		return nil, Fail(err.Error(), "run doctor")
	}
	_, _ = store.Sync(ctx)

	var parsed struct {
		Cleaned int `json:"cleaned"`
	}
	_ = decodeInto(data, &parsed)

	return map[string]any{"ok": 1, "days": days, "cleaned": parsed.Cleaned}, nil
}

func (h *Handlers) handleDoctor(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	data, err := h.issueStore(sctx).Doctor(ctx, boolArg(args, "fix", false))
	if err != nil {
		return nil, Fail(err.Error(), "the issue store may not be initialized; run init")
	}
	return rawToAny(data), nil
}

func (h *Handlers) handleSync(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	data, err := h.issueStore(sctx).Sync(ctx)
	if err != nil {
		return nil, Fail(err.Error(), "run doctor")
	}
	return map[string]any{"ok": 1, "result": rawToAny(data)}, nil
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
