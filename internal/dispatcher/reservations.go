package dispatcher

import (
	"context"
	"time"

	"github.com/beads-village/bv/internal/metrics"
	"github.com/beads-village/bv/internal/session"
)

func (h *Handlers) handleReserve(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	paths := coerceStringList(args["paths"])
	if len(paths) == 0 {
		return nil, Fail("paths is required", "pass at least one path to reserve")
	}

	ttlSeconds := intArg(args, "ttl", 600)
	reason := stringArg(args, "reason")
	if reason == "" {
		reason = sctx.State.CurrentTask()
	}
	if reason == "" {
		reason = "editing"
	}

	result, err := h.reservationEngine(sctx).Reserve(ctx, paths, time.Duration(ttlSeconds)*time.Second, reason)
	if err != nil {
		return nil, Fail(err.Error(), "retry the reserve")
	}
	if len(result.Conflicts) > 0 {
		metrics.ReservationConflicts.Add(float64(len(result.Conflicts)))
	}
	for _, p := range result.Granted {
		sctx.State.AddReservedPath(p)
	}

	out := map[string]any{
		"granted":   result.Granted,
		"conflicts": result.Conflicts,
		"expires":   result.ExpiresAt,
	}
	if len(result.Errors) > 0 {
		out["errors"] = result.Errors
	}
	return out, nil
}

func (h *Handlers) handleRelease(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	paths := coerceStringList(args["paths"])
	if len(paths) == 0 {
		paths = sctx.State.ReservedPaths()
	}

	result, err := h.reservationEngine(sctx).Release(ctx, paths)
	if err != nil {
		return nil, Fail(err.Error(), "retry the release")
	}
	for _, p := range result.Released {
		sctx.State.RemoveReservedPath(p)
	}

	return map[string]any{"released": result.Released}, nil
}

func (h *Handlers) handleReservations(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	records, err := h.reservationEngine(sctx).Reservations(ctx)
	if err != nil {
		return nil, Fail(err.Error(), "retry")
	}
	return records, nil
}
