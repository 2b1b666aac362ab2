package dispatcher

import (
	"context"

	"github.com/beads-village/bv/internal/mailbox"
	"github.com/beads-village/bv/internal/metrics"
	"github.com/beads-village/bv/internal/session"
)

func (h *Handlers) handleMsg(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	subj := stringArg(args, "subj")
	if subj == "" {
		return nil, Fail("subj is required", "pass a message subject")
	}
	global := boolArg(args, "global", false)

	thread := stringArg(args, "thread")
	if thread == "" {
		thread = sctx.State.CurrentTask()
	}

	scope := mailbox.Local
	scopeLabel := "local"
	if global {
		scope = mailbox.Team
		scopeLabel = "team"
	}

	req := mailbox.SendRequest{
		From:        sctx.State.AgentID(),
		Workspace:   sctx.State.Workspace(),
		Subject:     subj,
		Body:        stringArg(args, "body"),
		To:          stringArg(args, "to"),
		Thread:      thread,
		Importance:  stringArg(args, "importance"),
		RelatedTask: sctx.State.CurrentTask(),
	}
	if err := h.mailboxFor(sctx).Send(scope, req); err != nil {
		return nil, Fail(err.Error(), "call init with a team first to send team-scoped messages")
	}
	metrics.MailboxMessagesSent.WithLabelValues(scopeLabel).Inc()

	return map[string]any{"ok": 1, "global": global}, nil
}

func (h *Handlers) handleInbox(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	summaries, err := h.mailboxFor(sctx).Recv(mailbox.RecvOptions{
		MaxN:        intArg(args, "n", 5),
		UnreadOnly:  boolArg(args, "unread", false),
		IncludeTeam: boolArg(args, "global", true),
	})
	if err != nil {
		return nil, Fail(err.Error(), "retry")
	}
	return summaries, nil
}

func (h *Handlers) handleBroadcast(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
	subj := stringArg(args, "subj")
	if subj == "" {
		return nil, Fail("subj is required", "pass a broadcast subject")
	}
	if sctx.State.Team() == "" {
		return nil, Fail("no team configured", "call init with team set before broadcasting")
	}

	importance := stringArg(args, "importance")
	if importance == "" {
		importance = mailbox.ImportanceHigh
	}

	req := mailbox.SendRequest{
		From:       sctx.State.AgentID(),
		Workspace:  sctx.State.Workspace(),
		Subject:    subj,
		Body:       stringArg(args, "body"),
		To:         "all",
		Importance: importance,
	}
	if err := h.mailboxFor(sctx).Send(mailbox.Team, req); err != nil {
		return nil, Fail(err.Error(), "retry")
	}
	metrics.MailboxMessagesSent.WithLabelValues("team").Inc()

	return map[string]any{"ok": 1, "broadcast": true}, nil
}

// broadcastSystem sends a low-ceremony local+team notice for a lifecycle
// event (claimed/done). Failures are logged, never surfaced — these are
// best-effort notifications, not the operation's primary result.
func (h *Handlers) broadcastSystem(sctx *session.Context, subject string) {
	mb := h.mailboxFor(sctx)
	req := mailbox.SendRequest{
		From:       sctx.State.AgentID(),
		Workspace:  sctx.State.Workspace(),
		Subject:    subject,
		To:         "all",
		Importance: mailbox.ImportanceNormal,
	}
	if err := mb.Send(mailbox.Local, req); err != nil {
		sctx.Logger.Debug("broadcastSystem: local send failed")
	}
	if sctx.State.Team() != "" {
		if err := mb.Send(mailbox.Team, req); err != nil {
			sctx.Logger.Debug("broadcastSystem: team send failed")
		}
	}
}

// broadcastTeam sends a team-scoped-only notice, used by assign's optional
// notify.
func (h *Handlers) broadcastTeam(sctx *session.Context, subject string) {
	if sctx.State.Team() == "" {
		return
	}
	mb := h.mailboxFor(sctx)
	req := mailbox.SendRequest{
		From:       sctx.State.AgentID(),
		Workspace:  sctx.State.Workspace(),
		Subject:    subject,
		To:         "all",
		Importance: mailbox.ImportanceNormal,
	}
	if err := mb.Send(mailbox.Team, req); err != nil {
		sctx.Logger.Debug("broadcastTeam: send failed")
	}
}
