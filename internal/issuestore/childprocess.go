package issuestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ChildProcess drives the issue-store CLI binary directly, one subprocess
// per call, with --json appended to every operation so output is always
// machine-parseable. This is the fallback path used when no daemon answers,
// and the only path when the CLI has never been run as a daemon at all.
type ChildProcess struct {
	bin       string
	workspace string
	actor     string
}

// NewChildProcess creates a driver that invokes bin (e.g. "bd") with cwd set
// to workspace.
func NewChildProcess(bin, workspace, actor string) *ChildProcess {
	return &ChildProcess{bin: bin, workspace: workspace, actor: actor}
}

// run executes the CLI and normalizes its stdout into the shared result
// shape: a verbatim JSON array/object, a parsed JSON string, {output: raw}
// when stdout isn't valid JSON, or an error wrapping stderr on a non-zero
// exit (spec.md §4.F "Result normalization").
func (c *ChildProcess) run(ctx context.Context, args ...string) (json.RawMessage, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	cmd.Dir = c.workspace
	cmd.Env = append(cmd.Environ(), "BV_ACTOR="+c.actor)

	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(ee.Stderr))
		}
		return nil, fmt.Errorf("issuestore: %s %s: %w\n%s", c.bin, strings.Join(args, " "), err, stderr)
	}
	return normalize(out), nil
}

// normalize implements the return-value coercion spec.md §4.F describes for
// a child-process backend: valid JSON passes through verbatim, otherwise the
// trimmed raw text is wrapped as {"output": "..."}.
func normalize(raw []byte) json.RawMessage {
	trimmed := []byte(strings.TrimSpace(string(raw)))
	if len(trimmed) == 0 {
		return json.RawMessage(`{}`)
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err == nil {
		return trimmed
	}
	wrapped, err := json.Marshal(map[string]string{"output": string(trimmed)})
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return wrapped
}

func (c *ChildProcess) Init(ctx context.Context) (json.RawMessage, error) {
	return c.run(ctx, "init", "--json")
}

func (c *ChildProcess) Create(ctx context.Context, args CreateArgs) (json.RawMessage, error) {
	cliArgs := []string{"create", args.Title, "--json"}
	if args.Type != "" {
		cliArgs = append(cliArgs, "--type", args.Type)
	}
	if args.Priority != "" {
		cliArgs = append(cliArgs, "--priority", args.Priority)
	}
	if args.Description != "" {
		cliArgs = append(cliArgs, "--description", args.Description)
	}
	for _, d := range args.Deps {
		cliArgs = append(cliArgs, "--dep", d)
	}
	for _, t := range args.Tags {
		cliArgs = append(cliArgs, "--tag", t)
	}
	return c.run(ctx, cliArgs...)
}

func (c *ChildProcess) List(ctx context.Context, status string, limit, offset int) (json.RawMessage, error) {
	cliArgs := []string{"list", "--json"}
	if status != "" {
		cliArgs = append(cliArgs, "--status", status)
	}
	if limit > 0 {
		cliArgs = append(cliArgs, "--limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		cliArgs = append(cliArgs, "--offset", strconv.Itoa(offset))
	}
	return c.run(ctx, cliArgs...)
}

func (c *ChildProcess) Ready(ctx context.Context, limit int) (json.RawMessage, error) {
	cliArgs := []string{"ready", "--json"}
	if limit > 0 {
		cliArgs = append(cliArgs, "--limit", strconv.Itoa(limit))
	}
	return c.run(ctx, cliArgs...)
}

func (c *ChildProcess) Show(ctx context.Context, id string) (json.RawMessage, error) {
	return c.run(ctx, "show", id, "--json")
}

func (c *ChildProcess) Update(ctx context.Context, id string, fields map[string]any) (json.RawMessage, error) {
	cliArgs := []string{"update", id, "--json"}
	for k, v := range fields {
		cliArgs = append(cliArgs, "--"+k, fmt.Sprintf("%v", v))
	}
	return c.run(ctx, cliArgs...)
}

func (c *ChildProcess) Close(ctx context.Context, id, reason string) (json.RawMessage, error) {
	cliArgs := []string{"close", id, "--json"}
	if reason != "" {
		cliArgs = append(cliArgs, "--reason", reason)
	}
	return c.run(ctx, cliArgs...)
}

func (c *ChildProcess) Sync(ctx context.Context) (json.RawMessage, error) {
	return c.run(ctx, "sync", "--json")
}

func (c *ChildProcess) Stats(ctx context.Context) (json.RawMessage, error) {
	return c.run(ctx, "stats", "--json")
}

func (c *ChildProcess) Cleanup(ctx context.Context, days int) (json.RawMessage, error) {
	cliArgs := []string{"cleanup", "--json"}
	if days > 0 {
		cliArgs = append(cliArgs, "--days", strconv.Itoa(days))
	}
	return c.run(ctx, cliArgs...)
}

func (c *ChildProcess) Doctor(ctx context.Context, fix bool) (json.RawMessage, error) {
	cliArgs := []string{"doctor", "--json"}
	if fix {
		cliArgs = append(cliArgs, "--fix")
	}
	return c.run(ctx, cliArgs...)
}

func (c *ChildProcess) DepAdd(ctx context.Context, from, to, depType string) (json.RawMessage, error) {
	cliArgs := []string{"dep", "add", from, to, "--json"}
	if depType != "" {
		cliArgs = append(cliArgs, "--type", depType)
	}
	return c.run(ctx, cliArgs...)
}
