package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"regenq/internal/config"
	"regenq/internal/poller"
	"regenq/internal/queue"
	"regenq/internal/queueaccess"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "watch <slug>...",
		Short: "Follow the latest regeneration request for entries until it finishes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(cfg *config.Config, session queueaccess.Session) error {
				return watchSlugs(cmd, ctx, cfg, session, args, timeout)
			})
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Give up after this long (default poller.max_duration_seconds)")
	return cmd
}

// snapshotPrinter writes one line per state or status change and goes quiet
// once closed.
type snapshotPrinter struct {
	mu       sync.Mutex
	cmd      *cobra.Command
	colorize bool
	last     map[string]string
	closed   bool
}

func newSnapshotPrinter(cmd *cobra.Command) *snapshotPrinter {
	return &snapshotPrinter{
		cmd:      cmd,
		colorize: shouldColorize(cmd.OutOrStdout()),
		last:     make(map[string]string),
	}
}

func (p *snapshotPrinter) observe(snap poller.Snapshot) {
	key := string(snap.State)
	if snap.Item != nil {
		key += "/" + snap.Item.ID + "/" + string(snap.Item.Status)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.last[snap.Slug] == key {
		return
	}
	p.last[snap.Slug] = key
	fmt.Fprintln(p.cmd.OutOrStdout(), renderSnapshotLine(snap, p.colorize))
}

func (p *snapshotPrinter) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// watchSlugs polls every slug concurrently and waits for all rounds to end.
// It fails when any round ends in a state other than finished.
func watchSlugs(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, session queueaccess.Session, slugs []string, timeout time.Duration) error {
	printer := newSnapshotPrinter(cmd)
	opts := append(poller.ConfigOptions(cfg),
		poller.WithLogger(ctx.cliLogger()),
		poller.WithObserver(printer.observe),
	)
	if timeout > 0 {
		opts = append(opts, poller.WithMaxDuration(timeout))
	}

	hub := poller.NewHub(session.Repository, opts...)
	defer hub.Close()
	defer printer.close()

	runCtx := cmd.Context()
	pollers := make([]*poller.Poller, 0, len(slugs))
	for _, slug := range slugs {
		p, err := hub.Watch(runCtx, session.Token, slug)
		if err != nil {
			return fmt.Errorf("watch %s: %w", slug, err)
		}
		pollers = append(pollers, p)
	}

	var failed []string
	for _, p := range pollers {
		snap, err := p.Wait(runCtx)
		if err != nil {
			return err
		}
		switch {
		case snap.State == poller.StateIdle:
			// Nothing in flight: report the last outcome, if any.
			if snap.Item != nil && snap.Item.Status == queue.StatusError {
				failed = append(failed, fmt.Sprintf("%s: last request failed", snap.Slug))
			}
		case snap.State != poller.StateFinished:
			failed = append(failed, fmt.Sprintf("%s: %s", snap.Slug, snap.State))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("regeneration did not finish: %s", strings.Join(failed, "; "))
	}
	return nil
}
