package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"regenq/internal/admin"
	"regenq/internal/config"
	"regenq/internal/queueaccess"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage regeneration queue items",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueSetStatusCommand(ctx))
	queueCmd.AddCommand(newQueueEditCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueStatsCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var req admin.ListRequest

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(cfg *config.Config, session queueaccess.Session) error {
				page, err := ctx.adminManager(cfg, session).List(cmd.Context(), session.Token, req)
				if err != nil {
					return err
				}
				printPage(cmd.OutOrStdout(), page)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&req.Page, "page", "p", 1, "Page number")
	cmd.Flags().IntVarP(&req.PageSize, "page-size", "n", 0, "Items per page (default admin.page_size)")
	cmd.Flags().StringVarP(&req.Status, "status", "s", "all", "Only show items with this status")
	cmd.Flags().StringVar(&req.Slug, "slug", "", "Only show items for this slug")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(cfg *config.Config, session queueaccess.Session) error {
				item, err := ctx.adminManager(cfg, session).Describe(cmd.Context(), session.Token, args[0])
				if err != nil {
					return err
				}
				printItemDetail(cmd.OutOrStdout(), item)
				return nil
			})
		},
	}
}

func newQueueSetStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Move a queue item to another status",
		Long:  "Move a queue item to another status. Setting new or pending makes the worker pick the item up again.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(cfg *config.Config, session queueaccess.Session) error {
				item, err := ctx.adminManager(cfg, session).UpdateStatus(cmd.Context(), session.Token, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", item)
				return nil
			})
		},
	}
}

func newQueueEditCommand(ctx *commandContext) *cobra.Command {
	var slug, field, status string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the slug, field or status of a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch admin.FieldsPatch
			flags := cmd.Flags()
			if flags.Changed("slug") {
				patch.Slug = &slug
			}
			if flags.Changed("field") {
				patch.Field = &field
			}
			if flags.Changed("status") {
				patch.Status = &status
			}
			return ctx.withSession(func(cfg *config.Config, session queueaccess.Session) error {
				item, err := ctx.adminManager(cfg, session).UpdateFields(cmd.Context(), session.Token, args[0], patch)
				if err != nil {
					return err
				}
				printItemDetail(cmd.OutOrStdout(), item)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "New entry slug")
	cmd.Flags().StringVarP(&field, "field", "f", "", fieldFlagUsage())
	cmd.Flags().StringVarP(&status, "status", "s", "", "New status")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete queue items",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(cfg *config.Config, session queueaccess.Session) error {
				mgr := ctx.adminManager(cfg, session)
				var errs []error
				for _, id := range args {
					if err := mgr.Delete(cmd.Context(), session.Token, id); err != nil {
						errs = append(errs, err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				}
				return errors.Join(errs...)
			})
		},
	}
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count queue items by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(cfg *config.Config, session queueaccess.Session) error {
				stats, err := ctx.adminManager(cfg, session).Stats(cmd.Context(), session.Token)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Queue", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Backend", statusInfo, string(session.Backend), colorize))
				if session.Store != nil {
					fmt.Fprintln(out, renderStatusLine("Database", statusInfo, session.Store.Path(), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Store", statusInfo, cfg.StoreURL(), colorize))
				}
				fmt.Fprint(out, renderTable([]string{"Status", "Count"}, buildStatsRows(stats), 1))
				return nil
			})
		},
	}
}
