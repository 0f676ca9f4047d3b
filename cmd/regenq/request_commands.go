package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"regenq/internal/config"
	"regenq/internal/queue"
	"regenq/internal/queueaccess"
)

func fieldFlagUsage() string {
	return "Field to regenerate (" + strings.Join(queue.FieldChoices(), ", ") + ")"
}

func newRequestCommand(ctx *commandContext) *cobra.Command {
	var field string
	var wait bool

	cmd := &cobra.Command{
		Use:   "request <slug>",
		Short: "Queue regeneration for one catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(cfg *config.Config, session queueaccess.Session) error {
				svc := ctx.regenService(cfg, session)
				item, err := svc.Request(cmd.Context(), session.Token, args[0], field)
				if item == nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s\n", item)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: worker was not notified: %v\n", err)
				}
				if !wait {
					return nil
				}
				return watchSlugs(cmd, ctx, cfg, session, []string{item.Slug}, 0)
			})
		},
	}

	cmd.Flags().StringVarP(&field, "field", "f", "all", fieldFlagUsage())
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the request finishes")
	return cmd
}

func newBulkCommand(ctx *commandContext) *cobra.Command {
	var field string
	var inputPath string
	var wait bool

	cmd := &cobra.Command{
		Use:   "bulk [slug...]",
		Short: "Queue the same field for many catalog entries",
		Long: "Queue the same field for many catalog entries. Slugs come from the\n" +
			"arguments and, with --input, one per line from a file (\"-\" reads stdin).\n" +
			"Blank lines and lines starting with # are ignored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			slugs := append([]string(nil), args...)
			if inputPath != "" {
				read, err := readSlugList(cmd.InOrStdin(), inputPath)
				if err != nil {
					return err
				}
				slugs = append(slugs, read...)
			}
			if len(slugs) == 0 {
				return fmt.Errorf("no slugs given; pass them as arguments or with --input")
			}

			return ctx.withSession(func(cfg *config.Config, session queueaccess.Session) error {
				svc := ctx.regenService(cfg, session)
				items, err := svc.RequestMany(cmd.Context(), session.Token, slugs, field)
				out := cmd.OutOrStdout()
				if len(items) > 0 {
					printItems(out, items)
				}
				fmt.Fprintf(out, "Queued %d of %d requests\n", len(items), len(slugs))
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Some requests failed:\n%v\n", err)
				}
				if wait && len(items) > 0 {
					if werr := watchSlugs(cmd, ctx, cfg, session, itemSlugs(items), 0); werr != nil && err == nil {
						return werr
					}
				}
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&field, "field", "f", "all", fieldFlagUsage())
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Read slugs from a file, one per line")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until every request finishes")
	return cmd
}

func readSlugList(stdin io.Reader, path string) ([]string, error) {
	reader := stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open slug list: %w", err)
		}
		defer file.Close()
		reader = file
	}

	var slugs []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		slugs = append(slugs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read slug list: %w", err)
	}
	return slugs, nil
}

// itemSlugs lists each slug once, in first-seen order.
func itemSlugs(items []*queue.Item) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Slug]; ok {
			continue
		}
		seen[item.Slug] = struct{}{}
		out = append(out, item.Slug)
	}
	return out
}
