package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"regenq/internal/config"
	"regenq/internal/queueaccess"
	"regenq/internal/tags"
)

var errTagsUnavailable = errors.New("tags are served by the catalog CMS; set cms.base_url or REGENQ_CMS_URL")

func newTagsCommand(ctx *commandContext) *cobra.Command {
	var visibleOnly bool

	cmd := &cobra.Command{
		Use:   "tags <slug>",
		Short: "Show an entry's tags with their resolved curation status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(cfg *config.Config, session queueaccess.Session) error {
				if session.Tags == nil {
					return errTagsUnavailable
				}
				entryTags, err := session.Tags.EntryTags(cmd.Context(), session.Token, args[0])
				if err != nil {
					return err
				}
				if visibleOnly {
					entryTags = tags.Visible(entryTags)
				}
				printTags(cmd, entryTags)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&visibleOnly, "visible", false, "Only show tags displayed in the catalog")
	return cmd
}

func printTags(cmd *cobra.Command, entryTags []tags.Tag) {
	out := cmd.OutOrStdout()
	if len(entryTags) == 0 {
		fmt.Fprintln(out, "No tags")
		return
	}
	fmt.Fprint(out, renderTable(
		[]string{"Tag", "Status", "Source", "Kept on regenerate"},
		buildTagRows(entryTags),
	))

	groups := tags.Partition(entryTags)
	fmt.Fprintf(out, "%d active, %d proposed, %d excluded\n",
		len(groups[tags.StatusActive]), len(groups[tags.StatusProposed]), len(groups[tags.StatusExcluded]))
}

func buildTagRows(entryTags []tags.Tag) [][]string {
	rows := make([][]string, 0, len(entryTags))
	for _, tag := range entryTags {
		rows = append(rows, []string{
			tag.Name,
			titleLabel(string(tags.Resolve(tag))),
			tagStatusSource(tag),
			yesNo(!tags.IsExcluded(tag)),
		})
	}
	return rows
}

// tagStatusSource names the record field the resolved status came from.
func tagStatusSource(tag tags.Tag) string {
	switch {
	case tag.TagStatus != nil:
		return "tagStatus"
	case tag.Excluded != nil:
		return "excluded flag"
	default:
		return "default"
	}
}
