package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"regenq/internal/api"
	"regenq/internal/queue"
)

const displayTimeFormat = "2006-01-02 15:04:05"

var itemHeaders = []string{"ID", "Slug", "Field", "Status", "Created", "Updated"}


func buildItemRows(items []*queue.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rows = append(rows, []string{
			item.ID,
			item.Slug,
			item.Field.Label(),
			titleLabel(string(item.Status)),
			formatDisplayTime(item.CreatedAt),
			formatDisplayTime(item.UpdatedAt),
		})
	}
	return rows
}

func printItems(out io.Writer, items []*queue.Item) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No queue items")
		return
	}
	fmt.Fprint(out, renderTable(itemHeaders, buildItemRows(items)))
}

func printPage(out io.Writer, page *queue.Page) {
	printItems(out, page.Items)
	p := page.Pagination
	if p.Total > 0 {
		fmt.Fprintf(out, "Page %d of %d (%d items)\n", p.Page, max(p.PageCount, 1), p.Total)
	}
}

func printItemDetail(out io.Writer, item *queue.Item) {
	rows := [][]string{
		{"ID", item.ID},
		{"Slug", item.Slug},
		{"Field", item.Field.Label()},
		{"Status", titleLabel(string(item.Status))},
		{"In flight", yesNo(item.Status.InFlight())},
		{"Created", formatDisplayTime(item.CreatedAt)},
		{"Updated", formatDisplayTime(item.UpdatedAt)},
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%-10s %s\n", row[0]+":", row[1])
	}
}

func buildStatsRows(stats map[queue.Status]int) [][]string {
	merged := api.MergeQueueStats(stats)
	rows := make([][]string, 0, len(merged))
	for _, key := range api.SortedStatusKeys(merged) {
		rows = append(rows, []string{titleLabel(key), strconv.Itoa(merged[key])})
	}
	return rows
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(displayTimeFormat)
}
