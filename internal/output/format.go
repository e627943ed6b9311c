// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskmgr/internal/backend/gcal"
	"taskmgr/internal/service"
)

const (
	// SectionSeparator is the separator line for titled sections.
	SectionSeparator = "------------"

	// CalendarMarker follows the title of a task imported from Google Calendar.
	CalendarMarker = "[calendar]"

	timeLayout = "2006-01-02 15:04"
	dateLayout = "2006-01-02"
)

// FormatTask formats a task line for the task listing.
// Format: "{N:>4}  {TITLE}\n" (4-wide right-aligned number, two spaces, title),
// followed by the description indented under the title when present.
func FormatTask(w io.Writer, num int, task service.Task) {
	title := normalizeTitle(task.Title)
	if task.GoogleEventID != "" {
		title += " " + CalendarMarker
	}
	fmt.Fprintf(w, "%4d  %s\n", num, title)

	if desc := singleLine(task.Description); strings.TrimSpace(desc) != "" {
		fmt.Fprintf(w, "      %s\n", desc)
	}
}

// FormatSectionHeader formats a titled section header.
func FormatSectionHeader(w io.Writer, title string) {
	fmt.Fprintln(w, SectionSeparator)
	fmt.Fprintln(w, normalizeTitle(title))
	fmt.Fprintln(w, SectionSeparator)
}

// FormatCommentsHeader formats the header above a task's comments. Tasks
// known only by id use the id.
func FormatCommentsHeader(w io.Writer, task service.Task) {
	name := task.Title
	if strings.TrimSpace(name) == "" {
		name = task.ID
	}
	FormatSectionHeader(w, "Comments on "+singleLine(name))
}

// FormatComment formats one comment.
// Format: "  {ID}  {CREATED}  {CONTENT}\n"
func FormatComment(w io.Writer, c service.Comment) {
	fmt.Fprintf(w, "  %s  %s  %s\n", c.ID, formatTime(c.CreatedAt.Time), singleLine(c.Content))
}

// FormatEvent formats an upcoming calendar event for the import preview.
// Events without a summary show as the importer would title them.
func FormatEvent(w io.Writer, ev gcal.Event) {
	summary := singleLine(ev.Summary)
	if strings.TrimSpace(summary) == "" {
		summary = "Untitled Event"
	}
	when := formatTime(ev.Start)
	if ev.AllDay && !ev.Start.IsZero() {
		when = ev.Start.Format(dateLayout) + " (all day)"
	}
	fmt.Fprintf(w, "%-22s  %s\n", when, summary)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = singleLine(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}
