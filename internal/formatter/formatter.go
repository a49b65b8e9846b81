// package formatter renders jobs, results, and job history as tables, CSV, Markdown, and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/desertthunder/medialink/internal/models"
)

// Alignment is a column's horizontal alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Table is a header row plus data rows, rendered either boxed or as plain tab-separated text.
type Table struct {
	Headers []string
	Rows    [][]string
	Aligns  []Alignment
}

// Render draws the table with rounded borders.
func (t Table) Render() string {
	columns := len(t.Headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = t.Headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range t.Rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(t.Aligns) && t.Aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// Plain renders one tab-separated line per row, without headers, for pipes and scripts.
func (t Table) Plain() string {
	var b strings.Builder
	for _, row := range t.Rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

// String picks [Table.Render] for terminals and [Table.Plain] otherwise.
func (t Table) String(tty bool) string {
	if tty {
		return t.Render()
	}
	return t.Plain()
}

// JobsTable lists active jobs ordered by id.
func JobsTable(snap models.Snapshot) Table {
	t := Table{Headers: []string{"ID", "Title", "Type", "Status", "Message"}}
	for _, job := range snap.Sorted() {
		t.Rows = append(t.Rows, []string{job.ID, job.Label(), string(job.MediaType), string(job.Status), job.Message})
	}
	return t
}

// ResultsTable lists a page of discovery or search results.
func ResultsTable(items []models.MediaItem) Table {
	t := Table{
		Headers: []string{"TMDB", "Title", "Year", "Type", "Rating"},
		Aligns:  []Alignment{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignRight},
	}
	for _, it := range items {
		rating := ""
		if it.VoteAverage > 0 {
			rating = strconv.FormatFloat(it.VoteAverage, 'f', 1, 64)
		}
		t.Rows = append(t.Rows, []string{strconv.Itoa(it.ID), it.Title, it.Year, string(it.MediaType), rating})
	}
	return t
}

// StreamsTable lists candidate sources with their index, cache flag, and estimated filename.
func StreamsTable(streams []models.Stream, fallbackID int) Table {
	t := Table{
		Headers: []string{"#", "Cached", "Name", "File"},
		Aligns:  []Alignment{AlignRight},
	}
	for i, s := range streams {
		cached := ""
		if s.Cached() {
			cached = models.CacheMarker
		}
		name := strings.ReplaceAll(s.Name, "\n", " ")
		t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), cached, name, s.FilenameEstimate(fallbackID)})
	}
	return t
}

// RemoteTable lists one directory of the remote file browser.
func RemoteTable(entries []models.RemoteEntry) Table {
	t := Table{Headers: []string{"Name", "Kind", "Path"}}
	for _, e := range entries {
		kind := "file"
		if e.IsDir {
			kind = "dir"
		}
		t.Rows = append(t.Rows, []string{e.Name, kind, e.Path})
	}
	return t
}

// LibraryTable lists the title folders of the local library.
func LibraryTable(lib *models.Library) Table {
	t := Table{
		Headers: []string{"Type", "TMDB", "Folder"},
		Aligns:  []Alignment{AlignLeft, AlignRight},
	}
	add := func(kind models.MediaType, folders []models.LibraryFolder) {
		for _, f := range folders {
			id := ""
			if f.TMDBID != nil {
				id = strconv.Itoa(*f.TMDBID)
			}
			t.Rows = append(t.Rows, []string{string(kind), id, f.Name})
		}
	}
	add(models.MediaMovie, lib.Movies)
	add(models.MediaTV, lib.Shows)
	return t
}

// StructureTable lists a title folder's tree. Files that were tested show
// their liveness; the rest show what the walk observed.
func StructureTable(nodes []models.LibraryNode, states map[string]models.LinkState) Table {
	t := Table{Headers: []string{"Path", "Kind", "Link"}}
	for _, n := range nodes {
		if n.IsDir() {
			t.Rows = append(t.Rows, []string{n.Path + "/", "dir", ""})
			continue
		}
		link := "broken"
		if n.IsValid {
			link = "ok"
		}
		if !n.IsSymlink {
			link = "file"
		}
		if st, ok := states[n.FullPath]; ok {
			link = st.String()
		}
		t.Rows = append(t.Rows, []string{n.Path, "file", link})
	}
	return t
}

// HistoryTable lists archived jobs, newest first as given.
func HistoryTable(entries []*models.HistoryEntry) Table {
	t := Table{
		Headers: []string{"#", "Job", "Title", "Status", "Finished"},
		Aligns:  []Alignment{AlignRight},
	}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(e.Sequence()),
			e.JobID(),
			e.Title(),
			string(e.Status()),
			e.UpdatedAt().Local().Format(time.DateTime),
		})
	}
	return t
}

// ExportHistoryCSV converts archived jobs to CSV with columns: Sequence, JobID, Title, MediaType, Status, Message, LogLines, UpdatedAt
func ExportHistoryCSV(entries []*models.HistoryEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "JobID", "Title", "MediaType", "Status", "Message", "LogLines", "UpdatedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		record := []string{
			strconv.Itoa(e.Sequence()),
			e.JobID(),
			e.Title(),
			string(e.MediaType()),
			string(e.Status()),
			e.Message(),
			strconv.Itoa(len(e.Logs())),
			e.UpdatedAt().UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportJobMarkdown renders one archived job and its collected log as Markdown.
func ExportJobMarkdown(e *models.HistoryEntry) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", e.Title())
	fmt.Fprintf(&buf, "**Job**: %s\n", e.JobID())
	fmt.Fprintf(&buf, "**Status**: %s\n", e.Status())
	if e.Message() != "" {
		fmt.Fprintf(&buf, "**Message**: %s\n", e.Message())
	}
	fmt.Fprintf(&buf, "**Finished**: %s\n\n", e.UpdatedAt().UTC().Format(time.RFC3339))

	buf.WriteString("## Log\n\n")
	if len(e.Logs()) == 0 {
		buf.WriteString("_No lines collected._\n")
		return buf.Bytes()
	}
	buf.WriteString("```\n")
	for _, line := range e.Logs() {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteString("```\n")
	return buf.Bytes()
}

// ExportJobText renders one archived job as plain text.
func ExportJobText(e *models.HistoryEntry) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Job: %s\n", e.JobID())
	fmt.Fprintf(&buf, "Title: %s\n", e.Title())
	fmt.Fprintf(&buf, "Status: %s\n", e.Status())
	if e.Message() != "" {
		fmt.Fprintf(&buf, "Message: %s\n", e.Message())
	}
	fmt.Fprintf(&buf, "Lines: %d\n\n", len(e.Logs()))
	for _, line := range e.Logs() {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// ToJSON encodes v, indented when pretty is set.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// WriteHistoryCSV writes the CSV export to path, defaulting to history.csv.
func WriteHistoryCSV(entries []*models.HistoryEntry, path string) (string, error) {
	if path == "" {
		path = "history.csv"
	}

	data, err := ExportHistoryCSV(entries)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}

// WriteJobReport writes a Markdown report for one archived job, defaulting to {job id}.md.
func WriteJobReport(e *models.HistoryEntry, path string) (string, error) {
	if path == "" {
		path = e.JobID() + ".md"
	}

	if err := os.WriteFile(path, ExportJobMarkdown(e), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}
