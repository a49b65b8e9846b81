package formatter

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/medialink/internal/models"
	th "github.com/desertthunder/medialink/internal/testing"
)

func sampleEntries() []*models.HistoryEntry {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []*models.HistoryEntry{
		models.RestoreHistoryEntry("h2", 2, "1399_1_2", "Game of Thrones S01E02", models.MediaTV, models.StatusError, "Source file not found, with comma", nil, at, at),
		models.RestoreHistoryEntry("h1", 1, "603_0_0", "The Matrix", models.MediaMovie, models.StatusCompleted, "", []string{"searching", "linked"}, at, at),
	}
}

func TestTable(t *testing.T) {
	tbl := Table{
		Headers: []string{"A", "B"},
		Rows:    [][]string{{"one", "1"}, {"two"}},
		Aligns:  []Alignment{AlignLeft, AlignRight},
	}

	t.Run("Render", func(t *testing.T) {
		out := tbl.Render()
		for _, want := range []string{"╭", "A", "one", "two"} {
			if !strings.Contains(out, want) {
				t.Errorf("rendered table missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("Plain", func(t *testing.T) {
		if got, want := tbl.Plain(), "one\t1\ntwo\n"; got != want {
			t.Errorf("Plain() = %q, want %q", got, want)
		}
	})

	t.Run("String", func(t *testing.T) {
		if tbl.String(false) != tbl.Plain() {
			t.Error("non-tty output should be plain")
		}
		if tbl.String(true) != tbl.Render() {
			t.Error("tty output should be boxed")
		}
	})

	t.Run("Empty Headers", func(t *testing.T) {
		if (Table{}).Render() != "" {
			t.Error("expected empty render")
		}
	})
}

func TestTables(t *testing.T) {
	t.Run("JobsTable", func(t *testing.T) {
		snap := models.Snapshot{
			"b": {ID: "b", Title: "B", Status: models.StatusQueued},
			"a": {ID: "a", Title: "A", Status: models.StatusPaused, Season: models.IntPtr(1), Episode: models.IntPtr(3)},
		}
		tbl := JobsTable(snap)
		if len(tbl.Rows) != 2 || tbl.Rows[0][0] != "a" {
			t.Fatalf("expected rows sorted by id, got %v", tbl.Rows)
		}
		if tbl.Rows[0][1] != "A S01E03" {
			t.Errorf("expected episode label, got %q", tbl.Rows[0][1])
		}
	})

	t.Run("ResultsTable", func(t *testing.T) {
		tbl := ResultsTable([]models.MediaItem{
			{ID: 603, Title: "The Matrix", Year: "1999", MediaType: models.MediaMovie, VoteAverage: 8.21},
			{ID: 1, Title: "Unrated"},
		})
		if tbl.Rows[0][4] != "8.2" {
			t.Errorf("expected rounded rating, got %q", tbl.Rows[0][4])
		}
		if tbl.Rows[1][4] != "" {
			t.Errorf("expected blank rating, got %q", tbl.Rows[1][4])
		}
	})

	t.Run("StreamsTable", func(t *testing.T) {
		tbl := StreamsTable([]models.Stream{
			{Name: "[TB⚡]\n1080p", URL: "https://cdn/x/Movie.mkv"},
			{Name: "[TB+] 720p"},
		}, 603)
		if tbl.Rows[0][1] != models.CacheMarker || tbl.Rows[1][1] != "" {
			t.Errorf("unexpected cache column: %v", tbl.Rows)
		}
		if tbl.Rows[0][2] != "[TB⚡] 1080p" {
			t.Errorf("expected newlines flattened, got %q", tbl.Rows[0][2])
		}
		if tbl.Rows[0][3] != "Movie.mkv" || tbl.Rows[1][3] != "Unknown_603.mkv" {
			t.Errorf("unexpected filename column: %v", tbl.Rows)
		}
	})

	t.Run("RemoteTable", func(t *testing.T) {
		tbl := RemoteTable([]models.RemoteEntry{{Name: "Movies", IsDir: true, Path: "/Movies"}, {Name: "a.mkv", Path: "/a.mkv"}})
		if tbl.Rows[0][1] != "dir" || tbl.Rows[1][1] != "file" {
			t.Errorf("unexpected kinds: %v", tbl.Rows)
		}
	})

	t.Run("LibraryTable", func(t *testing.T) {
		tbl := LibraryTable(&models.Library{
			Movies: []models.LibraryFolder{{Name: "The Matrix (1999) {tmdb-603}", TMDBID: models.IntPtr(603)}},
			Shows:  []models.LibraryFolder{{Name: "Untagged"}},
		})
		if len(tbl.Rows) != 2 || tbl.Rows[0][0] != "movie" || tbl.Rows[0][1] != "603" {
			t.Fatalf("unexpected movie row: %v", tbl.Rows)
		}
		if tbl.Rows[1][0] != "tv" || tbl.Rows[1][1] != "" {
			t.Errorf("expected an untagged show row, got %v", tbl.Rows[1])
		}
	})

	t.Run("StructureTable", func(t *testing.T) {
		nodes := []models.LibraryNode{
			{Type: "directory", Path: "Season 01"},
			{Type: "file", Path: "Season 01/a.mkv", FullPath: "/a", IsSymlink: true, IsValid: true},
			{Type: "file", Path: "Season 01/b.mkv", FullPath: "/b", IsSymlink: true},
			{Type: "file", Path: "Season 01/c.srt", FullPath: "/c"},
		}
		tbl := StructureTable(nodes, map[string]models.LinkState{"/a": models.LinkDead})
		want := []string{"", "dead", "broken", "file"}
		for i, w := range want {
			if tbl.Rows[i][2] != w {
				t.Errorf("row %d: expected %q, got %q", i, w, tbl.Rows[i][2])
			}
		}
		if tbl.Rows[0][0] != "Season 01/" {
			t.Errorf("expected a trailing slash on directories, got %q", tbl.Rows[0][0])
		}
	})

	t.Run("HistoryTable", func(t *testing.T) {
		tbl := HistoryTable(sampleEntries())
		if tbl.Rows[0][0] != "2" || tbl.Rows[0][3] != "Error" {
			t.Errorf("unexpected row: %v", tbl.Rows[0])
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportHistoryCSV", func(t *testing.T) {
		data, err := ExportHistoryCSV(sampleEntries())
		if err != nil {
			t.Fatalf("ExportHistoryCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "Sequence,JobID,Title,MediaType,Status,Message,LogLines,UpdatedAt" {
			t.Errorf("CSV missing headers, got: %v", records[0])
		}
		if records[1][5] != "Source file not found, with comma" {
			t.Errorf("expected quoted message to survive, got %q", records[1][5])
		}
		if records[2][6] != "2" {
			t.Errorf("expected log line count, got %q", records[2][6])
		}
		if records[2][7] != "2026-01-02T03:04:05Z" {
			t.Errorf("expected RFC3339 timestamp, got %q", records[2][7])
		}
	})

	t.Run("ExportJobMarkdown", func(t *testing.T) {
		t.Run("with logs", func(t *testing.T) {
			out := string(ExportJobMarkdown(sampleEntries()[1]))
			for _, want := range []string{"# The Matrix", "**Job**: 603_0_0", "**Status**: Completed", "```\nsearching\nlinked\n```"} {
				if !strings.Contains(out, want) {
					t.Errorf("Markdown missing %q:\n%s", want, out)
				}
			}
			if strings.Contains(out, "**Message**") {
				t.Error("empty message should be omitted")
			}
		})

		t.Run("without logs", func(t *testing.T) {
			out := string(ExportJobMarkdown(sampleEntries()[0]))
			if !strings.Contains(out, "_No lines collected._") {
				t.Errorf("expected placeholder, got:\n%s", out)
			}
		})
	})

	t.Run("ExportJobText", func(t *testing.T) {
		out := string(ExportJobText(sampleEntries()[1]))
		if !strings.Contains(out, "Lines: 2") || !strings.HasSuffix(out, "searching\nlinked\n") {
			t.Errorf("unexpected text export:\n%s", out)
		}
	})

	t.Run("ToJSON", func(t *testing.T) {
		data, err := ToJSON(map[string]int{"a": 1}, true)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "{\n  \"a\": 1\n}" {
			t.Errorf("unexpected JSON: %s", data)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteHistoryCSV", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			path, err := WriteHistoryCSV(sampleEntries(), "")
			if err != nil {
				t.Fatalf("WriteHistoryCSV failed: %v", err)
			}
			if path != "history.csv" {
				t.Errorf("expected default path, got %s", path)
			}
			th.AssertFileExists(t, path)
			if !strings.Contains(th.MustReadFile(t, path), "603_0_0") {
				t.Error("CSV file missing job")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			path := t.TempDir() + "/out.csv"
			got, err := WriteHistoryCSV(sampleEntries(), path)
			if err != nil {
				t.Fatalf("WriteHistoryCSV failed: %v", err)
			}
			th.AssertFileExists(t, got)
		})
	})

	t.Run("WriteJobReport", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		path, err := WriteJobReport(sampleEntries()[1], "")
		if err != nil {
			t.Fatalf("WriteJobReport failed: %v", err)
		}
		if path != "603_0_0.md" {
			t.Errorf("expected default path, got %s", path)
		}
		th.AssertFileExists(t, path)
	})
}
