package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/repositories"
	"github.com/desertthunder/medialink/internal/server"
	"github.com/desertthunder/medialink/internal/services"
	"github.com/desertthunder/medialink/internal/shared"
	tu "github.com/desertthunder/medialink/internal/testing"
)

type harness struct {
	stub   *server.Stub
	runner *Runner
	out    *bytes.Buffer
	input  *bytes.Buffer

	mu       sync.Mutex
	requests []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{stub: server.NewStub(nil)}
	srv := httptest.NewServer(h.stub.Handler(h.record))
	t.Cleanup(srv.Close)

	config := shared.DefaultConfig()
	config.Backend.URL = srv.URL + "/api"
	config.Database.Path = filepath.Join(t.TempDir(), "history.db")

	h.out, h.input = &bytes.Buffer{}, &bytes.Buffer{}
	h.runner = NewRunner(RunnerOpts{
		Config:     config,
		HTTPClient: srv.Client(),
		Logger:     shared.DiscardLogger(),
		Output:     h.out,
		Input:      h.input,
	})
	return h
}

// record keeps "METHOD /path" for every request the stub serves.
func (h *harness) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.requests = append(h.requests, r.Method+" "+r.URL.Path)
		h.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (h *harness) count(request string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.requests {
		if r == request {
			n++
		}
	}
	return n
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.out.Reset()
	app := &cli.Command{
		Name:     "medialink",
		Commands: h.runner.register(),
		Writer:   h.out,
	}
	return app.Run(context.Background(), append([]string{"medialink"}, args...))
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if err := h.run(t, args...); err != nil {
		t.Fatalf("%v: unexpected error: %v", args, err)
	}
	return h.out.String()
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := &services.APIService{}
			backend := services.NewBackendService("http://example.invalid/api", httpClient)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Backend:    backend,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.backend != backend {
				t.Error("expected backend to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Fatal("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
		})

		t.Run("default clients follow the backend config", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.httpClient.Timeout != config.Backend.Timeout.Duration {
				t.Errorf("expected timeout %v, got %v", config.Backend.Timeout.Duration, runner.httpClient.Timeout)
			}
			bs, ok := runner.backend.(*services.BackendService)
			if !ok {
				t.Fatalf("expected *services.BackendService, got %T", runner.backend)
			}
			if bs.BaseURL() != config.Backend.URL {
				t.Errorf("expected base URL %s, got %s", config.Backend.URL, bs.BaseURL())
			}
			if runner.api == nil {
				t.Error("expected api client to be built")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("confirm", func(t *testing.T) {
		tests := []struct {
			input string
			want  bool
		}{
			{"y\n", true},
			{"YES\n", true},
			{"n\n", false},
			{"\n", false},
			{"", false},
		}
		for _, tt := range tests {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Input: strings.NewReader(tt.input)})
			if got := runner.confirm("Continue?"); got != tt.want {
				t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		seen := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if seen[cmd.Name] {
				t.Errorf("duplicate command %s", cmd.Name)
			}
			seen[cmd.Name] = true
		}
		for _, name := range []string{"watch", "jobs", "logs", "download", "delete", "library", "settings", "history", "serve-stub"} {
			if !seen[name] {
				t.Errorf("expected %s to be registered", name)
			}
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("Jobs Empty", func(t *testing.T) {
		h := newHarness(t)
		if out := h.mustRun(t, "jobs"); !strings.Contains(out, "No active jobs") {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("Download Lifecycle", func(t *testing.T) {
		h := newHarness(t)

		out := h.mustRun(t, "download", "--tmdb", "603", "--title", "The Matrix", "--year", "1999")
		if !strings.Contains(out, "Job: 603_0_0") {
			t.Fatalf("expected job id in output, got %q", out)
		}

		out = h.mustRun(t, "jobs")
		if !strings.Contains(out, "The Matrix") || !strings.Contains(out, string(models.StatusSearching)) {
			t.Errorf("expected the job in the listing, got %q", out)
		}

		if out := h.mustRun(t, "logs", "603_0_0"); !strings.Contains(out, "Run ") {
			t.Errorf("expected the run line, got %q", out)
		}

		h.mustRun(t, "pause", "603_0_0")
		h.mustRun(t, "jobs", "--json")
		if !strings.Contains(h.out.String(), string(models.StatusPaused)) {
			t.Errorf("expected paused job, got %q", h.out.String())
		}

		h.mustRun(t, "resume", "603_0_0")
		h.mustRun(t, "delete", "--yes", "603_0_0")
		if out := h.mustRun(t, "jobs"); !strings.Contains(out, string(models.StatusCancelled)) {
			t.Errorf("expected cancelled job, got %q", out)
		}
	})

	t.Run("Follow Stops At Terminal Status", func(t *testing.T) {
		h := newHarness(t)
		h.mustRun(t, "download", "--tmdb", "603", "--title", "The Matrix")
		if err := h.stub.SetJobStatus("603_0_0", models.StatusCompleted, "Done"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := h.mustRun(t, "logs", "--follow", "--interval", "10ms", "603_0_0")
		if !strings.Contains(out, "[STATUS] Completed") {
			t.Errorf("expected the log up to completion, got %q", out)
		}
		if n := h.count("GET /api/jobs/603_0_0/logs"); n != 1 {
			t.Errorf("expected no log fetch after the terminal status, got %d fetches", n)
		}
	})

	t.Run("Follow Drains A Vanished Job", func(t *testing.T) {
		h := newHarness(t)
		h.mustRun(t, "download", "--tmdb", "603", "--title", "The Matrix")
		h.stub.SetJobStatus("603_0_0", models.StatusCancelled, "Cancelled")
		h.stub.Advance()

		h.mustRun(t, "logs", "--follow", "--interval", "10ms", "603_0_0")
		if n := h.count("GET /api/jobs/603_0_0/logs"); n != 2 {
			t.Errorf("expected one fetch plus one drain, got %d", n)
		}
	})

	t.Run("Delete Declined", func(t *testing.T) {
		h := newHarness(t)
		h.mustRun(t, "download", "--tmdb", "603", "--title", "The Matrix")
		h.input.WriteString("n\n")

		if err := h.run(t, "delete", "603_0_0"); !errors.Is(err, shared.ErrNotConfirmed) {
			t.Fatalf("expected ErrNotConfirmed, got %v", err)
		}
		if out := h.mustRun(t, "jobs"); strings.Contains(out, string(models.StatusCancelled)) {
			t.Errorf("expected the job untouched, got %q", out)
		}
	})

	t.Run("Unknown Job", func(t *testing.T) {
		h := newHarness(t)
		err := h.run(t, "pause", "1_0_0")
		if err == nil || !strings.Contains(err.Error(), "Job not found") {
			t.Errorf("expected backend detail, got %v", err)
		}
	})

	t.Run("Download Validation", func(t *testing.T) {
		h := newHarness(t)
		tests := []struct {
			name string
			args []string
			want error
		}{
			{"Bad Type", []string{"download", "--tmdb", "603", "--title", "X", "--type", "book"}, shared.ErrInvalidFlag},
			{"Season On Movie", []string{"download", "--tmdb", "603", "--title", "X", "--season", "1"}, shared.ErrInvalidFlag},
			{"Episode Without Season", []string{"download", "--tmdb", "1399", "--title", "X", "--type", "tv", "--episode", "1"}, shared.ErrInvalidFlag},
			{"Show Without Episode", []string{"download", "--tmdb", "1399", "--title", "X", "--type", "tv"}, shared.ErrMissingArgument},
			{"Stream Out Of Range", []string{"download", "--tmdb", "603", "--title", "X", "--stream", "99"}, shared.ErrInvalidFlag},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := h.run(t, tt.args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("Catalog", func(t *testing.T) {
		h := newHarness(t)

		if out := h.mustRun(t, "search", "matrix"); !strings.Contains(out, "The Matrix") {
			t.Errorf("expected search hit, got %q", out)
		}
		if out := h.mustRun(t, "discover", "--type", "tv"); !strings.Contains(out, "Game of Thrones") {
			t.Errorf("expected a show, got %q", out)
		}
		if out := h.mustRun(t, "discover", "--trending"); !strings.Contains(out, "Page 1") {
			t.Errorf("expected a page footer, got %q", out)
		}
		if out := h.mustRun(t, "genres", "--type", "tv"); !strings.Contains(out, "Sci-Fi & Fantasy") {
			t.Errorf("expected tv genres, got %q", out)
		}
		if err := h.run(t, "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Streams", func(t *testing.T) {
		h := newHarness(t)
		out := h.mustRun(t, "streams", "--tmdb", "1399", "--type", "tv", "--season", "1", "--episode", "2")
		if !strings.Contains(out, models.CacheMarker) {
			t.Errorf("expected a cached source, got %q", out)
		}
	})

	t.Run("Library", func(t *testing.T) {
		h := newHarness(t)
		matrix := models.MediaItem{ID: 603, Title: "The Matrix", MediaType: models.MediaMovie}
		thrones := models.MediaItem{ID: 1399, Title: "Game of Thrones", MediaType: models.MediaTV}

		if out := h.mustRun(t, "exists", "--tmdb", "603", "--title", "The Matrix"); !strings.Contains(out, "not in the library") {
			t.Errorf("expected absent, got %q", out)
		}
		h.stub.AddToLibrary(models.QueryFor(matrix, nil, nil), "/library/movies/The Matrix.mkv")
		if out := h.mustRun(t, "exists", "--tmdb", "603", "--title", "The Matrix"); !strings.Contains(out, "is in the library") {
			t.Errorf("expected present, got %q", out)
		}

		for _, ep := range []int{1, 2} {
			h.stub.AddToLibrary(models.QueryFor(thrones, models.IntPtr(1), models.IntPtr(ep)), "/library/shows/got.mkv")
		}
		out := h.mustRun(t, "exists", "--tmdb", "1399", "--type", "tv", "--title", "Game of Thrones", "--season", "1")
		if !strings.Contains(out, "2 of 10 episodes") {
			t.Errorf("expected season summary, got %q", out)
		}

		if out := h.mustRun(t, "test-link", "/library/movies/The Matrix.mkv"); !strings.Contains(out, "resolves") {
			t.Errorf("expected a live link, got %q", out)
		}
		if out := h.mustRun(t, "test-link", "/nowhere.mkv"); !strings.Contains(out, "dead") {
			t.Errorf("expected a dead link, got %q", out)
		}

		if out := h.mustRun(t, "browse", "/movies"); !strings.Contains(out, "Inception.2010.2160p.mkv") {
			t.Errorf("expected remote listing, got %q", out)
		}
		if err := h.run(t, "browse", "/nope"); err == nil || !strings.Contains(err.Error(), "Path not found") {
			t.Errorf("expected path error, got %v", err)
		}

		out = h.mustRun(t, "link", "--tmdb", "27205", "--title", "Inception", "--path", "movies/Inception.2010.2160p.mkv")
		if !strings.Contains(out, "Linked") {
			t.Errorf("expected link confirmation, got %q", out)
		}
		if err := h.run(t, "link", "--tmdb", "27205", "--title", "Inception", "--path", "movies/missing.mkv"); err == nil || !strings.Contains(err.Error(), "Source file not found") {
			t.Errorf("expected missing source detail, got %v", err)
		}
	})

	t.Run("Library Management", func(t *testing.T) {
		h := newHarness(t)
		if out := h.mustRun(t, "library", "list"); !strings.Contains(out, "empty") {
			t.Errorf("expected an empty library, got %q", out)
		}

		matrix := models.ExistsQuery{Title: "The Matrix", Year: "1999", MediaType: models.MediaMovie, TMDBID: 603}
		moviePath := server.LibraryPath(matrix, "The.Matrix.1999.mkv")
		h.stub.AddToLibrary(matrix, moviePath)
		thrones := models.ExistsQuery{Title: "Game of Thrones", Year: "2011", MediaType: models.MediaTV, TMDBID: 1399}
		var episodes []string
		for _, se := range []int{1, 2} {
			q := thrones
			q.SeasonNumber, q.EpisodeNumber = models.IntPtr(se), models.IntPtr(1)
			p := server.LibraryPath(q, fmt.Sprintf("GoT.S%02dE01.mkv", se))
			h.stub.AddToLibrary(q, p)
			episodes = append(episodes, p)
		}
		h.stub.BreakLink(episodes[1])
		showFolder := server.LibraryFolder(thrones)

		out := h.mustRun(t, "library", "list")
		if !strings.Contains(out, "The Matrix (1999) {tmdb-603}") || !strings.Contains(out, "1 movies, 1 shows") {
			t.Errorf("expected both folders, got %q", out)
		}

		out = h.mustRun(t, "library", "structure", "--type", "tv", "--test", showFolder)
		if !strings.Contains(out, "Season 01/") || !strings.Contains(out, "1 of 2 links resolve") {
			t.Errorf("expected a tested tree, got %q", out)
		}
		if h.count("POST /api/library/test_symlink") != 2 {
			t.Errorf("expected every file tested, got %d", h.count("POST /api/library/test_symlink"))
		}
		if err := h.run(t, "library", "structure", "--type", "tv", "Nope"); err == nil || !strings.Contains(err.Error(), "Directory not found") {
			t.Errorf("expected a missing folder error, got %v", err)
		}

		if out := h.mustRun(t, "library", "info", moviePath); !strings.Contains(out, "The.Matrix.1999.mkv") || !strings.Contains(out, "alive") {
			t.Errorf("expected symlink details, got %q", out)
		}

		h.input.WriteString("n\n")
		if err := h.run(t, "library", "rm-season", "--season", "2", showFolder); !errors.Is(err, shared.ErrNotConfirmed) {
			t.Fatalf("expected ErrNotConfirmed, got %v", err)
		}
		if n := h.count("POST /api/library/delete-season"); n != 0 {
			t.Fatalf("expected nothing sent without consent, got %d", n)
		}
		h.input.WriteString("y\n")
		if out := h.mustRun(t, "library", "rm-season", "--season", "2", showFolder); !strings.Contains(out, "Removed season 2") {
			t.Errorf("expected removal confirmation, got %q", out)
		}
		if err := h.run(t, "library", "rm-season", "--yes", "--season", "2", showFolder); err == nil || !strings.Contains(err.Error(), "Season does not exist") {
			t.Errorf("expected the season to be gone, got %v", err)
		}
		if err := h.run(t, "library", "rm-season", "--yes", showFolder); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument without --season, got %v", err)
		}

		h.mustRun(t, "library", "rm", "--yes", episodes[0])
		if out := h.mustRun(t, "exists", "--tmdb", "1399", "--type", "tv", "--title", "Game of Thrones", "--season", "1", "--episode", "1"); !strings.Contains(out, "not in the library") {
			t.Errorf("expected the removed episode to be absent, got %q", out)
		}

		h.mustRun(t, "library", "rm-movie", "--yes", server.LibraryFolder(matrix))
		if err := h.run(t, "library", "rm-series", "--yes", showFolder); err == nil {
			t.Error("expected an emptied series to be gone")
		}
		if out := h.mustRun(t, "library", "list"); !strings.Contains(out, "empty") {
			t.Errorf("expected an empty library again, got %q", out)
		}
	})

	t.Run("Settings", func(t *testing.T) {
		h := newHarness(t)
		out := h.mustRun(t, "settings", "get")
		if !strings.Contains(out, "****") {
			t.Errorf("expected a masked key, got %q", out)
		}
		if out := h.mustRun(t, "settings", "get", "--reveal"); !strings.Contains(out, "http://stub.invalid/manifest.json") {
			t.Errorf("expected the manifest url, got %q", out)
		}

		h.mustRun(t, "settings", "set", "--tmdb-key", "abcd1234")
		out = h.mustRun(t, "settings", "get", "--json")
		if !strings.Contains(out, "abcd1234") || !strings.Contains(out, "manifest.json") {
			t.Errorf("expected the new key and the old url, got %q", out)
		}
		if err := h.run(t, "settings", "set"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := h.run(t, "settings", "set", "--tmdb-key", " "); err == nil || !strings.Contains(err.Error(), "TMDB API key is required") {
			t.Errorf("expected the backend detail, got %v", err)
		}
	})

	t.Run("History", func(t *testing.T) {
		h := newHarness(t)
		if out := h.mustRun(t, "history"); !strings.Contains(out, "No archived jobs") {
			t.Errorf("expected empty history, got %q", out)
		}

		db, err := shared.OpenHistoryDatabase(h.runner.config.Database)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		archiver := repositories.NewHistoryArchiver(repositories.NewJobHistoryRepository(db))
		job := models.Job{ID: "603_0_0", Title: "The Matrix", MediaType: models.MediaMovie, Status: models.StatusCompleted, Message: "Linked"}
		if err := archiver.Archive(context.Background(), job, []string{"Run 1", "Linked"}); err != nil {
			t.Fatalf("archive failed: %v", err)
		}
		db.Close()

		if out := h.mustRun(t, "history"); !strings.Contains(out, "The Matrix") {
			t.Errorf("expected the archived job, got %q", out)
		}
		if out := h.mustRun(t, "history", "--status", "Error"); !strings.Contains(out, "No archived jobs") {
			t.Errorf("expected the status filter to apply, got %q", out)
		}

		dir := t.TempDir()
		csvPath := filepath.Join(dir, "history.csv")
		h.mustRun(t, "history", "--csv", csvPath)
		if body := tu.MustReadFile(t, csvPath); !strings.Contains(body, "603_0_0") {
			t.Errorf("expected the job in the CSV, got %q", body)
		}

		reportPath := filepath.Join(dir, "report.md")
		h.mustRun(t, "report", "--output", reportPath, "603_0_0")
		if body := tu.MustReadFile(t, reportPath); !strings.Contains(body, "Run 1") {
			t.Errorf("expected the log in the report, got %q", body)
		}

		if out := h.mustRun(t, "report", "--stdout", "603_0_0"); !strings.Contains(out, "Linked") {
			t.Errorf("expected text report, got %q", out)
		}
		if err := h.run(t, "report", "nope"); !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Errorf("expected ErrHistoryNotFound, got %v", err)
		}
	})

	t.Run("API", func(t *testing.T) {
		h := newHarness(t)
		if out := h.mustRun(t, "api", "get", "/status"); !strings.Contains(out, "configured") {
			t.Errorf("expected status body, got %q", out)
		}
		if err := h.run(t, "api", "post", "/download", "--data", "{not json"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := h.run(t, "api", "delete", "/downloads/1_0_0"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest for a missing job, got %v", err)
		}
		if out := h.mustRun(t, "api", "dump"); !strings.Contains(out, "active_jobs") {
			t.Errorf("expected dump sections, got %q", out)
		}
	})

	t.Run("Setup", func(t *testing.T) {
		h := newHarness(t)
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")

		h.mustRun(t, "setup", "config", "--config", configPath)
		tu.AssertFileExists(t, configPath)
		if err := h.run(t, "setup", "config", "--config", configPath); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected an existing config to be refused, got %v", err)
		}

		wd := tu.MustGetwd(t)
		t.Cleanup(func() { os.Chdir(wd) })
		tu.MustChdir(t, dir)
		h.mustRun(t, "setup", "database", "--config", configPath)
		tu.AssertFileExists(t, filepath.Join(dir, "medialink.db"))
	})
}

func TestPickStream(t *testing.T) {
	plain := models.Stream{Name: "1080p", URL: "http://a"}
	cached := models.Stream{Name: models.CacheMarker + " 2160p", URL: "http://b"}

	tests := []struct {
		name    string
		streams []models.Stream
		index   int
		want    string
		wantErr error
	}{
		{"First Cached By Default", []models.Stream{plain, cached}, 0, cached.Name, nil},
		{"First When None Cached", []models.Stream{plain}, 0, plain.Name, nil},
		{"Explicit Index", []models.Stream{plain, cached}, 1, plain.Name, nil},
		{"Out Of Range", []models.Stream{plain}, 3, "", shared.ErrInvalidFlag},
		{"Empty", nil, 0, "", shared.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickStream(tt.streams, tt.index)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Name != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Name)
			}
		})
	}
}
