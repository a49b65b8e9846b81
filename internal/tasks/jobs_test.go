package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/services"
	"github.com/desertthunder/medialink/internal/shared"
)

func newJobController(t *testing.T, fb *fakeBackend) (*JobController, *SymlinkReconciler, *NotificationCenter) {
	t.Helper()
	reg := NewRegistry()
	t.Cleanup(reg.Close)
	notes := NewNotificationCenter(time.Minute, time.Minute, reg, nil)
	links := NewSymlinkReconciler(fb, 100, nil, nil)
	return NewJobController(fb, links, notes, nil, nil), links, notes
}

var (
	matrix  = models.MediaItem{ID: 603, Title: "The Matrix", Year: "1999", MediaType: models.MediaMovie}
	thrones = models.MediaItem{ID: 1399, Title: "Game of Thrones", Year: "2011", MediaType: models.MediaTV}
)

func TestJobController(t *testing.T) {
	stream := models.Stream{Name: "[TB⚡] 1080p", Title: "The Matrix", URL: "https://cdn.example/dl/The.Matrix.1999.1080p.mkv"}

	t.Run("Movie Download Flags Present Until Contradicted", func(t *testing.T) {
		fb := newFakeBackend()
		c, links, notes := newJobController(t, fb)
		target := Target{Item: matrix}

		id, err := c.StartDownload(context.Background(), target, stream)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "603_0_0" {
			t.Errorf("expected job id 603_0_0, got %s", id)
		}
		if got := links.Flag(target.Query()); got != models.SyncSynced {
			t.Errorf("expected present immediately, got %s", got)
		}
		if b, ok := notes.CurrentBanner(); !ok || b.Kind != models.BannerSuccess {
			t.Errorf("expected success banner, got %+v", b)
		}
		if c := fb.callsFor("download")[0]; c.query != "The.Matrix.1999.1080p.mkv" {
			t.Errorf("expected filename from url, got %s", c.query)
		}

		fb.exists = func(q models.ExistsQuery) (bool, error) { return false, nil }
		links.Exists(context.Background(), target.Query())
		if got := links.Flag(target.Query()); got != models.SyncNone {
			t.Errorf("expected absence to revert the flag, got %s", got)
		}
	})

	t.Run("Episode Download Flags Pending", func(t *testing.T) {
		fb := newFakeBackend()
		c, links, _ := newJobController(t, fb)
		target := Target{Item: thrones, Season: models.IntPtr(1), Episode: models.IntPtr(2)}

		id, err := c.StartDownload(context.Background(), target, stream)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "1399_1_2" {
			t.Errorf("expected job id 1399_1_2, got %s", id)
		}
		if got := links.Flag(target.Query()); got != models.SyncPending {
			t.Errorf("expected pending, got %s", got)
		}
		if got := links.Flag(Target{Item: thrones}.Query()); got != models.SyncNone {
			t.Errorf("the series itself must not be flagged, got %s", got)
		}
	})

	t.Run("Manual Link Flags Synced", func(t *testing.T) {
		fb := newFakeBackend()
		c, links, _ := newJobController(t, fb)
		target := Target{Item: thrones, Season: models.IntPtr(1), Episode: models.IntPtr(3)}

		if err := c.ManualLink(context.Background(), target, "/shows/got/s01e03.mkv"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := links.Flag(target.Query()); got != models.SyncSynced {
			t.Errorf("expected synced, got %s", got)
		}
		if c := fb.callsFor("manual_link")[0]; c.id != "1399_1_3" {
			t.Errorf("expected job id to be sent, got %s", c.id)
		}
	})

	t.Run("Failure Shows Backend Detail", func(t *testing.T) {
		fb := newFakeBackend()
		fb.cmdErr = &services.APIError{Status: 404, Detail: "Source file not found"}
		c, links, notes := newJobController(t, fb)
		target := Target{Item: matrix}

		if err := c.ManualLink(context.Background(), target, "/missing.mkv"); err == nil {
			t.Fatal("expected error")
		}
		b, ok := notes.CurrentBanner()
		if !ok || b.Kind != models.BannerError || b.Text != "Source file not found" {
			t.Errorf("expected detail banner, got %+v", b)
		}
		if got := links.Flag(target.Query()); got != models.SyncNone {
			t.Errorf("failure must not flag, got %s", got)
		}
		if n := len(fb.callsFor("manual_link")); n != 1 {
			t.Errorf("expected no retry, got %d calls", n)
		}
	})

	t.Run("Failure Without Detail Is Generic", func(t *testing.T) {
		fb := newFakeBackend()
		fb.cmdErr = errors.New("dial tcp: connection refused")
		c, _, notes := newJobController(t, fb)

		c.Pause(context.Background(), "603_0_0")
		if b, _ := notes.CurrentBanner(); b.Text != shared.GenericFailure {
			t.Errorf("expected generic failure, got %q", b.Text)
		}
	})

	t.Run("Delete Requires Confirmation", func(t *testing.T) {
		tc := []struct {
			name      string
			confirm   Confirmer
			wantCalls int
			wantErr   error
		}{
			{name: "nil confirmer", confirm: nil, wantCalls: 0, wantErr: shared.ErrNotConfirmed},
			{name: "declined", confirm: ConfirmFunc(func(string) bool { return false }), wantCalls: 0, wantErr: shared.ErrNotConfirmed},
			{name: "accepted", confirm: ConfirmFunc(func(string) bool { return true }), wantCalls: 1},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				fb := newFakeBackend()
				c, _, notes := newJobController(t, fb)

				err := c.Delete(context.Background(), "603_0_0", tt.confirm)
				if !errors.Is(err, tt.wantErr) && !(tt.wantErr == nil && err == nil) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if n := len(fb.callsFor("delete")); n != tt.wantCalls {
					t.Errorf("expected %d delete requests, got %d", tt.wantCalls, n)
				}
				if _, ok := notes.CurrentBanner(); ok {
					t.Error("delete should not show a banner here")
				}
			})
		}
	})

	t.Run("Pause And Resume Do Not Touch Snapshot", func(t *testing.T) {
		fb := newFakeBackend()
		c, _, _ := newJobController(t, fb)

		if err := c.Pause(context.Background(), "j1"); err != nil {
			t.Fatal(err)
		}
		if err := c.Resume(context.Background(), "j1"); err != nil {
			t.Fatal(err)
		}
		if len(fb.callsFor("pause")) != 1 || len(fb.callsFor("resume")) != 1 {
			t.Error("expected one request each")
		}
	})

	t.Run("FetchStreams Derives Cache Flags", func(t *testing.T) {
		fb := newFakeBackend()
		fb.streams = []models.Stream{
			{Name: "[TB⚡] 2160p", URL: "https://cdn/a.mkv"},
			{Name: "⚡ cached", URL: "https://cdn/b.mkv"},
			{Name: "[TB+] 1080p", URL: "https://cdn/c.mkv"},
			{Name: "plain", Title: "no url"},
		}
		c, _, _ := newJobController(t, fb)
		target := Target{Item: thrones, Season: models.IntPtr(1), Episode: models.IntPtr(2)}

		streams, err := c.FetchStreams(context.Background(), target)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []bool{true, true, false, false}
		for i, s := range streams {
			if c.IsCached(s) != want[i] {
				t.Errorf("stream %q: expected cached=%v", s.Name, want[i])
			}
		}
		if id := fb.callsFor("streams")[0].id; id != "1399:1:2" {
			t.Errorf("expected compound id, got %s", id)
		}
	})

	t.Run("SaveSettings", func(t *testing.T) {
		fb := newFakeBackend()
		c, _, notes := newJobController(t, fb)

		if err := c.SaveSettings(context.Background(), models.Settings{TMDBAPIKey: "k"}); err != nil {
			t.Fatal(err)
		}
		if b, _ := notes.CurrentBanner(); b.Text != "Settings saved" {
			t.Errorf("expected success banner, got %q", b.Text)
		}
	})
}

func TestFilenameEstimate(t *testing.T) {
	tc := []struct {
		name   string
		stream models.Stream
		want   string
	}{
		{name: "behavior hint wins", stream: models.Stream{URL: "https://x/a.mkv", BehaviorHints: models.BehaviorHints{Filename: "Hinted.mp4"}}, want: "Hinted.mp4"},
		{name: "last url segment", stream: models.Stream{URL: "https://x/dl/Movie.2020.mp4"}, want: "Movie.2020.mp4"},
		{name: "escaped segment", stream: models.Stream{URL: "https://x/dl/Movie%202020.webm"}, want: "Movie 2020.webm"},
		{name: "earlier segment with extension", stream: models.Stream{URL: "https://x/Movie.avi/play"}, want: "Movie.avi"},
		{name: "no video extension", stream: models.Stream{URL: "https://x/resolve/123"}, want: "Unknown_42.mkv"},
		{name: "no url", stream: models.Stream{Title: "t"}, want: "Unknown_42.mkv"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilenameEstimate(tt.stream, 42); got != tt.want {
				t.Errorf("FilenameEstimate() = %q, want %q", got, tt.want)
			}
		})
	}
}
