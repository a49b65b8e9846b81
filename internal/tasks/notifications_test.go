package tasks

import (
	"testing"
	"time"

	"github.com/desertthunder/medialink/internal/models"
	tu "github.com/desertthunder/medialink/internal/testing"
)

func TestNotificationCenter(t *testing.T) {
	t.Run("Each Batch Expires On Its Own", func(t *testing.T) {
		reg := NewRegistry()
		defer reg.Close()
		n := NewNotificationCenter(60*time.Millisecond, time.Minute, reg, nil)

		n.PushBatch([]string{"first", "second"})
		time.Sleep(30 * time.Millisecond)
		n.PushBatch([]string{"third"})

		if got := len(n.Toasts()); got != 3 {
			t.Fatalf("expected 3 toasts, got %d", got)
		}

		tu.Eventually(t, time.Second, func() bool { return len(n.Toasts()) == 1 }, "first batch expires")
		if got := n.Toasts()[0].Text; got != "third" {
			t.Errorf("expected the later batch to remain, got %q", got)
		}
		tu.Eventually(t, time.Second, func() bool { return len(n.Toasts()) == 0 }, "second batch expires")
	})

	t.Run("Empty Batch Is Ignored", func(t *testing.T) {
		reg := NewRegistry()
		defer reg.Close()
		n := NewNotificationCenter(time.Minute, time.Minute, reg, nil)

		n.PushBatch(nil)
		n.PushBatch([]string{"", "  "})
		if len(n.Toasts()) != 0 || reg.Len() != 0 {
			t.Error("expected nothing queued")
		}
	})

	t.Run("Toasts Are FIFO With Ids", func(t *testing.T) {
		reg := NewRegistry()
		defer reg.Close()
		n := NewNotificationCenter(time.Minute, time.Minute, reg, nil)

		n.PushBatch([]string{"a", "b"})
		toasts := n.Toasts()
		if toasts[0].Text != "a" || toasts[1].Text != "b" {
			t.Errorf("expected arrival order, got %+v", toasts)
		}
		if toasts[0].ID == "" || toasts[0].ID == toasts[1].ID {
			t.Error("expected unique ids")
		}
	})

	t.Run("Banner Self Clears", func(t *testing.T) {
		reg := NewRegistry()
		defer reg.Close()
		n := NewNotificationCenter(time.Minute, 30*time.Millisecond, reg, nil)

		n.Banner(models.BannerSuccess, "Saved")
		if b, ok := n.CurrentBanner(); !ok || b.Text != "Saved" {
			t.Fatalf("expected banner, got %+v", b)
		}
		tu.Eventually(t, time.Second, func() bool { _, ok := n.CurrentBanner(); return !ok }, "banner clears")
	})

	t.Run("Stale Timer Never Clears A Newer Banner", func(t *testing.T) {
		reg := NewRegistry()
		defer reg.Close()
		n := NewNotificationCenter(time.Minute, 200*time.Millisecond, reg, nil)

		n.Banner(models.BannerError, "first")
		time.Sleep(50 * time.Millisecond)
		n.Banner(models.BannerSuccess, "second")
		time.Sleep(50 * time.Millisecond)

		b, ok := n.CurrentBanner()
		if !ok || b.Text != "second" {
			t.Fatalf("expected the newer banner to survive the old timer, got %+v %v", b, ok)
		}
		tu.Eventually(t, time.Second, func() bool { _, ok := n.CurrentBanner(); return !ok }, "newer banner clears")
	})

	t.Run("Surfaces Are Independent", func(t *testing.T) {
		reg := NewRegistry()
		defer reg.Close()
		n := NewNotificationCenter(time.Minute, time.Minute, reg, nil)

		n.PushBatch([]string{"toast"})
		n.Banner(models.BannerError, "banner")
		if len(n.Toasts()) != 1 {
			t.Error("banner must not touch toasts")
		}
		if _, ok := n.CurrentBanner(); !ok {
			t.Error("toasts must not touch the banner")
		}
	})

	t.Run("Close Disposes Timers", func(t *testing.T) {
		reg := NewRegistry()
		n := NewNotificationCenter(20*time.Millisecond, 20*time.Millisecond, reg, nil)
		n.PushBatch([]string{"toast"})
		n.Banner(models.BannerSuccess, "banner")

		reg.Close()
		time.Sleep(60 * time.Millisecond)
		if len(n.Toasts()) != 1 {
			t.Error("expected disposed toast timer never to fire")
		}
		if _, ok := n.CurrentBanner(); !ok {
			t.Error("expected disposed banner timer never to fire")
		}
	})
}
