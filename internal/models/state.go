package models

import "time"

// LinkState is the liveness of one library path.
type LinkState int

const (
	LinkUntested LinkState = iota
	LinkTesting
	LinkAlive
	LinkDead
)

func (s LinkState) String() string {
	switch s {
	case LinkTesting:
		return "testing"
	case LinkAlive:
		return "alive"
	case LinkDead:
		return "dead"
	default:
		return "untested"
	}
}

// SyncState is the displayed library state of a title or episode.
type SyncState int

const (
	SyncNone SyncState = iota
	SyncPending
	SyncSynced
)

func (s SyncState) String() string {
	switch s {
	case SyncPending:
		return "pending"
	case SyncSynced:
		return "synced"
	default:
		return "none"
	}
}

// Notification is a server-pushed message shown as a toast.
type Notification struct {
	ID      string
	Text    string
	Arrived time.Time
}

// BannerKind classifies locally triggered feedback.
type BannerKind int

const (
	BannerSuccess BannerKind = iota
	BannerError
)

func (k BannerKind) String() string {
	if k == BannerError {
		return "error"
	}
	return "success"
}

// Banner is the single transient feedback slot.
type Banner struct {
	Kind BannerKind
	Text string
}
