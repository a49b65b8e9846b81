package tasks

import "github.com/desertthunder/medialink/internal/services"

// The backend client satisfies every narrow source the components consume.
var (
	_ StatusSource   = services.Backend(nil)
	_ LogSource      = services.Backend(nil)
	_ Feed           = services.Backend(nil)
	_ Commander      = services.Backend(nil)
	_ LinkChecker    = services.Backend(nil)
	_ LibraryStore   = services.Backend(nil)
	_ SnapshotSource = (*StatusPoller)(nil)
)
