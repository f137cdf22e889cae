package manifest

import "errors"

var (
	// ErrTransferPending rejects a crew move while another is settling.
	ErrTransferPending = errors.New("crew transfer already in progress")
	// ErrNotPreLaunch rejects roster-changing operations away from a launch site.
	ErrNotPreLaunch = errors.New("vessel is not at a launch site")
	// ErrPartFull rejects seating crew in a full part.
	ErrPartFull = errors.New("part is full")
	// ErrNotCrewable rejects selecting a part with no crew capacity.
	ErrNotCrewable = errors.New("part has no crew capacity")
	// ErrForeignPart rejects selecting a part that is not on the controller's vessel.
	ErrForeignPart = errors.New("part does not belong to vessel")
	// ErrNotAboard rejects moving or removing a member who is not in the part.
	ErrNotAboard = errors.New("crew member is not aboard part")
	// ErrNotAvailable rejects seating a member who is assigned, dead or missing.
	ErrNotAvailable = errors.New("crew member is not available")
	// ErrSamePart rejects moving a member into the part they already occupy.
	ErrSamePart = errors.New("source and destination are the same part")
)
