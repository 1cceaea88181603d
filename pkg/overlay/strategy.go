package overlay

// LinkState is the state of a published path, as seen by a LinkStrategy
type LinkState uint8

const (
	// LinkAbsent means that nothing stands at the path
	LinkAbsent LinkState = iota
	// LinkCurrent means that the path is published and up to date with the mirror
	LinkCurrent
	// LinkStale means that the path is published, but out of date with the mirror
	LinkStale
	// LinkOwned means that a file not managed by the strategy stands at the path
	LinkOwned
)

func (s LinkState) String() string {
	switch s {
	case LinkAbsent:
		return "absent"
	case LinkCurrent:
		return "current"
	case LinkStale:
		return "stale"
	case LinkOwned:
		return "owned"
	default:
		return "unknown"
	}
}

// LinkStrategy knows how to expose a mirror path in the published view.
//
// Paths are slash-separated and relative to the root of the mirror.
// Strategies never remove a file they do not manage.
type LinkStrategy interface {
	// Name of the strategy
	Name() string

	// Inspect what currently stands at a published path. mirrorHash is the content hash of the mirror file.
	Inspect(rel, mirrorHash string) (LinkState, error)

	// Manages tells if the strategy manages the publication at a path
	Manages(rel string) (bool, error)

	// Publish a mirror path, replacing any stale publication
	Publish(rel string) error

	// Retract a publication. Paths not managed by the strategy are left untouched.
	Retract(rel string) error

	// Release hands over a published path to the user: the strategy stops managing it.
	// Links are removed, copies are left in place.
	Release(rel string) error

	// Managed lists the paths currently published by the strategy, sorted
	Managed() ([]string, error)

	// Commit persists the state of the strategy, if any
	Commit() error
}
