package model

// PublishState tells how a mirror path is exposed in the workspace
type PublishState uint8

const (
	// Mirrored paths are exposed as a link to the mirror
	Mirrored PublishState = iota
	// Customized paths are exposed as a locally owned copy
	Customized
	// Excluded paths fail the tag filters and are not exposed
	Excluded
)

func (p PublishState) String() string {
	switch p {
	case Mirrored:
		return "mirrored"
	case Customized:
		return "customized"
	case Excluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name
func (p PublishState) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// PublishEntry is the resolved publication of a single mirror path
type PublishEntry struct {
	Path  string       `json:"path" yaml:"path"`
	State PublishState `json:"state" yaml:"state"`

	// Customizable is set on paths that the current mode expects to be customized
	Customizable bool `json:"customizable,omitempty" yaml:"customizable,omitempty"`

	// CoveredBy is the customized path covering this entry, if any
	CoveredBy string `json:"covered_by,omitempty" yaml:"covered_by,omitempty"`
}
