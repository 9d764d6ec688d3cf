package research

import (
	"fmt"

	"github.com/alexxxmf/goresearch/llm"
)

// DepthProfile fixes the budget of one named depth tier. Immutable
// configuration, not session state.
type DepthProfile struct {
	Name               string
	MinInitialQueries  int
	MaxInitialQueries  int
	MinResultsPerQuery int
	MaxResultsPerQuery int
	MaxRounds          int
	// Class biases model quality for the tier; an explicit model in
	// Options takes precedence.
	Class llm.ModelClass
}

var depthProfiles = map[string]DepthProfile{
	"shallow": {
		Name:               "shallow",
		MinInitialQueries:  1,
		MaxInitialQueries:  3,
		MinResultsPerQuery: 3,
		MaxResultsPerQuery: 5,
		MaxRounds:          1,
		Class:              llm.ClassFast,
	},
	"normal": {
		Name:               "normal",
		MinInitialQueries:  3,
		MaxInitialQueries:  4,
		MinResultsPerQuery: 4,
		MaxResultsPerQuery: 6,
		MaxRounds:          3,
		Class:              llm.ClassFast,
	},
	"deep": {
		Name:               "deep",
		MinInitialQueries:  4,
		MaxInitialQueries:  5,
		MinResultsPerQuery: 5,
		MaxResultsPerQuery: 8,
		MaxRounds:          5,
		Class:              llm.ClassFlagship,
	},
}

// ProfileFor returns the depth profile for a tier name. An empty name
// selects "normal".
func ProfileFor(name string) (DepthProfile, error) {
	if name == "" {
		name = "normal"
	}
	profile, ok := depthProfiles[name]
	if !ok {
		return DepthProfile{}, &ValidationError{Field: "depth", Message: fmt.Sprintf("unknown depth tier %q", name)}
	}
	return profile, nil
}

// DepthTiers lists the known tier names.
func DepthTiers() []string {
	return []string{"shallow", "normal", "deep"}
}
