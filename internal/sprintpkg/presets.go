package sprintpkg

import "github.com/localforge/artisan/internal/artifacttype"

// excerptChars is how much of a completed artifact's content is folded
// into the next artifact's enhanced notes, per spec.md §4.9.
const excerptChars = 1500

// presetOrder lists, for each named preset, the artifact types to
// generate and the order to generate them in. Order follows
// internal/depgraph's dependency table: an upstream type (ERD,
// Architecture) is always generated before the downstream types whose
// enhanced notes benefit from it.
var presetOrder = map[string][]artifacttype.Name{
	"full": {
		artifacttype.ERD,
		artifacttype.Architecture,
		artifacttype.Class,
		artifacttype.Sequence,
		artifacttype.Component,
		artifacttype.APIDocs,
		artifacttype.CodePrototype,
		artifacttype.VisualPrototype,
		artifacttype.Workflows,
		artifacttype.JIRA,
		artifacttype.Estimations,
	},
	"backend": {
		artifacttype.ERD,
		artifacttype.Architecture,
		artifacttype.Class,
		artifacttype.Sequence,
		artifacttype.APIDocs,
		artifacttype.CodePrototype,
	},
	"frontend": {
		artifacttype.Architecture,
		artifacttype.Component,
		artifacttype.VisualPrototype,
		artifacttype.CodePrototype,
	},
	"documentation": {
		artifacttype.ERD,
		artifacttype.Architecture,
		artifacttype.APIDocs,
		artifacttype.Workflows,
	},
	"pm": {
		artifacttype.Personas,
		artifacttype.JIRA,
		artifacttype.Workflows,
		artifacttype.Backlog,
		artifacttype.Estimations,
		artifacttype.FeatureScoring,
	},
	"quick": {
		artifacttype.ERD,
		artifacttype.APIDocs,
	},
}

// PresetNames returns the recognized preset identifiers, for CLI help
// text and validation.
func PresetNames() []string {
	names := make([]string, 0, len(presetOrder))
	for name := range presetOrder {
		names = append(names, name)
	}
	return names
}

// resolveOrder returns the ordered artifact list for a preset, or nil if
// the preset is not recognized.
func resolveOrder(preset string) []artifacttype.Name {
	order, ok := presetOrder[preset]
	if !ok {
		return nil
	}
	out := make([]artifacttype.Name, len(order))
	copy(out, order)
	return out
}
