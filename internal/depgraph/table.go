package depgraph

import "github.com/localforge/artisan/internal/artifacttype"

// dataFlow is a concept-only downstream target for Architecture per
// spec.md §4.8's table: no built-in artifact type produces it, so it
// never matches an actual registered node, but the edge is still
// authoritative if a custom type is ever registered under that name.
const dataFlow artifacttype.Name = "data-flow"

// dependencyTable is spec.md §4.8's static, concept-only dependency
// table: key types are upstream of every type in their value slice.
// auto_link walks this in reverse (given a newly registered type, find
// every key whose value slice contains it) to find the upstream types to
// link from.
var dependencyTable = map[artifacttype.Name][]artifacttype.Name{
	artifacttype.ERD:          {artifacttype.APIDocs, artifacttype.CodePrototype, artifacttype.Sequence, artifacttype.Class},
	artifacttype.Architecture: {artifacttype.Component, artifacttype.Sequence, dataFlow, artifacttype.CodePrototype},
	artifacttype.APIDocs:      {artifacttype.CodePrototype, artifacttype.VisualPrototype},
	artifacttype.CodePrototype: {artifacttype.VisualPrototype},
	artifacttype.Class:        {artifacttype.CodePrototype},
	artifacttype.Sequence:     {artifacttype.APIDocs, artifacttype.Workflows},
	artifacttype.State:        {artifacttype.CodePrototype},
	artifacttype.Component:    {artifacttype.C4Component, artifacttype.CodePrototype},
	artifacttype.C4Context:    {artifacttype.C4Container},
	artifacttype.C4Container:  {artifacttype.C4Component},
	artifacttype.C4Component:  {artifacttype.C4Deployment, artifacttype.CodePrototype},
	artifacttype.JIRA:         {artifacttype.Workflows, artifacttype.Estimations},
}

// upstreamTypesOf returns every type the table names as upstream of t.
func upstreamTypesOf(t artifacttype.Name) []artifacttype.Name {
	var upstream []artifacttype.Name
	for candidate, downstream := range dependencyTable {
		for _, d := range downstream {
			if d == t {
				upstream = append(upstream, candidate)
				break
			}
		}
	}
	return upstream
}
