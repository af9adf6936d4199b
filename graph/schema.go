// Package graph exposes the services through the GraphQL schema in
// schema.graphql.
package graph

import (
	_ "embed"

	"github.com/graph-gophers/graphql-go"
)

//go:embed schema.graphql
var schemaSDL string

// maxQueryDepth bounds nested selections such as comments → replies.
const maxQueryDepth = 16

// NewSchema parses the schema and binds it to r.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaSDL, r, graphql.MaxDepth(maxQueryDepth))
}
