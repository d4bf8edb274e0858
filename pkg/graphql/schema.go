// Package graphql exposes sessions and stored runs through a read-only
// GraphQL schema.
package graphql

import (
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-louvain/pkg/results"
	"github.com/dd0wney/cluso-louvain/pkg/session"
)

// SessionSource is the part of the session store the schema reads
type SessionSource interface {
	List() []session.Summary
	Get(id string) (*session.Session, error)
}

// Config selects what the schema can see. Runs may be nil, in which case
// the run queries are left out.
type Config struct {
	Sessions SessionSource
	Runs     results.Store
	Limits   LimitConfig
}

// GenerateSchema builds the query schema
func GenerateSchema(cfg Config) (graphql.Schema, error) {
	if cfg.Sessions == nil {
		return graphql.Schema{}, errors.New("session source is required")
	}
	if cfg.Limits == (LimitConfig{}) {
		cfg.Limits = DefaultLimits
	}
	if err := cfg.Limits.Validate(); err != nil {
		return graphql.Schema{}, err
	}

	queryFields := graphql.Fields{
		"health": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return "ok", nil
			},
		},
		"sessions": &graphql.Field{
			Type: graphql.NewList(graphql.NewNonNull(sessionSummaryType)),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return cfg.Sessions.List(), nil
			},
		},
		"session": &graphql.Field{
			Type: sessionType,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				id, _ := p.Args["id"].(string)
				s, err := cfg.Sessions.Get(id)
				if errors.Is(err, session.ErrSessionNotFound) {
					return nil, nil
				}
				if err != nil {
					return nil, err
				}
				return s.Snapshot(), nil
			},
		},
	}

	if cfg.Runs != nil {
		addRunQueries(queryFields, cfg.Runs, cfg.Limits)
	}

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: queryFields,
		}),
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

func addRunQueries(fields graphql.Fields, runs results.Store, limits LimitConfig) {
	fields["runs"] = &graphql.Field{
		Type:        graphql.NewList(graphql.NewNonNull(runType)),
		Description: "Stored runs, newest first",
		Args: graphql.FieldConfigArgument{
			"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: -1},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			requested, _ := p.Args["limit"].(int)
			limit := limits.clamp(requested)
			if limit == 0 {
				return []*results.Run{}, nil
			}
			return runs.ListRuns(p.Context, limit)
		},
	}
	fields["run"] = &graphql.Field{
		Type: runType,
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			id, _ := p.Args["id"].(string)
			run, err := runs.GetRun(p.Context, id)
			if errors.Is(err, results.ErrRunNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return run, nil
		},
	}
}
