package graphql

import (
	"sort"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-louvain/pkg/results"
	"github.com/dd0wney/cluso-louvain/pkg/session"
)

type moveView struct {
	Node string
	From int
	To   int
	Gain float64
}

type communityView struct {
	Index   int
	Members []string
	Size    int
}

type membershipView struct {
	Node      string
	Community int
}

var levelType = graphql.NewObject(graphql.ObjectConfig{
	Name:        "Level",
	Description: "A converged level of the hierarchy",
	Fields: graphql.Fields{
		"index":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"modularity":  &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"ticks":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"passes":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"nodes":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"communities": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var moveType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Move",
	Fields: graphql.Fields{
		"node": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"from": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"to":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"gain": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
	},
})

var communityType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Community",
	Fields: graphql.Fields{
		"index":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"members": &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
		"size":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var membershipType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Membership",
	Fields: graphql.Fields{
		"node":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"community": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var sessionSummaryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SessionSummary",
	Fields: graphql.Fields{
		"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"level":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"nodes":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"phase":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"created":  &graphql.Field{Type: graphql.DateTime},
		"lastUsed": &graphql.Field{Type: graphql.DateTime},
	},
})

var sessionType = graphql.NewObject(graphql.ObjectConfig{
	Name:        "Session",
	Description: "The current state of a stepping session",
	Fields: graphql.Fields{
		"id":               &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"level":            &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"phase":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"pass":             &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"finished":         &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"currentNode":      &graphql.Field{Type: graphql.String},
		"currentNodeIndex": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"currentCommunity": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"candidates":       &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.Int))},
		"gains":            &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.Float))},
		"nodes":            &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
		"modularity":       &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"history":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"levels":           &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(levelType))},
		"lastMove": &graphql.Field{
			Type: moveType,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				v, ok := p.Source.(*session.View)
				if !ok || v.LastMove == nil {
					return nil, nil
				}
				m := v.LastMove
				return moveView{Node: v.Nodes[m.Node], From: m.From, To: m.To, Gain: m.Gain}, nil
			},
		},
		"communities": &graphql.Field{
			Type:        graphql.NewList(graphql.NewNonNull(communityType)),
			Description: "Non-empty communities, keeping their indices",
			Resolve: func(p graphql.ResolveParams) (any, error) {
				v, ok := p.Source.(*session.View)
				if !ok {
					return nil, nil
				}
				out := make([]communityView, 0, len(v.Communities))
				for i, members := range v.Communities {
					if len(members) > 0 {
						out = append(out, communityView{Index: i, Members: members, Size: len(members)})
					}
				}
				return out, nil
			},
		},
	},
})

var runType = graphql.NewObject(graphql.ObjectConfig{
	Name:        "Run",
	Description: "A stored complete run",
	Fields: graphql.Fields{
		"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"createdAt":  &graphql.Field{Type: graphql.DateTime},
		"source":     &graphql.Field{Type: graphql.String},
		"nodes":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"edges":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"modularity": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"levels":     &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(levelType))},
		"communities": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Int),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if r, ok := p.Source.(*results.Run); ok {
					return r.Communities(), nil
				}
				return nil, nil
			},
		},
		"membership": &graphql.Field{
			Type:        graphql.NewList(graphql.NewNonNull(membershipType)),
			Description: "Final community of every input node, sorted by node",
			Resolve: func(p graphql.ResolveParams) (any, error) {
				r, ok := p.Source.(*results.Run)
				if !ok {
					return nil, nil
				}
				out := make([]membershipView, 0, len(r.Membership))
				for node, c := range r.Membership {
					out = append(out, membershipView{Node: node, Community: c})
				}
				sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })
				return out, nil
			},
		},
	},
})
