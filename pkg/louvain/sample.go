package louvain

// SampleGraph returns the six-node graph used when no graph file is given
func SampleGraph() *Graph {
	w := func(v float64) *float64 { return &v }
	return &Graph{
		Nodes: []Node{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}, {ID: "E"}, {ID: "F"}},
		Edges: []Edge{
			{ID: "A-B", Source: "A", Target: "B", Weight: w(5)},
			{ID: "A-C", Source: "A", Target: "C", Weight: w(4)},
			{ID: "A-E", Source: "A", Target: "E", Weight: w(1)},
			{ID: "B-C", Source: "B", Target: "C", Weight: w(2)},
			{ID: "C-D", Source: "C", Target: "D", Weight: w(7)},
			{ID: "D-F", Source: "D", Target: "F", Weight: w(3)},
			{ID: "E-F", Source: "E", Target: "F", Weight: w(8)},
		},
	}
}
