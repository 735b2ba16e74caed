// Package graphs holds the wire types of the graphs API shared by the server
// and its clients. It has no server dependencies.
package graphs

// DiagramRequest carries diagram code to synchronize into a graph.
type DiagramRequest struct {
	Code string `json:"code"`
}

// SyncResult summarizes one synchronization.
type SyncResult struct {
	GraphID          int64    `json:"graphId"`
	Direction        string   `json:"direction"`
	NodesCreated     int      `json:"nodesCreated"`
	NodesUpdated     int      `json:"nodesUpdated"`
	NodesDeleted     int      `json:"nodesDeleted"`
	Edges            int      `json:"edges"`
	Styles           int      `json:"styles"`
	SubgraphsUpdated int      `json:"subgraphsUpdated"`
	SkippedSubgraphs []string `json:"skippedSubgraphs,omitempty"`
}

// Changed reports whether the synchronization touched any node or subgraph.
func (r *SyncResult) Changed() bool {
	return r.NodesCreated+r.NodesUpdated+r.NodesDeleted+r.SubgraphsUpdated > 0
}
