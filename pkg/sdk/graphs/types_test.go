package graphs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncResult_Changed(t *testing.T) {
	assert.False(t, (&SyncResult{GraphID: 1, Edges: 3, Styles: 2}).Changed())
	assert.True(t, (&SyncResult{NodesDeleted: 1}).Changed())
	assert.True(t, (&SyncResult{SubgraphsUpdated: 1}).Changed())
}

func TestSyncResult_OmitsEmptySkipped(t *testing.T) {
	data, err := json.Marshal(SyncResult{GraphID: 4, Direction: "TD"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "skippedSubgraphs")
	assert.Contains(t, string(data), `"graphId":4`)
}
