package diagram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FirstLine(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr bool
		line    int
	}{
		{name: "empty", source: "", wantErr: true},
		{name: "whitespace only", source: "   ", wantErr: true},
		{name: "blank lines only", source: "\n \n\t\n", wantErr: true},
		{name: "wrong keyword", source: "flowchart TD\nA-->B", wantErr: true, line: 1},
		{name: "direction after blank lines is still first", source: "\n\nA-->B\ngraph TD", wantErr: true, line: 3},
		{name: "direction only", source: "graph TD\n"},
		{name: "leading blank lines", source: "\n\ngraph LR\nA-->B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.source)
			if !tt.wantErr {
				require.NoError(t, err)
				require.NotNil(t, result)
				return
			}

			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, IsParseError(err))

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestParse_DirectionOnly(t *testing.T) {
	result, err := Parse("graph td\n")
	require.NoError(t, err)

	assert.Equal(t, "TD", result.Direction)
	assert.Empty(t, result.Nodes)
	assert.Empty(t, result.Edges)
	assert.Empty(t, result.Styles)
	assert.Empty(t, result.Subgraphs)
}

func TestParse_ConcreteExample(t *testing.T) {
	result, err := Parse("graph TD\nA[Start]-->B[End]\nclassDef hot fill:#f00\nclass A hot")
	require.NoError(t, err)

	assert.Equal(t, "TD", result.Direction)
	assert.Equal(t, []string{"A", "B"}, result.NodeOrder)
	assert.Equal(t, &NodeDef{SymbolicID: "A", Title: strPtr("Start"), Content: "Start", StyleRef: strPtr("hot")}, result.Node("A"))
	assert.Equal(t, &NodeDef{SymbolicID: "B", Title: strPtr("End"), Content: "End"}, result.Node("B"))
	assert.Equal(t, []EdgeDef{{Source: "A", Target: "B", Kind: LinkVisible}}, result.Edges)
	assert.Equal(t, map[string]string{"hot": "fill:#f00"}, result.Styles)
}

func TestParse_UnicodeIdentifiers(t *testing.T) {
	result, err := Parse("graph TD\nsubgraph Acte_2[Deux]\nnoeud_é[Titre]\nend\né1-->B\nclassDef chaud fill:#f00\nclass é1 chaud")
	require.NoError(t, err)

	assert.Equal(t, []string{"noeud_é", "é1", "B"}, result.NodeOrder)
	assert.Equal(t, strPtr("Titre"), result.Node("noeud_é").Title)
	assert.Equal(t, []EdgeDef{{Source: "é1", Target: "B", Kind: LinkVisible}}, result.Edges)
	assert.Equal(t, strPtr("chaud"), result.Node("é1").StyleRef)
	assert.Equal(t, map[string][]string{"Acte_2": {"noeud_é"}}, result.SubgraphMembers())
}

func TestParse_Placeholders(t *testing.T) {
	result, err := Parse("graph TD\nA-->B\nclass C hot")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, result.NodeOrder)
	stubA := NodeStub("A")
	assert.Equal(t, &stubA, result.Node("A"))
	assert.Nil(t, result.Node("B").Title)
	assert.Equal(t, "B", result.Node("B").Content)
	assert.Equal(t, strPtr("hot"), result.Node("C").StyleRef)
	assert.Equal(t, "C", result.Node("C").Content)
}

func TestParse_LastWriteWins(t *testing.T) {
	result, err := Parse("graph TD\nclass A hot\nA[One]\nA[Two]\nclass A cold\nA-->B[Bee]")
	require.NoError(t, err)

	a := result.Node("A")
	assert.Equal(t, strPtr("Two"), a.Title)
	assert.Equal(t, "Two", a.Content)
	assert.Equal(t, strPtr("cold"), a.StyleRef)
	assert.Equal(t, strPtr("Bee"), result.Node("B").Title)
	assert.Equal(t, []string{"A", "B"}, result.NodeOrder)
}

func TestParse_StyleOrder(t *testing.T) {
	result, err := Parse("graph TD\nclassDef b fill:#00f\nclassDef a fill:#f00\nclassDef b fill:#0f0")
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, result.StyleOrder)
	assert.Equal(t, "fill:#0f0", result.Styles["b"])
}

func TestParse_Subgraphs(t *testing.T) {
	source := `graph TD
subgraph S1[Act One]
A[Hello]
B[World]
end
C[Outside]
class S1 blue
subgraph S2
end`
	result, err := Parse(source)
	require.NoError(t, err)

	require.Len(t, result.Subgraphs, 2)
	s1 := result.Subgraph("S1")
	require.NotNil(t, s1)
	assert.Equal(t, strPtr("Act One"), s1.Title)
	assert.Equal(t, strPtr("blue"), s1.StyleRef)
	assert.Equal(t, []string{"A", "B"}, s1.Members)

	s2 := result.Subgraph("S2")
	require.NotNil(t, s2)
	assert.Nil(t, s2.Title)
	assert.Empty(t, s2.Members)

	assert.Nil(t, result.Node("S1"), "styling a subgraph must not create a node")
	assert.Equal(t, []string{"A", "B", "C"}, result.NodeOrder)
	assert.Equal(t, map[string][]string{"S1": {"A", "B"}, "S2": {}}, result.SubgraphMembers())
}

func TestParse_SubgraphMembership(t *testing.T) {
	t.Run("node moves to the latest scope", func(t *testing.T) {
		result, err := Parse("graph TD\nsubgraph S1\nA[x]\nB[y]\nend\nsubgraph S2\nA[x]\nend")
		require.NoError(t, err)

		assert.Equal(t, []string{"B"}, result.Subgraph("S1").Members)
		assert.Equal(t, []string{"A"}, result.Subgraph("S2").Members)
	})

	t.Run("redeclaring outside a scope keeps membership", func(t *testing.T) {
		result, err := Parse("graph TD\nsubgraph S1\nA[x]\nend\nA[y]")
		require.NoError(t, err)

		assert.Equal(t, []string{"A"}, result.Subgraph("S1").Members)
		assert.Equal(t, strPtr("y"), result.Node("A").Title)
	})

	t.Run("edges inside a scope do not add members", func(t *testing.T) {
		result, err := Parse("graph TD\nsubgraph S1\nA[x]-->B\nend")
		require.NoError(t, err)

		assert.Empty(t, result.Subgraph("S1").Members)
		assert.Len(t, result.Nodes, 2)
	})

	t.Run("reopening a subgraph appends", func(t *testing.T) {
		result, err := Parse("graph TD\nsubgraph S1[First]\nA[x]\nend\nsubgraph S1\nB[y]\nend")
		require.NoError(t, err)

		require.Len(t, result.Subgraphs, 1)
		assert.Equal(t, strPtr("First"), result.Subgraph("S1").Title)
		assert.Equal(t, []string{"A", "B"}, result.Subgraph("S1").Members)
	})
}

func TestParse_Lenient(t *testing.T) {
	source := "graph LR\r\n%% comment\r\nstyle A fill:#f00\r\nthis is not diagram code\r\nA[Kept]\r\nclick A callback\r\n"
	result, err := Parse(source)
	require.NoError(t, err)

	assert.Equal(t, "LR", result.Direction)
	assert.Equal(t, []string{"A"}, result.NodeOrder)
	assert.Equal(t, strPtr("Kept"), result.Node("A").Title)
}

func TestParse_EdgeLabelsAndKinds(t *testing.T) {
	result, err := Parse("graph TD\nA-->|go|B\nB---C\nC -- back --> A\nA-->A")
	require.NoError(t, err)

	assert.Equal(t, []EdgeDef{
		{Source: "A", Target: "B", Label: strPtr("go"), Kind: LinkVisible},
		{Source: "B", Target: "C", Kind: LinkInvisible},
		{Source: "C", Target: "A", Label: strPtr("back"), Kind: LinkVisible},
		{Source: "A", Target: "A", Kind: LinkVisible},
	}, result.Edges)
}
