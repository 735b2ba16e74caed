package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_DirectionRoundTrip(t *testing.T) {
	for _, d := range Directions {
		t.Run(d, func(t *testing.T) {
			out := Generate(&Snapshot{Direction: d})
			assert.Equal(t, "graph "+d, out)

			result, err := Parse(out)
			require.NoError(t, err)
			assert.Equal(t, d, result.Direction)
			assert.Empty(t, result.Nodes)
			assert.Empty(t, result.Edges)
			assert.Empty(t, result.Styles)
		})
	}
}

func TestGenerate_DefaultDirection(t *testing.T) {
	assert.Equal(t, "graph TD", Generate(&Snapshot{}))
	assert.Equal(t, "graph LR", Generate(&Snapshot{Direction: " lr "}))
}

func testSnapshot() *Snapshot {
	return &Snapshot{
		Direction: "lr",
		Styles: []StyleSnapshot{
			{ID: 2, Name: "cold", Definition: "fill:#00f"},
			{ID: 1, Name: "hot", Definition: "fill:#f00"},
		},
		Nodes: []NodeSnapshot{
			{ID: 3, SymbolicID: "C", Title: strPtr("Gamma ray"), Subgraph: "S1"},
			{ID: 1, SymbolicID: "A", Title: strPtr("Start"), StyleRef: strPtr("hot")},
			{ID: 2, SymbolicID: "B", Subgraph: "S1"},
		},
		Subgraphs: []SubgraphSnapshot{
			{ID: 1, SymbolicID: "S1", Title: strPtr("Act One"), StyleRef: strPtr("cold")},
		},
		Edges: []EdgeSnapshot{
			{ID: 2, Source: "B", Target: "C", Label: strPtr("a|b"), Kind: LinkInvisible},
			{ID: 1, Source: "A", Target: "B", Kind: LinkVisible},
		},
	}
}

func TestGenerate_Sections(t *testing.T) {
	want := `graph LR

classDef hot fill:#f00
classDef cold fill:#00f

A[Start]
subgraph S1["Act One"]
B[B]
C["Gamma ray"]
end

class A hot
class S1 cold

A-->B
B---|a/b|C`

	assert.Equal(t, want, Generate(testSnapshot()))
}

func TestGenerate_Deterministic(t *testing.T) {
	s := testSnapshot()
	first := Generate(s)
	assert.Equal(t, first, Generate(s))

	// input order must not matter
	reversed := testSnapshot()
	reversed.Styles[0], reversed.Styles[1] = reversed.Styles[1], reversed.Styles[0]
	reversed.Nodes[0], reversed.Nodes[2] = reversed.Nodes[2], reversed.Nodes[0]
	reversed.Edges[0], reversed.Edges[1] = reversed.Edges[1], reversed.Edges[0]
	assert.Equal(t, first, Generate(reversed))
}

func TestGenerate_OmitsEmptySections(t *testing.T) {
	s := &Snapshot{
		Direction: "TD",
		Nodes: []NodeSnapshot{
			{ID: 1, SymbolicID: "A", Title: strPtr("Alpha")},
			{ID: 2, SymbolicID: "B", Subgraph: "missing"},
		},
		Subgraphs: []SubgraphSnapshot{{ID: 7, SymbolicID: "S9"}},
	}

	assert.Equal(t, "graph TD\n\nA[Alpha]\nB[B]\nsubgraph S9\nend", Generate(s))
}

func TestGenerate_ConcreteExample(t *testing.T) {
	result, err := Parse("graph TD\nA[Start]-->B[End]\nclassDef hot fill:#f00\nclass A hot")
	require.NoError(t, err)

	out := Generate(SnapshotOf(result))
	assert.Equal(t, "graph TD\n\nclassDef hot fill:#f00\n\nA[Start]\nB[End]\n\nclass A hot\n\nA-->B", out)
}

func TestSafeTitle(t *testing.T) {
	tests := []struct {
		title    string
		fallback string
		want     string
	}{
		{"", "A", "A"},
		{"Hello", "A", "Hello"},
		{"Hello World", "A", `"Hello World"`},
		{`Say "hi"`, "A", `"Say #quot;hi#quot;"`},
		{`a"b`, "A", `a#quot;b`},
		{"[x]", "A", `"[x]"`},
		{"{{x}}", "A", `"{{x}}"`},
		{"fill #3", "A", `"fill #3"`},
		{"#quot;", "A", "#35;quot;"},
		{`#35; and "`, "A", `"#35;35; and #quot;"`},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeTitle(tt.title, tt.fallback))
		})
	}
}

func TestSafeLabel(t *testing.T) {
	assert.Equal(t, "a/b/c", SafeLabel("a|b|c"))
	assert.Equal(t, "yes", SafeLabel("  yes "))
	assert.Equal(t, "", SafeLabel(""))
}

func TestGenerate_ParseFixpoint(t *testing.T) {
	sources := []string{
		"graph TD\nA[Start]-->B[End]\nclassDef hot fill:#f00\nclass A hot",
		"graph LR\nsubgraph S1[\"Act #quot;One#quot;\"]\nA[\"x [draft]\"]\nB{{Bee}}\nend\nclass S1 hot\nA---|maybe|B\nB-- back -->A",
		"graph BT\nA-->B\nB-->C\nC-->A\nclass B,C warm\nclassDef warm fill:#fa0,stroke:#333",
		"graph RL\nsubgraph Empty\nend\nX[Solo]",
		"graph TD\nA[#35;quot;]-->B[\"#35;35; x\"]\nC[a#b#quot;]",
	}

	for _, src := range sources {
		first, err := Parse(src)
		require.NoError(t, err)
		canonical := Generate(SnapshotOf(first))

		second, err := Parse(canonical)
		require.NoError(t, err)
		assert.Equal(t, canonical, Generate(SnapshotOf(second)), "source:\n%s", src)

		for id, n := range first.Nodes {
			require.NotNil(t, second.Node(id))
			if n.Title != nil {
				assert.Equal(t, *n.Title, *second.Node(id).Title)
			}
			assert.Equal(t, n.StyleRef, second.Node(id).StyleRef)
		}
		assert.Equal(t, first.Styles, second.Styles)
		assert.Equal(t, first.SubgraphMembers(), second.SubgraphMembers())
	}
}

func TestSafeTitle_DecodesBack(t *testing.T) {
	titles := []string{
		`#quot;`,
		`#35;`,
		`a#b"`,
		`#"`,
		`#quot"`,
		`"#quot;"`,
		`tag #1 "quoted"`,
	}

	for _, title := range titles {
		t.Run(title, func(t *testing.T) {
			result, err := Parse("graph TD\nA[" + SafeTitle(title, "A") + "]")
			require.NoError(t, err)
			require.NotNil(t, result.Node("A").Title)
			assert.Equal(t, title, *result.Node("A").Title)
		})
	}
}
