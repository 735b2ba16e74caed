package diagram

import (
	"regexp"
	"strings"
)

// LineKind is the classification of one body line of diagram code.
type LineKind int

const (
	LineUnknown LineKind = iota
	LineStyleDef
	LineSubgraphStart
	LineSubgraphEnd
	LineNode
	LineClass
	LineEdge
)

func (k LineKind) String() string {
	switch k {
	case LineStyleDef:
		return "style_def"
	case LineSubgraphStart:
		return "subgraph_start"
	case LineSubgraphEnd:
		return "subgraph_end"
	case LineNode:
		return "node"
	case LineClass:
		return "class"
	case LineEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// Line is a classified body line. Which fields are set depends on Kind.
type Line struct {
	Kind LineKind

	// ID is the style name (LineStyleDef), the subgraph id
	// (LineSubgraphStart) or the node id (LineNode).
	ID string
	// Title is the decoded node or subgraph title, nil when absent or empty.
	Title *string
	// Definition is the verbatim style definition of a LineStyleDef.
	Definition string

	// Targets and Style describe a LineClass application.
	Targets []string
	Style   string

	// Edge is set for LineEdge. SourceTitle and TargetTitle carry inline
	// shapes written on either endpoint; HasSourceShape/HasTargetShape tell
	// an empty shape apart from no shape at all.
	Edge           *EdgeDef
	SourceTitle    *string
	TargetTitle    *string
	HasSourceShape bool
	HasTargetShape bool
}

// quoteEntity is how a double quote is written inside a title.
const quoteEntity = "#quot;"

// hashEntity stands for a literal '#' when the title would otherwise be
// ambiguous with an entity.
const hashEntity = "#35;"

const (
	// wordClass is \w widened to any Unicode letter or digit.
	wordClass     = `[\p{L}\p{N}_]`
	symbolPattern = `(` + wordClass + `+)`
	// shapePattern matches an optional node shape: [text] or {{text}}.
	// Quoted text may contain the closing bracket.
	shapePattern = `(?:\s*\[("[^"]*"|[^\]]+)\]|\s*\{\{("[^"]*"|[^}]+)\}\})`
)

var (
	directionPattern     = regexp.MustCompile(`(?i)^graph\s+(\w+)\b`)
	styleDefPattern      = regexp.MustCompile(`(?i)^classDef\s+` + symbolPattern + `\s+(.+?)\s*$`)
	subgraphStartPattern = regexp.MustCompile(`(?i)^subgraph\s+` + symbolPattern + `(?:\s*\[("[^"]*"|[^\]]+)\])?\s*;?\s*$`)
	subgraphEndPattern   = regexp.MustCompile(`(?i)^end\s*;?\s*$`)
	nodePattern          = regexp.MustCompile(`^` + symbolPattern + shapePattern + `\s*;?\s*$`)
	classPattern         = regexp.MustCompile(`(?i)^class\s+(` + wordClass + `+(?:\s*,\s*` + wordClass + `+)*)\s+` + symbolPattern + `\s*;?\s*$`)
	identifierPattern    = regexp.MustCompile(`^` + wordClass + `+$`)
	edgePattern          = regexp.MustCompile(`^` + symbolPattern + shapePattern + `?\s*` +
		`(?:(-->|---)\s*(?:\|([^|]*)\|)?|--\s+([^|]+?)\s*(-->|---))\s*` +
		symbolPattern + shapePattern + `?\s*;?\s*$`)
)

type rule struct {
	kind    LineKind
	pattern *regexp.Regexp
	build   func(m []string) Line
}

// rules are tried in order; the first pattern that matches wins.
var rules = []rule{
	{LineStyleDef, styleDefPattern, buildStyleDef},
	{LineSubgraphStart, subgraphStartPattern, buildSubgraphStart},
	{LineSubgraphEnd, subgraphEndPattern, func([]string) Line { return Line{} }},
	{LineNode, nodePattern, buildNode},
	{LineClass, classPattern, buildClass},
	{LineEdge, edgePattern, buildEdge},
}

// Classify returns the classification of a single body line. The line is
// trimmed first; lines no rule accepts are LineUnknown.
func Classify(line string) Line {
	line = strings.TrimSpace(line)
	if line == "" {
		return Line{Kind: LineUnknown}
	}
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		l := r.build(m)
		l.Kind = r.kind
		return l
	}
	return Line{Kind: LineUnknown}
}

// MatchDirection parses a direction line ("graph TD") and returns the
// upper-cased direction code.
func MatchDirection(line string) (string, bool) {
	m := directionPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// IsIdentifier reports whether s can be used as a node, subgraph or style
// name in diagram code.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

func buildStyleDef(m []string) Line {
	return Line{ID: m[1], Definition: m[2]}
}

func buildSubgraphStart(m []string) Line {
	return Line{ID: m[1], Title: decodeTitle(m[2])}
}

func buildNode(m []string) Line {
	return Line{ID: m[1], Title: decodeTitle(firstNonEmpty(m[2], m[3]))}
}

func buildClass(m []string) Line {
	parts := strings.Split(m[1], ",")
	targets := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			targets = append(targets, p)
		}
	}
	return Line{Targets: targets, Style: m[2]}
}

// Edge submatch layout:
//
//	1 source, 2-3 source shape, 4 connector, 5 pipe label,
//	6 text label, 7 text-form connector, 8 target, 9-10 target shape
func buildEdge(m []string) Line {
	connector, rawLabel := m[4], m[5]
	if connector == "" {
		connector, rawLabel = m[7], m[6]
	}

	edge := &EdgeDef{
		Source: m[1],
		Target: m[8],
		Kind:   LinkKindFromConnector(connector),
	}
	if label := strings.TrimSpace(rawLabel); label != "" {
		edge.Label = &label
	}

	srcShape := firstNonEmpty(m[2], m[3])
	dstShape := firstNonEmpty(m[9], m[10])
	return Line{
		Edge:           edge,
		SourceTitle:    decodeTitle(srcShape),
		TargetTitle:    decodeTitle(dstShape),
		HasSourceShape: srcShape != "",
		HasTargetShape: dstShape != "",
	}
}

// decodeTitle is the inverse of SafeTitle: it strips surrounding quotes and
// turns the entities back into '"' and '#'. Empty titles become nil.
func decodeTitle(raw string) *string {
	t := strings.TrimSpace(raw)
	if len(t) >= 2 && strings.HasPrefix(t, `"`) && strings.HasSuffix(t, `"`) {
		t = t[1 : len(t)-1]
	}
	t = entityDecoder.Replace(t)
	if strings.TrimSpace(t) == "" {
		return nil
	}
	return &t
}

var entityDecoder = strings.NewReplacer(quoteEntity, `"`, hashEntity, "#")

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
