package graphs

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Cloutiere/mermaid/pkg/apperror"
	"github.com/Cloutiere/mermaid/pkg/diagram"
	"github.com/Cloutiere/mermaid/pkg/logger"
	"github.com/Cloutiere/mermaid/pkg/pgutils"
	sdkgraphs "github.com/Cloutiere/mermaid/pkg/sdk/graphs"
	"github.com/Cloutiere/mermaid/pkg/tracing"
)

// SyncStore opens the transactions a synchronization runs in.
type SyncStore interface {
	// BeginSync locks an existing graph. Returns apperror.ErrGraphNotFound
	// when it does not exist.
	BeginSync(ctx context.Context, graphID int64) (SyncTx, error)
	// BeginImport inserts graph and returns a transaction scoped to it.
	BeginImport(ctx context.Context, graph *Graph) (SyncTx, error)
}

// SyncTx is a transaction scoped to one graph. Nothing it writes is
// visible until Commit; Rollback after Commit is a no-op.
type SyncTx interface {
	Graph() *Graph

	ListNodes(ctx context.Context) ([]Node, error)
	ListEdges(ctx context.Context) ([]Edge, error)
	ListSubgraphs(ctx context.Context) ([]Subgraph, error)

	DeleteEdges(ctx context.Context) error
	DeleteStyleDefs(ctx context.Context) error
	DeleteNodes(ctx context.Context, ids []int64) error

	InsertStyleDef(ctx context.Context, style *StyleDef) error
	// UpsertNode inserts a node with a zero ID and assigns its ID,
	// otherwise updates it.
	UpsertNode(ctx context.Context, node *Node) error
	InsertEdge(ctx context.Context, edge *Edge) error

	ClearMembership(ctx context.Context) error
	AssignMembership(ctx context.Context, subgraphID int64, nodeIDs []int64) error
	UpdateSubgraph(ctx context.Context, subgraph *Subgraph) error
	// UpdateGraph persists the direction and source of Graph().
	UpdateGraph(ctx context.Context) error

	Commit() error
	Rollback() error
}

// SyncResult summarizes one synchronization
type SyncResult = sdkgraphs.SyncResult

// Sync phases, logged in this order.
const (
	phaseParsing    = "parsing"
	phaseDiffing    = "diffing"
	phaseCommitting = "committing"
	phaseDone       = "done"
	phaseFailed     = "failed"
)

// Synchronizer applies edited diagram code to a stored graph.
//
// Text is authoritative for structure (nodes present, edges, styles,
// membership, titles). Stored node content that the text cannot express
// survives every pass.
type Synchronizer struct {
	store SyncStore
	log   *slog.Logger
}

// NewSynchronizer creates a synchronizer over store
func NewSynchronizer(store SyncStore, log *slog.Logger) *Synchronizer {
	return &Synchronizer{
		store: store,
		log:   log.With(logger.Scope("graphs.sync")),
	}
}

// Synchronize reconciles graphID with source in one transaction.
func (s *Synchronizer) Synchronize(ctx context.Context, graphID int64, source string) (*SyncResult, error) {
	return s.run(ctx, s.log.With(slog.Int64("graphID", graphID)), source,
		func(ctx context.Context, _ *diagram.ParseResult) (SyncTx, error) {
			return s.store.BeginSync(ctx, graphID)
		})
}

// Import creates a graph in a project from source in one transaction.
func (s *Synchronizer) Import(ctx context.Context, projectID int64, title, source string) (*SyncResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ErrValidation.WithMessage("Title required").WithDetails(map[string]any{
			"title": []string{"must not be blank"},
		})
	}

	return s.run(ctx, s.log.With(slog.Int64("projectID", projectID)), source,
		func(ctx context.Context, parsed *diagram.ParseResult) (SyncTx, error) {
			return s.store.BeginImport(ctx, &Graph{
				ProjectID: projectID,
				Title:     title,
				Direction: parsed.Direction,
			})
		})
}

type beginFunc func(ctx context.Context, parsed *diagram.ParseResult) (SyncTx, error)

func (s *Synchronizer) run(ctx context.Context, log *slog.Logger, source string, begin beginFunc) (result *SyncResult, err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "graphs.sync", attribute.Int("narrative.source.bytes", len(source)))
	defer func() {
		observeSync(err, time.Since(start))
		span.SetAttributes(attribute.String("narrative.sync.outcome", syncOutcome(err)))
		tracing.Finish(span, err)
		if err != nil {
			log.Warn("sync phase", slog.String("phase", phaseFailed), logger.Error(err))
		}
	}()

	log.Debug("sync phase", slog.String("phase", phaseParsing))
	_, parseSpan := tracing.Start(ctx, "graphs.sync.parse")
	parsed, err := diagram.Parse(source)
	tracing.Finish(parseSpan, err)
	if err != nil {
		return nil, parseError(err)
	}

	tx, err := begin(ctx, parsed)
	if err != nil {
		return nil, classifyError(err)
	}
	defer func() { _ = tx.Rollback() }()

	graphID := tx.Graph().ID
	span.SetAttributes(attribute.Int64("narrative.graph.id", graphID))

	log.Debug("sync phase", slog.String("phase", phaseDiffing), slog.Int64("graphID", graphID))
	diffCtx, diffSpan := tracing.Start(ctx, "graphs.sync.diff")
	result, err = reconcile(diffCtx, tx, parsed, source)
	tracing.Finish(diffSpan, err)
	if err != nil {
		return nil, classifyError(err)
	}

	log.Debug("sync phase", slog.String("phase", phaseCommitting))
	_, commitSpan := tracing.Start(ctx, "graphs.sync.commit")
	err = tx.Commit()
	tracing.Finish(commitSpan, err)
	if err != nil {
		return nil, classifyError(err)
	}

	syncNodesDeleted.Add(float64(result.NodesDeleted))
	log.Info("sync phase",
		slog.String("phase", phaseDone),
		slog.Int("nodesCreated", result.NodesCreated),
		slog.Int("nodesUpdated", result.NodesUpdated),
		slog.Int("nodesDeleted", result.NodesDeleted),
		slog.Int("edges", result.Edges),
		slog.Duration("elapsed", time.Since(start)))

	return result, nil
}

func parseError(err error) error {
	var pe *diagram.ParseError
	if !errors.As(err, &pe) {
		return apperror.ErrParse.WithInternal(err)
	}
	details := map[string]any{"reason": pe.Reason}
	if pe.Line > 0 {
		details["line"] = pe.Line
		details["text"] = pe.Text
	}
	return apperror.ErrParse.WithMessage(pe.Error()).WithDetails(details).WithInternal(err)
}

// classifyError maps storage failures during a pass onto the sync error
// taxonomy. Errors that already carry a code pass through unchanged.
func classifyError(err error) error {
	if pgutils.IsUniqueViolation(err) || apperror.IsCode(err, apperror.ErrConflict.Code) {
		return apperror.ErrIntegrity.WithInternal(err)
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.ErrDatabase.WithInternal(err)
}

// reconcile runs the pass against an open transaction. It is separate
// from run so that a malformed parse result can be fed to it directly.
func reconcile(ctx context.Context, tx SyncTx, parsed *diagram.ParseResult, source string) (*SyncResult, error) {
	graph := tx.Graph()
	result := &SyncResult{GraphID: graph.ID, Direction: parsed.Direction}

	existing, err := tx.ListNodes(ctx)
	if err != nil {
		return nil, err
	}
	oldEdges, err := tx.ListEdges(ctx)
	if err != nil {
		return nil, err
	}
	subgraphs, err := tx.ListSubgraphs(ctx)
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[string]*Node, len(existing))
	symbolByID := make(map[int64]string, len(existing))
	for i := range existing {
		bySymbol[existing[i].SymbolicID] = &existing[i]
		symbolByID[existing[i].ID] = existing[i].SymbolicID
	}
	colors := edgeColors(oldEdges, symbolByID)

	// Edges and styles have no identity worth keeping; rebuild them.
	if err := tx.DeleteEdges(ctx); err != nil {
		return nil, err
	}
	if err := tx.DeleteStyleDefs(ctx); err != nil {
		return nil, err
	}
	for _, name := range parsed.StyleOrder {
		style := &StyleDef{GraphID: graph.ID, Name: name, Definition: parsed.Styles[name]}
		if err := tx.InsertStyleDef(ctx, style); err != nil {
			return nil, err
		}
		result.Styles++
	}

	resolved := make(map[string]int64, len(parsed.Nodes))
	for _, def := range parsed.OrderedNodes() {
		if node, ok := bySymbol[def.SymbolicID]; ok {
			if mergeNode(node, def) {
				if err := tx.UpsertNode(ctx, node); err != nil {
					return nil, err
				}
				result.NodesUpdated++
			}
			resolved[def.SymbolicID] = node.ID
			continue
		}

		node := newNode(graph.ID, def)
		if err := tx.UpsertNode(ctx, node); err != nil {
			return nil, err
		}
		resolved[def.SymbolicID] = node.ID
		result.NodesCreated++
	}

	var stale []int64
	for _, n := range existing {
		if _, ok := parsed.Nodes[n.SymbolicID]; !ok {
			stale = append(stale, n.ID)
		}
	}
	if len(stale) > 0 {
		if err := tx.DeleteNodes(ctx, stale); err != nil {
			return nil, err
		}
		result.NodesDeleted = len(stale)
	}

	if err := tx.ClearMembership(ctx); err != nil {
		return nil, err
	}
	bySubgraph := make(map[string]*Subgraph, len(subgraphs))
	for i := range subgraphs {
		bySubgraph[subgraphs[i].SymbolicID] = &subgraphs[i]
	}
	for _, def := range parsed.Subgraphs {
		sg, ok := bySubgraph[def.SymbolicID]
		if !ok {
			result.SkippedSubgraphs = append(result.SkippedSubgraphs, def.SymbolicID)
			continue
		}

		members := make([]int64, 0, len(def.Members))
		for _, m := range def.Members {
			id, ok := resolved[m]
			if !ok {
				return nil, apperror.ErrInternalConsistency.WithDetails(map[string]any{
					"subgraph": def.SymbolicID,
					"node":     m,
				})
			}
			members = append(members, id)
		}
		if err := tx.AssignMembership(ctx, sg.ID, members); err != nil {
			return nil, err
		}

		if mergeSubgraph(sg, def) {
			if err := tx.UpdateSubgraph(ctx, sg); err != nil {
				return nil, err
			}
			result.SubgraphsUpdated++
		}
	}

	for _, def := range parsed.Edges {
		src, okSrc := resolved[def.Source]
		dst, okDst := resolved[def.Target]
		if !okSrc || !okDst {
			return nil, apperror.ErrInternalConsistency.WithDetails(map[string]any{
				"source": def.Source,
				"target": def.Target,
			})
		}
		kind := def.Kind
		if !kind.Valid() {
			kind = diagram.LinkVisible
		}
		edge := &Edge{
			GraphID:      graph.ID,
			SourceNodeID: src,
			TargetNodeID: dst,
			Label:        def.Label,
			Color:        colors[edgeKey(def.Source, def.Target)],
			Kind:         kind,
		}
		if err := tx.InsertEdge(ctx, edge); err != nil {
			return nil, err
		}
		result.Edges++
	}

	graph.Direction = parsed.Direction
	graph.Source = source
	if err := tx.UpdateGraph(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

func newNode(graphID int64, def *diagram.NodeDef) *Node {
	content := def.Content
	if content == "" {
		content = def.SymbolicID
	}
	return &Node{
		GraphID:    graphID,
		SymbolicID: def.SymbolicID,
		Title:      cloneString(def.Title),
		Content:    content,
		StyleRef:   cloneString(def.StyleRef),
	}
}

// mergeNode applies a parsed definition to a stored node and reports
// whether anything changed.
//
// Parsed content is only ever a copy of the title or the symbolic id, so
// it replaces stored content only when it is neither; in practice stored
// content always survives. An untitled node is exported as its symbolic
// id, which must not turn into a stored title.
func mergeNode(node *Node, def *diagram.NodeDef) bool {
	changed := false

	if def.Title != nil && !equalString(node.Title, def.Title) &&
		!(node.Title == nil && *def.Title == node.SymbolicID) {
		node.Title = cloneString(def.Title)
		changed = true
	}

	if !equalString(node.StyleRef, def.StyleRef) {
		node.StyleRef = cloneString(def.StyleRef)
		changed = true
	}

	if def.Content != node.Content && def.Content != "" &&
		def.Content != def.SymbolicID && !equalString(&def.Content, def.Title) {
		node.Content = def.Content
		changed = true
	}

	return changed
}

func mergeSubgraph(sg *Subgraph, def *diagram.SubgraphDef) bool {
	changed := false
	if def.Title != nil && !equalString(sg.Title, def.Title) {
		sg.Title = cloneString(def.Title)
		changed = true
	}
	if !equalString(sg.StyleRef, def.StyleRef) {
		sg.StyleRef = cloneString(def.StyleRef)
		changed = true
	}
	return changed
}

func edgeKey(source, target string) string {
	return source + "\x00" + target
}

// edgeColors keeps the first color seen per (source, target) pair so it
// can be put back on the recreated edge.
func edgeColors(edges []Edge, symbols map[int64]string) map[string]*string {
	colors := make(map[string]*string)
	for _, e := range edges {
		if e.Color == nil {
			continue
		}
		key := edgeKey(symbols[e.SourceNodeID], symbols[e.TargetNodeID])
		if _, ok := colors[key]; !ok {
			colors[key] = cloneString(e.Color)
		}
	}
	return colors
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
