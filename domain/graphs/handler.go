package graphs

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Cloutiere/mermaid/internal/server"
	"github.com/Cloutiere/mermaid/pkg/apperror"
)

// Handler handles HTTP requests for graphs and their entities
type Handler struct {
	svc *Service
}

// NewHandler creates a new graph handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}
	return nil
}

var deletedResponse = map[string]string{"status": "deleted"}

// ListGraphs returns the graphs of a project
// GET /api/projects/:id/graphs
func (h *Handler) ListGraphs(c echo.Context) error {
	projectID, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	graphs, err := h.svc.ListGraphs(c.Request().Context(), projectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, graphs)
}

// CreateGraph creates an empty graph in a project
// POST /api/projects/:id/graphs
func (h *Handler) CreateGraph(c echo.Context) error {
	projectID, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req CreateGraphRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	graph, err := h.svc.CreateGraph(c.Request().Context(), projectID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, graph)
}

// Import creates a graph from diagram code
// POST /api/projects/:id/import
func (h *Handler) Import(c echo.Context) error {
	projectID, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req ImportRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.svc.Import(c.Request().Context(), projectID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// GetGraph returns a graph
// GET /api/graphs/:id
// Query params: include=entities adds nodes, edges, styles and subgraphs
func (h *Handler) GetGraph(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	if c.QueryParam("include") == "entities" {
		detail, err := h.svc.GetGraphDetail(c.Request().Context(), id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, detail)
	}
	graph, err := h.svc.GetGraph(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, graph)
}

// UpdateGraph changes a graph's title, direction or layout
// PATCH /api/graphs/:id
func (h *Handler) UpdateGraph(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateGraphRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	graph, err := h.svc.UpdateGraph(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, graph)
}

// DeleteGraph deletes a graph
// DELETE /api/graphs/:id
func (h *Handler) DeleteGraph(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteGraph(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse)
}

// Export returns the graph as diagram code
// GET /api/graphs/:id/export
func (h *Handler) Export(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	code, err := h.svc.Export(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, code)
}

// Synchronize applies edited diagram code to the graph
// PUT /api/graphs/:id/diagram
func (h *Handler) Synchronize(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req DiagramRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.svc.Synchronize(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ListNodes returns the nodes of a graph
// GET /api/graphs/:id/nodes
func (h *Handler) ListNodes(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	nodes, err := h.svc.ListNodes(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nodes)
}

// CreateNode adds a node to a graph
// POST /api/graphs/:id/nodes
func (h *Handler) CreateNode(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req CreateNodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	node, err := h.svc.CreateNode(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, node)
}

// GetNode returns a node
// GET /api/nodes/:id
func (h *Handler) GetNode(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	node, err := h.svc.GetNode(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, node)
}

// UpdateNode changes a node
// PATCH /api/nodes/:id
func (h *Handler) UpdateNode(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateNodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	node, err := h.svc.UpdateNode(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, node)
}

// DeleteNode deletes a node
// DELETE /api/nodes/:id
func (h *Handler) DeleteNode(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteNode(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse)
}

// ListEdges returns the edges of a graph
// GET /api/graphs/:id/edges
func (h *Handler) ListEdges(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	edges, err := h.svc.ListEdges(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, edges)
}

// CreateEdge links two nodes
// POST /api/graphs/:id/edges
func (h *Handler) CreateEdge(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req CreateEdgeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	edge, err := h.svc.CreateEdge(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, edge)
}

// GetEdge returns an edge
// GET /api/edges/:id
func (h *Handler) GetEdge(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	edge, err := h.svc.GetEdge(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, edge)
}

// UpdateEdge changes an edge
// PATCH /api/edges/:id
func (h *Handler) UpdateEdge(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateEdgeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	edge, err := h.svc.UpdateEdge(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, edge)
}

// DeleteEdge deletes an edge
// DELETE /api/edges/:id
func (h *Handler) DeleteEdge(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteEdge(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse)
}

// ListStyles returns the style definitions of a graph
// GET /api/graphs/:id/styles
func (h *Handler) ListStyles(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	styles, err := h.svc.ListStyles(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, styles)
}

// CreateStyle defines a style
// POST /api/graphs/:id/styles
func (h *Handler) CreateStyle(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req CreateStyleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	style, err := h.svc.CreateStyle(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, style)
}

// UpdateStyle renames or redefines a style
// PATCH /api/styles/:id
func (h *Handler) UpdateStyle(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateStyleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	style, err := h.svc.UpdateStyle(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, style)
}

// DeleteStyle deletes a style and clears references to it
// DELETE /api/styles/:id
func (h *Handler) DeleteStyle(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteStyle(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse)
}

// ListSubgraphs returns the subgraphs of a graph
// GET /api/graphs/:id/subgraphs
func (h *Handler) ListSubgraphs(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	subgraphs, err := h.svc.ListSubgraphs(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, subgraphs)
}

// CreateSubgraph adds a subgraph
// POST /api/graphs/:id/subgraphs
func (h *Handler) CreateSubgraph(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req CreateSubgraphRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	subgraph, err := h.svc.CreateSubgraph(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, subgraph)
}

// GetSubgraph returns a subgraph with its members
// GET /api/subgraphs/:id
func (h *Handler) GetSubgraph(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.svc.GetSubgraph(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// UpdateSubgraph changes a subgraph's title or style
// PATCH /api/subgraphs/:id
func (h *Handler) UpdateSubgraph(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateSubgraphRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	subgraph, err := h.svc.UpdateSubgraph(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, subgraph)
}

// DeleteSubgraph deletes a subgraph, keeping its members
// DELETE /api/subgraphs/:id
func (h *Handler) DeleteSubgraph(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSubgraph(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse)
}

// AssignNodes moves nodes into a subgraph
// POST /api/subgraphs/:id/assign
func (h *Handler) AssignNodes(c echo.Context) error {
	return h.membership(c, h.svc.AssignNodes)
}

// UnassignNodes removes nodes from a subgraph
// POST /api/subgraphs/:id/unassign
func (h *Handler) UnassignNodes(c echo.Context) error {
	return h.membership(c, h.svc.UnassignNodes)
}

func (h *Handler) membership(c echo.Context, apply func(ctx context.Context, id int64, req MembershipRequest) (*SubgraphDetail, error)) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req MembershipRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	detail, err := apply(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}
