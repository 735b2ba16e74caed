package graphs

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers graph, node, edge, style and subgraph routes
func RegisterRoutes(e *echo.Echo, h *Handler) {
	projects := e.Group("/api/projects/:id")
	projects.GET("/graphs", h.ListGraphs)
	projects.POST("/graphs", h.CreateGraph)
	projects.POST("/import", h.Import)

	g := e.Group("/api/graphs")
	g.GET("/:id", h.GetGraph)
	g.PATCH("/:id", h.UpdateGraph)
	g.DELETE("/:id", h.DeleteGraph)
	g.GET("/:id/export", h.Export)
	g.PUT("/:id/diagram", h.Synchronize)
	g.GET("/:id/nodes", h.ListNodes)
	g.POST("/:id/nodes", h.CreateNode)
	g.GET("/:id/edges", h.ListEdges)
	g.POST("/:id/edges", h.CreateEdge)
	g.GET("/:id/styles", h.ListStyles)
	g.POST("/:id/styles", h.CreateStyle)
	g.GET("/:id/subgraphs", h.ListSubgraphs)
	g.POST("/:id/subgraphs", h.CreateSubgraph)

	nodes := e.Group("/api/nodes")
	nodes.GET("/:id", h.GetNode)
	nodes.PATCH("/:id", h.UpdateNode)
	nodes.DELETE("/:id", h.DeleteNode)

	edges := e.Group("/api/edges")
	edges.GET("/:id", h.GetEdge)
	edges.PATCH("/:id", h.UpdateEdge)
	edges.DELETE("/:id", h.DeleteEdge)

	styles := e.Group("/api/styles")
	styles.PATCH("/:id", h.UpdateStyle)
	styles.DELETE("/:id", h.DeleteStyle)

	subgraphs := e.Group("/api/subgraphs")
	subgraphs.GET("/:id", h.GetSubgraph)
	subgraphs.PATCH("/:id", h.UpdateSubgraph)
	subgraphs.DELETE("/:id", h.DeleteSubgraph)
	subgraphs.POST("/:id/assign", h.AssignNodes)
	subgraphs.POST("/:id/unassign", h.UnassignNodes)
}
