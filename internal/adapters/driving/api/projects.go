package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) projectsEnabled(c *gin.Context) bool {
	if s.ports.Projects == nil {
		abortWithError(c, errServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) listProjects(c *gin.Context) {
	if !s.projectsEnabled(c) {
		return
	}
	projects, err := s.ports.Projects.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]ProjectResponse, len(projects))
	for i := range projects {
		out[i] = toProjectResponse(&projects[i])
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

func (s *Server) createProject(c *gin.Context) {
	if !s.projectsEnabled(c) {
		return
	}
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.ports.Projects.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProjectResponse(p))
}

func (s *Server) getProject(c *gin.Context) {
	if !s.projectsEnabled(c) {
		return
	}
	p, err := s.ports.Projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(p))
}

func (s *Server) deleteProject(c *gin.Context) {
	if !s.projectsEnabled(c) {
		return
	}
	if err := s.ports.Projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listItems(c *gin.Context) {
	if !s.projectsEnabled(c) {
		return
	}
	items, err := s.ports.Projects.Items(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = toItemResponse(&items[i])
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (s *Server) addItem(c *gin.Context) {
	if !s.projectsEnabled(c) {
		return
	}
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := s.ports.Projects.AddItem(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toItemResponse(item))
}

func (s *Server) updateItem(c *gin.Context) {
	if !s.projectsEnabled(c) {
		return
	}
	var req ItemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := s.ports.Projects.SetItemDone(c.Request.Context(), c.Param("id"), c.Param("item"), req.Done)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(item))
}
