package http

import (
	"net/http"

	"course-trivia-service/internal/app"
	"github.com/gin-gonic/gin"
)

// ProfileHandler serves the storefront REST API: catalog, profiles,
// purchases, course progress and certificates.
type ProfileHandler struct {
	profiles *app.ProfileService
}

func NewProfileHandler(profiles *app.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Register mounts the routes on r.
func (h *ProfileHandler) Register(r gin.IRouter) {
	r.GET("/catalog", h.Catalog)
	r.POST("/profiles", h.Login)
	r.GET("/profiles/:id", h.GetProfile)
	r.POST("/profiles/:id/purchases", h.Purchase)
	r.GET("/profiles/:id/courses/:courseId/progress", h.Progress)
	r.POST("/profiles/:id/courses/:courseId/tasks/:taskId/toggle", h.ToggleTask)
	r.POST("/profiles/:id/courses/:courseId/certificate", h.Certificate)
}

func (h *ProfileHandler) Catalog(c *gin.Context) {
	catalog, err := h.profiles.Catalog(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

type loginRequest struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required"`
	Career string `json:"career"`
}

// Login creates the profile on first sign-up and returns the stored one afterwards.
func (h *ProfileHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	profile, err := h.profiles.Login(c.Request.Context(), req.Name, req.Email, req.Career)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type purchaseRequest struct {
	CourseID string `json:"courseId" binding:"required"`
}

func (h *ProfileHandler) Purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	profile, err := h.profiles.Purchase(c.Request.Context(), c.Param("id"), req.CourseID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) Progress(c *gin.Context) {
	progress, err := h.profiles.Progress(c.Request.Context(), c.Param("id"), c.Param("courseId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *ProfileHandler) ToggleTask(c *gin.Context) {
	progress, err := h.profiles.ToggleTask(c.Request.Context(), c.Param("id"), c.Param("courseId"), c.Param("taskId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *ProfileHandler) Certificate(c *gin.Context) {
	profile, err := h.profiles.ObtainCertificate(c.Request.Context(), c.Param("id"), c.Param("courseId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
