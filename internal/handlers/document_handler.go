package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"metrika/internal/models"
	"metrika/internal/services"
)

type DocumentHandler struct {
	Service  *services.DocumentService
	Analyses services.AnalysisService
}

func NewDocumentHandler(service *services.DocumentService, analyses services.AnalysisService) *DocumentHandler {
	return &DocumentHandler{Service: service, Analyses: analyses}
}

// ===== CRUD =====

// GET /documents?projectId=
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	docs, err := h.Service.List(c.Request.Context(), queryInt64(c, "projectId"))
	if err != nil {
		respondError(c, "document/list", err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// @Summary  Загрузить документ
// @Tags     Documents
// @Accept   multipart/form-data
// @Produce  json
// @Param    file       formData  file  true   "Файл"
// @Param    projectId  formData  int   false  "Проект"
// @Success  201  {object}  models.Document
// @Router   /documents/upload [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "document/upload", err)
		return
	}
	var projectID *int64
	if v := c.PostForm("projectId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid projectId"})
			return
		}
		projectID = &id
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, "document/upload/open", err)
		return
	}
	defer f.Close()

	doc, err := h.Service.Upload(c.Request.Context(), userID, projectID, fh.Filename, f, fh.Size)
	if err != nil {
		respondError(c, "document/upload", err)
		return
	}
	log.Printf("[document][upload][ok] id=%d name=%q size=%s by=%d", doc.ID, doc.Name, doc.Size, userID)
	c.JSON(http.StatusCreated, doc)
}

// GET /documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.Service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "document/get", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// PATCH /documents/:id
func (h *DocumentHandler) UpdateDocument(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name      *string `json:"name"`
		ProjectID *int64  `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "document/update", err)
		return
	}
	doc, err := h.Service.Update(c.Request.Context(), id, models.DocumentPatch{Name: req.Name, ProjectID: req.ProjectID})
	if err != nil {
		respondError(c, "document/update", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DELETE /documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "document/delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== Анализ =====

// POST /documents/:id/analyze
func (h *DocumentHandler) Analyze(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	a, err := h.Analyses.Analyze(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, "document/analyze", err)
		return
	}
	log.Printf("[document][analyze][ok] document_id=%d analysis_id=%d", id, a.ID)
	c.JSON(http.StatusAccepted, a)
}

// GET /documents/:id/analysis
func (h *DocumentHandler) LatestAnalysis(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	a, err := h.Analyses.LatestForDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, "document/analysis", err)
		return
	}
	c.JSON(http.StatusOK, a)
}
