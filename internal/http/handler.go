package http

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/opstudy/internal/report"
	"go.ngs.io/opstudy/internal/usecase"
)

const dateLayout = "2006-01-02"

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Handler handles HTTP requests for operational studies.
type Handler struct {
	studyUC *usecase.StudyUseCase
	results *ResultStore
}

// NewHandler creates a new HTTP handler.
func NewHandler(studyUC *usecase.StudyUseCase, results *ResultStore) *Handler {
	return &Handler{
		studyUC: studyUC,
		results: results,
	}
}

// StudyRequestBody is the JSON body of POST /v1/studies.
type StudyRequestBody struct {
	Airport       string    `json:"airport"`
	Runway        string    `json:"runway"`
	Start         string    `json:"start"`
	End           string    `json:"end"`
	Current       []float64 `json:"current"`
	Proposed      []float64 `json:"proposed"`
	Name          string    `json:"name"`
	EffectiveDate string    `json:"effective_date"`
}

// StudyResponse summarises a completed study.
type StudyResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Lighting    string     `json:"lighting"`
	RVRCurrent  [4]float64 `json:"rvr_current"`
	RVRProposed [4]float64 `json:"rvr_proposed"`
	Rows        int        `json:"rows"`
	RunwayRows  int        `json:"runway_rows"`
	TrafficRows int        `json:"traffic_rows"`
	GoArounds   int        `json:"go_arounds"`
	Warnings    []string   `json:"warnings"`
	Download    string     `json:"download"`
}

// CreateStudy handles POST /v1/studies.
func (h *Handler) CreateStudy(c *gin.Context) {
	var body StudyRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid body: %v", err)})
		return
	}

	if body.Start == "" || body.End == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end dates are required"})
		return
	}
	start, err := time.Parse(dateLayout, body.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid start date (expected YYYY-MM-DD): %v", err)})
		return
	}
	end, err := time.Parse(dateLayout, body.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid end date (expected YYYY-MM-DD): %v", err)})
		return
	}

	if len(body.Current) != 4 || len(body.Proposed) != 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current and proposed must list 4 minima (CAT A to D)"})
		return
	}

	req := usecase.StudyRequest{
		Airport:       body.Airport,
		Runway:        body.Runway,
		Start:         start,
		End:           end,
		Name:          body.Name,
		EffectiveDate: body.EffectiveDate,
	}
	copy(req.Current[:], body.Current)
	copy(req.Proposed[:], body.Proposed)

	result, err := h.studyUC.Execute(c.Request.Context(), req)
	if errors.Is(err, usecase.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("study failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := report.WriteZip(&buf, result.Bundle()); err != nil {
		log.Printf("study %s: failed to package bundle: %v", result.Config.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to package study"})
		return
	}
	h.results.Put(result.Config.ID, result.Config.Name, buf.Bytes())

	resp := StudyResponse{
		ID:          result.Config.ID,
		Name:        result.Config.Name,
		Lighting:    result.Config.Lighting,
		Rows:        len(result.Merged),
		RunwayRows:  len(result.Runway),
		TrafficRows: len(result.Traffic),
		GoArounds:   len(result.GoArounds),
		Warnings:    result.Warnings,
		Download:    fmt.Sprintf("/v1/studies/%s/download", result.Config.ID),
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	for i := range resp.RVRCurrent {
		resp.RVRCurrent[i] = result.Config.Minima.Current[i].VisibilityM
		resp.RVRProposed[i] = result.Config.Minima.Proposed[i].VisibilityM
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadStudy handles GET /v1/studies/:id/download.
func (h *Handler) DownloadStudy(c *gin.Context) {
	name, data, ok := h.results.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "study not found or expired"})
		return
	}

	filename := unsafeFilename.ReplaceAllString(name, "_") + ".zip"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/zip", data)
}

// GetAirports handles GET /v1/airports.
func (h *Handler) GetAirports(c *gin.Context) {
	airports, err := h.studyUC.Airports(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"airports": airports,
		"count":    len(airports),
	})
}

// GetRunways handles GET /v1/airports/:icao/runways.
func (h *Handler) GetRunways(c *gin.Context) {
	icao := c.Param("icao")
	runways, err := h.studyUC.Runways(c.Request.Context(), icao)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(runways) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown airport %s", icao)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"airport": icao,
		"runways": runways,
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"studies": h.results.Len(),
	})
}
