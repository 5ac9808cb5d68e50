// Package api provides the REST API server for beatgrid
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/beatgrid/pkg/beatmap"
	"github.com/james-see/beatgrid/pkg/converter"
)

// @title beatgrid API
// @version 1.0
// @description API for encoding osu! charts into sparse training grids and rebuilding charts from them
// @host localhost:8080
// @BasePath /api/v1

// maxUpload bounds request bodies
const maxUpload = 32 << 20

// ReconstructRequest is the body of POST /api/v1/reconstruct
type ReconstructRequest struct {
	Activations []float64           `json:"activations" binding:"required"`
	Step        int                 `json:"step,omitempty"`
	Difficulty  *beatmap.Difficulty `json:"difficulty,omitempty"`
}

type server struct {
	cfg beatmap.Config
}

// StartServer starts the API server on the specified port
func StartServer(port int, cfg beatmap.Config) error {
	return NewRouter(cfg).Run(fmt.Sprintf(":%d", port))
}

// NewRouter builds the gin engine with every route registered
func NewRouter(cfg beatmap.Config) *gin.Engine {
	s := &server{cfg: cfg}
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/formats", listFormats)
		v1.POST("/encode", s.handleEncode)
		v1.POST("/decode", s.handleDecode)
		v1.POST("/preview", s.handlePreview)
		v1.POST("/reconstruct", s.handleReconstruct)
		v1.POST("/convert/:from/:to", s.handleConvert)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "beatgrid",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the supported file formats and conversion paths
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     []string{"osu", "osg", "midi", "act"},
		"conversions": converter.GetSupportedConversions(),
	})
}

// handleEncode godoc
// @Summary Encode a chart
// @Description Upload an .osu chart and receive its encoded unit as JSON
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true ".osu file to encode"
// @Param step query int false "Slot length in milliseconds (default: 10)"
// @Success 200 {object} converter.EncodedBeatmap
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/encode [post]
func (s *server) handleEncode(c *gin.Context) {
	conv, ok := s.converter(c)
	if !ok {
		return
	}
	data, name, ok := readUpload(c)
	if !ok {
		return
	}
	e, err := conv.Encode(converter.UnitName(name), data)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// handleDecode godoc
// @Summary Rebuild a chart from an encoded unit
// @Description Post an encoded unit and receive a minimal .osu chart
// @Tags convert
// @Accept json
// @Produce text/plain
// @Param unit body converter.EncodedBeatmap true "Encoded unit"
// @Success 200 {string} string
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/decode [post]
func (s *server) handleDecode(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUpload))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}
	out, err := converter.New(s.cfg).OsgToOsu(data)
	if err != nil {
		abortWithError(c, err)
		return
	}
	sendFile(c, "reconstructed", converter.FormatOsu, out)
}

// handlePreview godoc
// @Summary Render a rhythm preview
// @Description Upload an .osu chart or .osg unit and receive a percussion MIDI file
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true ".osu or .osg file"
// @Param step query int false "Slot length in milliseconds (default: 10)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/preview [post]
func (s *server) handlePreview(c *gin.Context) {
	conv, ok := s.converter(c)
	if !ok {
		return
	}
	data, name, ok := readUpload(c)
	if !ok {
		return
	}
	from := detect(name, data)
	if from != converter.FormatOsu && from != converter.FormatOsg {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Preview needs an .osu or .osg file"})
		return
	}
	out, err := conv.Convert(converter.UnitName(name), data, from, converter.FormatMIDI)
	if err != nil {
		abortWithError(c, err)
		return
	}
	sendFile(c, name, converter.FormatMIDI, out)
}

// handleReconstruct godoc
// @Summary Build a chart from activations
// @Description Post an activation sequence and receive a minimal .osu chart
// @Tags convert
// @Accept json
// @Produce text/plain
// @Param request body ReconstructRequest true "Activations, optional step and difficulty"
// @Success 200 {string} string
// @Failure 400 {object} map[string]string
// @Router /api/v1/reconstruct [post]
func (s *server) handleReconstruct(c *gin.Context) {
	var req ReconstructRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg := s.cfg
	if req.Step != 0 {
		cfg.Step = req.Step
	}
	conv := converter.New(cfg)
	if req.Difficulty != nil {
		if err := req.Difficulty.Validate(); err != nil {
			abortWithError(c, err)
			return
		}
		conv.SetDifficulty(*req.Difficulty)
	}
	out, err := conv.Reconstruct(req.Activations)
	if err != nil {
		abortWithError(c, err)
		return
	}
	sendFile(c, "reconstructed", converter.FormatOsu, out)
}

// handleConvert godoc
// @Summary Convert between formats
// @Description Upload a file and receive it converted to another format
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param from path string true "Source format (osu, osg, midi, act)"
// @Param to path string true "Target format (osu, osg, midi, act)"
// @Param file formData file true "File to convert"
// @Param step query int false "Slot length in milliseconds (default: 10)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/convert/{from}/{to} [post]
func (s *server) handleConvert(c *gin.Context) {
	conv, ok := s.converter(c)
	if !ok {
		return
	}
	data, name, ok := readUpload(c)
	if !ok {
		return
	}
	from := converter.Format(c.Param("from"))
	to := converter.Format(c.Param("to"))
	if !supported(from, to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported conversion"})
		return
	}
	out, err := conv.Convert(converter.UnitName(name), data, from, to)
	if err != nil {
		abortWithError(c, err)
		return
	}
	sendFile(c, name, to, out)
}

// converter applies the optional step query parameter
func (s *server) converter(c *gin.Context) (*converter.Converter, bool) {
	cfg := s.cfg
	if v := c.Query("step"); v != "" {
		var step int
		if _, err := fmt.Sscanf(v, "%d", &step); err != nil || step <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "step must be a positive integer"})
			return nil, false
		}
		cfg.Step = step
	}
	return converter.New(cfg), true
}

func readUpload(c *gin.Context) ([]byte, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxUpload))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}
	return data, header.Filename, true
}

func detect(name string, data []byte) converter.Format {
	if f := converter.DetectFormat(name); f != converter.FormatUnknown {
		return f
	}
	return converter.DetectFormatFromContent(data)
}

func supported(from, to converter.Format) bool {
	want := fmt.Sprintf("%s -> %s", from, to)
	for _, c := range converter.GetSupportedConversions() {
		if c == want {
			return true
		}
	}
	return false
}

// abortWithError answers 422 for chart and encoding errors, 500 otherwise
func abortWithError(c *gin.Context, err error) {
	kind := beatmap.ErrorKind(err)
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, beatmap.ErrInvalidConfig):
		status = http.StatusBadRequest
	case kind == "IO":
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}

func sendFile(c *gin.Context, name string, to converter.Format, data []byte) {
	// Generate output filename
	outputName := converter.UnitName(name) + to.Ext()

	var contentType string
	switch to {
	case converter.FormatMIDI:
		contentType = "audio/midi"
	case converter.FormatOsg:
		contentType = "application/json"
	case converter.FormatOsu, converter.FormatActivation:
		contentType = "text/plain; charset=utf-8"
	default:
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName))
	c.Data(http.StatusOK, contentType, data)
}
