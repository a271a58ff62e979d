// Package server exposes the consolidation pipeline over HTTP: single
// document extraction, directory batch runs, and session artifact downloads.
package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/batch"
	"github.com/agenthands/lossrun/internal/config"
	"github.com/agenthands/lossrun/internal/core"
	"github.com/agenthands/lossrun/internal/docsource"
)

type Server struct {
	Consolidator *core.Consolidator
	Loader       *docsource.Loader
	Cfg          config.ServerConfig
	BatchCfg     config.BatchConfig
	Log          *zap.Logger
}

func NewServer(c *core.Consolidator, loader *docsource.Loader, cfg config.ServerConfig, batchCfg config.BatchConfig, log *zap.Logger) *Server {
	return &Server{
		Consolidator: c,
		Loader:       loader,
		Cfg:          cfg,
		BatchCfg:     batchCfg,
		Log:          log,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = int64(s.Cfg.MaxUploadMB) << 20

	r.GET("/api/health", s.Health)
	r.POST("/api/extract-full", s.ExtractFull)
	r.POST("/api/extract-batch", s.ExtractBatch)
	r.GET("/api/download/:session/:kind", s.Download)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ExtractFull runs the full pipeline on one uploaded document. Partial
// results are still results: the response is 200 even when every oracle call
// failed and the claim list is empty.
func (s *Server) ExtractFull(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}

	tmp, err := os.MkdirTemp("", "lossrun-upload-*")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
		return
	}
	defer os.RemoveAll(tmp)

	path := filepath.Join(tmp, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
		return
	}

	doc, err := s.Loader.Load(path)
	if err != nil {
		s.Log.Error("source load failed", zap.String("file", file.Filename), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result, err := s.Consolidator.Run(c.Request.Context(), doc, core.RunOptions{
		SourceName:  file.Filename,
		OutputDir:   s.Cfg.OutputDir,
		TargetClaim: c.Query("target_claim"),
	})
	if err != nil {
		s.Log.Error("consolidation failed", zap.String("file", file.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process document"})
		return
	}

	c.JSON(http.StatusOK, result)
}

type extractBatchRequest struct {
	InputDir string `json:"input_dir"`
	Workers  int    `json:"workers"`
}

// ExtractBatch runs the pipeline over a server-local directory of documents.
func (s *Server) ExtractBatch(c *gin.Context) {
	var req extractBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	cfg := s.BatchCfg
	if req.InputDir != "" {
		cfg.InputDir = req.InputDir
	}
	if req.Workers > 0 {
		cfg.Workers = req.Workers
	}
	cfg.OutputDir = s.Cfg.OutputDir

	p := batch.NewProcessor(cfg, s.Consolidator, s.Loader, s.Log)
	report, err := p.Run(c.Request.Context())
	if err != nil {
		s.Log.Error("batch run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

var downloadKinds = map[string]string{
	"schema":   "extracted_schema.json",
	"analysis": "analysis.json",
	"text":     "extracted_text.txt",
	"package":  "verification_package.json",
	"chunking": "chunking_report.json",
}

// Download serves one artifact from a session directory. Session names are
// validated against path traversal before touching the filesystem.
func (s *Server) Download(c *gin.Context) {
	session := c.Param("session")
	kind := c.Param("kind")

	if strings.ContainsAny(session, "/\\") || strings.Contains(session, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	filename, ok := downloadKinds[kind]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown artifact kind"})
		return
	}

	path := filepath.Join(s.Cfg.OutputDir, "extraction_"+session, filename)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
		return
	}
	c.FileAttachment(path, filename)
}
