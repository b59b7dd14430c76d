package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xhad/medisimplify/internal/models"
	"github.com/xhad/medisimplify/pkg/processor"
	"github.com/xhad/medisimplify/pkg/render"
	"github.com/xhad/medisimplify/pkg/simplify"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Config struct {
	Addr           string
	MaxUploadBytes int64
	MaxChars       int
	PreviewChars   int
	TextLayerPages int
	Streaming      bool
	Logger         zerolog.Logger
}

// Streamer produces the simplified text incrementally. *llm.ChatEngine
// implements it.
type Streamer interface {
	SimplifyStream(ctx context.Context, text string) (<-chan string, error)
}

type Server struct {
	config    Config
	processor processor.Processor
	service   *simplify.Service
	streamer  Streamer
	log       zerolog.Logger
}

func New(service *simplify.Service, streamer Streamer, config Config) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.MaxUploadBytes == 0 {
		config.MaxUploadBytes = 50 << 20
	}
	if config.MaxChars == 0 {
		config.MaxChars = 8000
	}
	if config.PreviewChars == 0 {
		config.PreviewChars = 1000
	}
	if config.TextLayerPages == 0 {
		config.TextLayerPages = 10
	}
	return &Server{
		config: config,
		processor: processor.NewWithConfig(processor.ProcessorConfig{
			MaxChars:     config.MaxChars,
			PreviewChars: config.PreviewChars,
		}),
		service:  service,
		streamer: streamer,
		log:      config.Logger,
	}
}

// Handler returns the routed, logged HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /simplify", s.handleSimplify)
	mux.HandleFunc("POST /download", s.handleDownload)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return s.withRequestLog(mux)
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.config.Addr).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

type uploadInfo struct {
	Name   string
	SizeKB string
	Large  bool
}

type extractInfo struct {
	Chars   int
	Preview string
}

type pageView struct {
	Text           string
	MaxChars       int
	TextLayerPages int
	Upload         *uploadInfo
	Extracted      *extractInfo
	NoText         string
	Warnings       []string
	Error          string
	Simplified     string
	SimplifiedHTML template.HTML
}

func (s *Server) newView() *pageView {
	return &pageView{MaxChars: s.config.MaxChars, TextLayerPages: s.config.TextLayerPages}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, view *pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.ExecuteTemplate(w, "page", view); err != nil {
		logger(r).Error().Err(err).Msg("render page")
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, s.newView())
}

var (
	pdfExtensions   = []string{".pdf"}
	imageExtensions = []string{".jpg", ".jpeg", ".png"}
)

func readUpload(r *http.Request, field string, allowed []string) (*models.Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s upload: %w", field, err)
	}
	defer file.Close()
	return uploadFrom(file, header, allowed)
}

func uploadFrom(file multipart.File, header *multipart.FileHeader, allowed []string) (*models.Upload, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	ok := false
	for _, a := range allowed {
		if ext == a {
			ok = true
		}
	}
	if !ok {
		return nil, fmt.Errorf("unsupported file type %q, expected %s", header.Filename, strings.Join(allowed, ", "))
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &models.Upload{Name: header.Filename, Data: data}, nil
}

func (s *Server) handleSimplify(w http.ResponseWriter, r *http.Request) {
	log := logger(r)
	view := s.newView()

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		view.Error = fmt.Sprintf("Error reading upload: %v", err)
		s.render(w, r, http.StatusRequestEntityTooLarge, view)
		return
	}

	text, _ := s.processor.Truncate(r.FormValue("text"))
	view.Text = text
	req := simplify.Request{Text: text}

	var err error
	if req.PDF, err = readUpload(r, "pdf", pdfExtensions); err != nil {
		view.Error = err.Error()
		s.render(w, r, http.StatusBadRequest, view)
		return
	}
	if req.Image, err = readUpload(r, "image", imageExtensions); err != nil {
		view.Error = err.Error()
		s.render(w, r, http.StatusBadRequest, view)
		return
	}

	upload := req.Image
	if upload == nil {
		upload = req.PDF
	}
	if upload != nil {
		view.Upload = &uploadInfo{
			Name:   upload.Name,
			SizeKB: fmt.Sprintf("%.1f", float64(upload.Size())/1024),
			Large:  s.service.LargeFile(upload),
		}
	}

	doc, err := s.service.Extract(r.Context(), req)
	view.Warnings = doc.Warnings
	if upload != nil {
		kind := "PDF"
		if doc.Source == models.SourceImage {
			kind = "image"
		}
		if err != nil {
			log.Warn().Err(err).Str("file", upload.Name).Msg("extraction failed")
			view.Error = fmt.Sprintf("Error processing %s: %v", kind, err)
		}
		if strings.TrimSpace(doc.Content) != "" {
			preview := doc.Content
			if doc.Source == models.SourcePDF {
				preview = s.processor.Preview(doc.Content)
			}
			view.Extracted = &extractInfo{Chars: len([]rune(doc.Content)), Preview: preview}
		} else if err == nil {
			view.NoText = fmt.Sprintf("No text could be extracted from the %s.", kind)
		}
	}

	result, err := s.service.Simplify(r.Context(), doc, nil)
	if err != nil {
		if view.Error == "" {
			view.Error = simplify.Message(err)
		}
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, simplify.ErrEmptyInput) && !errors.Is(err, simplify.ErrSensitiveContent) {
			status = http.StatusBadGateway
		}
		s.render(w, r, status, view)
		return
	}

	html, err := render.HTML(result.Simplified)
	if err != nil {
		html = template.HTML(template.HTMLEscapeString(result.Simplified))
	}
	view.Simplified = result.Simplified
	view.SimplifiedHTML = html
	s.render(w, r, http.StatusOK, view)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("text")
	if strings.TrimSpace(text) == "" {
		http.Error(w, "nothing to download", http.StatusBadRequest)
		return
	}

	switch r.FormValue("format") {
	case "", "txt":
		w.Header().Set("Content-Type", render.TextMIME)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.TextFilename))
		io.WriteString(w, text)
	case "pdf":
		data, err := render.PDF("Simplified Explanation", text)
		if err != nil {
			logger(r).Error().Err(err).Msg("render pdf")
			http.Error(w, "could not build PDF", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", render.PDFMIME)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.PDFFilename))
		w.Write(data)
	default:
		http.Error(w, "unknown format", http.StatusBadRequest)
	}
}
