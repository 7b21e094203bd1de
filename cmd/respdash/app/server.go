package app

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/respiration-monitor/internal/chart"
	"github.com/roman-kulish/respiration-monitor/internal/config"
	"github.com/roman-kulish/respiration-monitor/internal/dashboard"
	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

const (
	uploadField     = "csvfile"
	multipartMemory = 8 << 20
	staticPrefix    = "/static/"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server serves the upload form, the HTML dashboard and the JSON API.
type Server struct {
	processor *dashboard.Processor
	templates *template.Template
	logger    *slog.Logger

	serviceURL    string
	delivery      chart.Delivery
	outputDir     string
	maxUploadSize int64
}

func NewServer(settings *config.Config, logger *slog.Logger) (*Server, error) {
	processor, err := dashboard.NewProcessor(settings, logger)
	if err != nil {
		return nil, fmt.Errorf("creating processor: %w", err)
	}

	delivery, err := settings.Charts.DeliveryMode()
	if err != nil {
		return nil, err
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &Server{
		processor:     processor,
		templates:     templates,
		logger:        logger,
		serviceURL:    strings.TrimSuffix(settings.Server.ServiceURL, "/"),
		delivery:      delivery,
		outputDir:     settings.Charts.OutputDir,
		maxUploadSize: int64(settings.Server.MaxUploadSize),
	}, nil
}

// Handler returns the routes of the dashboard.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.home)
	mux.HandleFunc("POST /{$}", s.dash)
	mux.HandleFunc("POST /api/analyze", s.analyze)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.delivery == chart.DeliveryFile {
		mux.Handle("GET "+staticPrefix, http.StripPrefix(staticPrefix, http.FileServer(http.Dir(s.outputDir))))
	}
	return s.logRequests(mux)
}

type homeView struct {
	ServiceURL string
	Error      string
}

type chartView struct {
	Name string
	Src  template.URL
}

type dashView struct {
	ServiceURL string
	Source     string
	Samples    string
	Metrics    respiration.Metrics
	Zones      []chart.ZoneCount

	Line      *chartView
	Histogram *chartView
	Pie       *chartView
	Summary   *chartView
}

func (s *Server) home(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, http.StatusOK, "home.html", homeView{ServiceURL: s.serviceURL})
}

func (s *Server) dash(w http.ResponseWriter, r *http.Request) {
	source, body, err := s.upload(w, r)
	if err != nil {
		s.renderPage(w, statusFor(err), "home.html", homeView{ServiceURL: s.serviceURL, Error: err.Error()})
		return
	}
	defer body.Close()

	analysis, artifacts, err := s.process(source, body)
	if err != nil {
		s.logger.Warn("processing failed", slog.String("source", source), slog.String("error", err.Error()))
		s.renderPage(w, statusFor(err), "home.html", homeView{ServiceURL: s.serviceURL, Error: err.Error()})
		return
	}

	view := dashView{
		ServiceURL: s.serviceURL,
		Source:     analysis.Source,
		Samples:    humanize.Comma(int64(analysis.Samples)),
		Metrics:    analysis.Metrics,
		Zones:      analysis.Payload.ZoneCounts(),

		Line:      s.chartView(artifacts, dashboard.ChartLine),
		Histogram: s.chartView(artifacts, dashboard.ChartHistogram),
		Pie:       s.chartView(artifacts, dashboard.ChartPie),
		Summary:   s.chartView(artifacts, dashboard.ChartSummary),
	}
	s.renderPage(w, http.StatusOK, "dash.html", view)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	source, body, err := s.upload(w, r)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	defer body.Close()

	if r.URL.Query().Get("charts") == "false" {
		analysis, err := s.processor.Analyze(source, body)
		if err != nil {
			writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, analysis.Report(nil))
		return
	}

	analysis, artifacts, err := s.process(source, body)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, analysis.Report(artifacts))
}

func (s *Server) process(source string, body io.Reader) (*dashboard.Analysis, map[string]chart.Artifact, error) {
	sink, err := chart.NewSink(s.delivery, s.outputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("creating chart sink: %w", err)
	}
	return s.processor.Process(source, body, sink)
}

// upload returns the uploaded CSV. A multipart form must carry it in the
// csvfile field; any other request body is the CSV itself.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) (string, io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		source := r.URL.Query().Get("name")
		if source == "" {
			source = "upload.csv"
		}
		return source, r.Body, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return "", nil, fmt.Errorf("reading upload: %w", err)
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return "", nil, &requestError{msg: fmt.Sprintf("form field %q with a CSV file is required", uploadField)}
	}
	return filepath.Base(header.Filename), file, nil
}

func (s *Server) chartView(artifacts map[string]chart.Artifact, name string) *chartView {
	a, ok := artifacts[name]
	if !ok {
		return nil
	}

	if a.DataURI != "" {
		return &chartView{Name: name, Src: template.URL(a.DataURI)}
	}

	rel, err := filepath.Rel(s.outputDir, a.Path)
	if err != nil {
		return nil
	}
	return &chartView{Name: name, Src: template.URL(s.serviceURL + staticPrefix + filepath.ToSlash(rel))}
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("rendering page", slog.String("page", name), slog.String("error", err.Error()))
	}
}

// requestError is a client mistake unrelated to the CSV content.
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps pipeline errors to HTTP statuses: bad CSV content is 422,
// everything the client cannot fix is 500.
func statusFor(err error) int {
	var (
		tooLarge  *http.MaxBytesError
		request   *requestError
		malformed *respiration.MalformedInputError
		empty     *respiration.EmptyRecordingError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &request):
		return http.StatusBadRequest
	case errors.As(err, &malformed), errors.As(err, &empty):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(started)),
		)
	})
}
