// SPDX-License-Identifier: MPL-2.0

package server

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dupetable/dupetable/internal/catalog"
	"github.com/dupetable/dupetable/internal/core/serverbase"
	"github.com/dupetable/dupetable/internal/janitor"
	"github.com/dupetable/dupetable/internal/pack"
	"github.com/dupetable/dupetable/internal/ratelimit"
	"github.com/dupetable/dupetable/internal/recipe"
	"github.com/dupetable/dupetable/internal/session"
	"github.com/dupetable/dupetable/internal/stackability"
)

const (
	DefaultHost             = "127.0.0.1"
	DefaultPort             = 5000
	DefaultReadTimeout      = 30 * time.Second
	DefaultWriteTimeout     = 5 * time.Minute
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultStartupTimeout   = 5 * time.Second
	DefaultMaxItems         = 5000
	DefaultMaxUploadBytes   = 16 << 20
	DefaultCustomArchiveTTL = 5 * time.Minute

	standardDownloadName = "minecraft_recipes.zip"
)

//go:embed index.html
var indexHTML []byte

type (
	// Config holds the listener settings and request limits.
	Config struct {
		Host            string
		Port            int
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		StartupTimeout  time.Duration

		MaxItems       int
		MaxNameLength  int
		MaxUploadBytes int64

		// StandardArchive is where /generate publishes and /download reads.
		StandardArchive string
		// TempDir receives custom archives. Empty means os.TempDir.
		TempDir string
		// CustomArchiveTTL is how long a custom archive stays on disk.
		CustomArchiveTTL time.Duration
		// TrustedProxies lists the peers, as IPs or CIDR prefixes, whose
		// X-Forwarded-For header is believed. Empty means the header is ignored.
		TrustedProxies []string
	}

	// Deps are the collaborators the handlers drive. Templates, Assembler,
	// Sessions, Master and Limiter are required.
	Deps struct {
		Templates *recipe.Source
		Assembler *pack.Assembler
		Filter    *stackability.Table
		Sessions  *session.Store
		Master    *session.MasterList
		Limiter   ratelimit.Limiter
		Janitor   *janitor.Scheduler
		Logger    *log.Logger

		TracerProvider trace.TracerProvider
		MeterProvider  metric.MeterProvider
	}

	// Server is the HTTP front end. A Server is single use: once stopped or
	// failed, create a new instance.
	Server struct {
		*serverbase.Base

		cfg    Config
		deps   Deps
		logger *log.Logger
		tel    *telemetry

		proxies []netip.Prefix
		handler http.Handler

		srvMu    sync.Mutex
		srv      *http.Server
		listener net.Listener
		addr     string
	}
)

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Host:             DefaultHost,
		Port:             DefaultPort,
		ReadTimeout:      DefaultReadTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		ShutdownTimeout:  DefaultShutdownTimeout,
		StartupTimeout:   DefaultStartupTimeout,
		MaxItems:         DefaultMaxItems,
		MaxNameLength:    catalog.DefaultMaxNameLength,
		MaxUploadBytes:   DefaultMaxUploadBytes,
		StandardArchive:  "data/output.zip",
		CustomArchiveTTL: DefaultCustomArchiveTTL,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.StartupTimeout <= 0 {
		c.StartupTimeout = d.StartupTimeout
	}
	if c.MaxItems <= 0 {
		c.MaxItems = d.MaxItems
	}
	if c.MaxNameLength <= 0 {
		c.MaxNameLength = d.MaxNameLength
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.StandardArchive == "" {
		c.StandardArchive = d.StandardArchive
	}
	if c.CustomArchiveTTL <= 0 {
		c.CustomArchiveTTL = d.CustomArchiveTTL
	}
	return c
}

// New wires a Server. Port 0 binds an ephemeral port on Start.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Templates == nil || deps.Assembler == nil || deps.Sessions == nil || deps.Master == nil || deps.Limiter == nil {
		return nil, errors.New("server: templates, assembler, sessions, master list and limiter are required")
	}
	if deps.Filter == nil {
		deps.Filter = stackability.Default()
	}
	if deps.Janitor == nil {
		deps.Janitor = janitor.NewScheduler(deps.Logger)
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}

	proxies, err := ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	tel, err := newTelemetry(deps.TracerProvider, deps.MeterProvider)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Base:    serverbase.NewBase(),
		cfg:     cfg.withDefaults(),
		deps:    deps,
		logger:  deps.Logger,
		tel:     tel,
		proxies: proxies,
	}
	s.handler = s.routes()
	return s, nil
}

// ParseTrustedProxies parses IP addresses and CIDR prefixes. A bare address
// becomes a single-host prefix.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("server: trusted proxy %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("server: trusted proxy %q: %w", e, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Address returns the bound host:port, or "" before Start.
func (s *Server) Address() string {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	return s.addr
}

// URL returns the base URL of a started server.
func (s *Server) URL() string {
	if addr := s.Address(); addr != "" {
		return "http://" + addr
	}
	return ""
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /upload-catalog", s.handleUploadCatalog)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("GET /download", s.handleDownload)
	mux.HandleFunc("POST /download-custom", s.handleDownloadCustom)
	mux.HandleFunc("GET /api/last-session", s.handleLastSession)
	mux.HandleFunc("POST /api/update-session", s.handleUpdateSession)

	return s.instrument(securityHeaders(mux))
}

func (s *Server) listenAddr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// classify runs the stackability filter and logs what it removed.
func (s *Server) classify(items []catalog.ItemID) stackability.Result {
	res := s.deps.Filter.Classify(items)
	kv := []any{"total", res.Total(), "stackable", len(res.Stackable), "filtered", len(res.NonStackable)}
	if preview := res.Preview(maxFilteredPreview); len(preview) > 0 {
		kv = append(kv, "filtered_items", catalog.Strings(preview))
	}
	s.logger.Info("items classified", kv...)
	return res
}

const maxFilteredPreview = 20

func (s *Server) templateMissing(path string) string {
	return fmt.Sprintf("Template file '%s' not found.", path)
}
