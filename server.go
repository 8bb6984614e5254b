package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"waypoint-planner/level"
	"waypoint-planner/pathfinding"
)

// RouteRequest asks for a path to Goal from the node nearest From, or from
// Start when it is set.
type RouteRequest struct {
	From      *pathfinding.Vec3 `json:"from" validate:"required_without=Start"`
	Start     *int              `json:"start,omitempty" validate:"omitempty,gte=0"`
	Goal      *int              `json:"goal" validate:"required,gte=0"`
	Algorithm string            `json:"algorithm,omitempty" validate:"omitempty,max=32"`
}

// Waypoint is one node of a returned path.
type Waypoint struct {
	ID       int              `json:"id"`
	Position pathfinding.Vec3 `json:"position"`
}

// RouteResponse is the result of a route request.
type RouteResponse struct {
	RequestID string     `json:"requestId"`
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	Algorithm string     `json:"algorithm,omitempty"`
	Path      []Waypoint `json:"path"`
	Cost      float64    `json:"cost"`
	Expanded  int        `json:"expanded"`
}

// ReloadRequest asks the server to load the level again.
type ReloadRequest struct {
	Force bool `json:"force"`
}

type requestIDKey struct{}

// server exposes the planner over HTTP. The active planner is swapped under
// mu on reload; requests in flight keep the one they started with.
type server struct {
	cfg      *Config
	logger   *zap.Logger
	validate *validator.Validate
	load     func(ctx context.Context) (*planner, error)

	mu      sync.RWMutex
	planner *planner
}

func newServer(cfg *Config, logger *zap.Logger, load func(ctx context.Context) (*planner, error)) *server {
	return &server{
		cfg:      cfg,
		logger:   logger.Named("http"),
		validate: validator.New(),
		load:     load,
	}
}

func (s *server) current() *planner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.planner
}

func (s *server) swap(p *planner) {
	s.mu.Lock()
	s.planner = p
	s.mu.Unlock()
}

// handler returns the routed, CORS-wrapped HTTP handler.
func (s *server) handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID)
	r.HandleFunc("/route", s.handleRoute).Methods(http.MethodPost)
	r.HandleFunc("/reload", s.handleReload).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/clusters", s.handleClusters).Methods(http.MethodGet)
	r.HandleFunc("/graph/lines", s.handleGraphLines).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// requestID tags every request with an id, echoed in X-Request-ID.
func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		s.logger.Debug("request served",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// POST /route
func (s *server) handleRoute(w http.ResponseWriter, r *http.Request) {
	reqID := requestIDFrom(r.Context())
	log := s.logger.With(zap.String("request_id", reqID))

	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("invalid route body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		log.Info("route request rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := s.current()
	if p == nil {
		writeError(w, http.StatusServiceUnavailable, "no level loaded; POST /reload first")
		return
	}

	algo := p.algorithm
	if req.Algorithm != "" {
		parsed, err := pathfinding.ParseAlgorithm(req.Algorithm)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		algo = parsed
	}

	preq := pathfinding.Request{Goal: pathfinding.NodeID(*req.Goal), Algorithm: algo}
	if req.Start != nil {
		start := pathfinding.NodeID(*req.Start)
		preq.Start = &start
	} else {
		preq.From = *req.From
	}

	res, err := p.engine.Search(r.Context(), preq)
	resp := RouteResponse{RequestID: reqID, Algorithm: algo.String(), Path: []Waypoint{}}
	switch {
	case err == nil:
		resp.Success = true
		resp.Cost = res.Cost
		resp.Expanded = res.Expanded
		for _, n := range res.Path {
			resp.Path = append(resp.Path, Waypoint{ID: int(n.ID), Position: n.Position})
		}
		log.Info("route found",
			zap.Stringer("algorithm", algo),
			zap.Int("waypoints", len(resp.Path)),
			zap.Float64("cost", resp.Cost))
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, pathfinding.ErrUnreachableGoal):
		resp.Message = err.Error()
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, pathfinding.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("route failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// POST /reload
func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With(zap.String("request_id", requestIDFrom(r.Context())))

	// An empty body is a plain reload.
	var req ReloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if s.current() != nil && !req.Force {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"error":   "level already loaded",
			"message": "Set 'force: true' to reload.",
		})
		return
	}

	p, err := s.load(r.Context())
	if err != nil {
		log.Error("reload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.swap(p)

	g := p.engine.Graph()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"nodes":    g.Len(),
		"edges":    g.EdgeCount(),
		"clusters": clusterCount(p),
	})
}

// GET /health
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	p := s.current()
	if p == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "waiting for level",
			"loaded": false,
		})
		return
	}
	g := p.engine.Graph()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"loaded":    true,
		"nodes":     g.Len(),
		"edges":     g.EdgeCount(),
		"clusters":  clusterCount(p),
		"obstacles": p.scene.Len(),
		"algorithm": p.algorithm.String(),
		"loadedAt":  p.loadedAt.Format(time.RFC3339),
	})
}

type clusterView struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Nodes     []int       `json:"nodes"`
	Neighbors []int       `json:"neighbors"`
	ExitNodes map[int]int `json:"exitNodes"`
	Routes    int         `json:"routes"`
}

// GET /clusters
func (s *server) handleClusters(w http.ResponseWriter, r *http.Request) {
	p := s.current()
	if p == nil {
		writeError(w, http.StatusServiceUnavailable, "no level loaded")
		return
	}
	views := []clusterView{}
	if cs := p.engine.Clusters(); cs != nil {
		for _, c := range cs.Clusters() {
			v := clusterView{ID: int(c.ID), Name: c.Name, Nodes: []int{}, Neighbors: []int{}, ExitNodes: map[int]int{}, Routes: c.RouteCount()}
			for _, n := range c.Nodes() {
				v.Nodes = append(v.Nodes, int(n))
			}
			for _, o := range c.Neighbors() {
				v.Neighbors = append(v.Neighbors, int(o))
				if exit, ok := c.ExitNode(o); ok {
					v.ExitNodes[int(o)] = int(exit)
				}
			}
			views = append(views, v)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"clusters": views,
	})
}

// GET /graph/lines
func (s *server) handleGraphLines(w http.ResponseWriter, r *http.Request) {
	p := s.current()
	if p == nil {
		writeError(w, http.StatusServiceUnavailable, "no level loaded")
		return
	}
	lines := level.Segments(p.engine.Graph())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"lines":    lines,
		"numNodes": p.engine.Graph().Len(),
		"numEdges": len(lines),
	})
}

func clusterCount(p *planner) int {
	if cs := p.engine.Clusters(); cs != nil {
		return cs.Len()
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
