package pathfinding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options configures an Engine.
type Options struct {
	Oracle    VisibilityOracle
	Clusters  *ClusterSet
	Logger    *zap.Logger
	Ordering  Ordering
	Hierarchy HierarchyMode
}

// Option represents a functional option for configuring an Engine.
type Option func(*Options)

// WithOracle sets the line-of-sight oracle consulted during relaxation.
// Without one every edge is considered visible.
func WithOracle(oracle VisibilityOracle) Option {
	return func(o *Options) {
		o.Oracle = oracle
	}
}

// WithClusters attaches the cluster set used by hierarchical search.
func WithClusters(cs *ClusterSet) Option {
	return func(o *Options) {
		o.Clusters = cs
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithOrdering selects the open-list key. Default is OrderByCostSoFar.
func WithOrdering(ordering Ordering) Option {
	return func(o *Options) {
		o.Ordering = ordering
	}
}

// WithHierarchyMode selects what cross-cluster hierarchical searches return.
// Default is HierarchyFullRoute.
func WithHierarchyMode(mode HierarchyMode) Option {
	return func(o *Options) {
		o.Hierarchy = mode
	}
}

// Request describes one path request.
type Request struct {
	// From is the agent position; the nearest node becomes the start.
	From Vec3
	// Start, when non-nil, is used as the start node instead of resolving From.
	Start     *NodeID
	Goal      NodeID
	Algorithm Algorithm
}

// Engine serves path requests over a frozen graph.
type Engine struct {
	graph   *Graph
	options Options
	logger  *zap.Logger
}

// NewEngine creates an engine over g and freezes g.
func NewEngine(g *Graph, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, errors.New("pathfinding: graph is nil")
	}
	cfg := Options{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Clusters != nil && cfg.Clusters.Graph() != g {
		return nil, errors.New("pathfinding: cluster set belongs to a different graph")
	}
	g.Freeze()
	return &Engine{
		graph:   g,
		options: cfg,
		logger:  cfg.Logger.Named("pathfinding"),
	}, nil
}

// Graph returns the searched graph.
func (e *Engine) Graph() *Graph {
	return e.graph
}

// Clusters returns the attached cluster set, or nil.
func (e *Engine) Clusters() *ClusterSet {
	return e.options.Clusters
}

// ComputePath returns the path from the node nearest agentPos to goal.
// ctx only carries tracing; searches run to completion.
func (e *Engine) ComputePath(ctx context.Context, agentPos Vec3, goal NodeID, algo Algorithm) (Path, error) {
	res, err := e.Search(ctx, Request{From: agentPos, Goal: goal, Algorithm: algo})
	if err != nil {
		return nil, err
	}
	return res.Path, nil
}

// SearchBetween runs algo from a known start node to goal.
func (e *Engine) SearchBetween(ctx context.Context, start, goal NodeID, algo Algorithm) (*Result, error) {
	return e.Search(ctx, Request{Start: &start, Goal: goal, Algorithm: algo})
}

// Search serves one request with fresh working state.
func (e *Engine) Search(ctx context.Context, req Request) (res *Result, err error) {
	_, span := tracer.Start(ctx, "pathfinding.Engine.Search",
		trace.WithAttributes(
			attribute.String("algorithm", req.Algorithm.String()),
			attribute.Int("goal", int(req.Goal)),
		),
	)
	defer span.End()

	began := time.Now()
	defer func() {
		algo := req.Algorithm.String()
		searchDuration.WithLabelValues(algo).Observe(time.Since(began).Seconds())
		searchTotal.WithLabelValues(algo, resultLabel(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.logFailure(req, err)
			return
		}
		searchExpanded.Observe(float64(res.Expanded))
		span.SetAttributes(
			attribute.Int("path_nodes", len(res.Path)),
			attribute.Int("expanded", res.Expanded),
		)
		e.logger.Debug("path found",
			zap.Stringer("algorithm", req.Algorithm),
			zap.Int("start", int(res.Start)),
			zap.Int("goal", int(res.Goal)),
			zap.Int("nodes", len(res.Path)),
			zap.Float64("cost", res.Cost),
			zap.Int("expanded", res.Expanded),
			zap.Duration("elapsed", time.Since(began)))
	}()

	if _, ok := e.graph.Node(req.Goal); !ok {
		return nil, fmt.Errorf("%w: goal node %d not found", ErrInvalidRequest, req.Goal)
	}
	start, err := e.resolveStart(req)
	if err != nil {
		return nil, err
	}

	switch req.Algorithm {
	case UniformCost:
		res, err = searchNodes(e.graph, e.options.Oracle, start, req.Goal, uniformCostStrategy(e.options.Ordering))
	case Heuristic:
		res, err = searchNodes(e.graph, e.options.Oracle, start, req.Goal, heuristicStrategy(e.options.Ordering))
	case Hierarchical:
		res, err = e.searchHierarchical(start, req.Goal)
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %v", ErrInvalidRequest, req.Algorithm)
	}
	if err != nil {
		return nil, err
	}
	res.Algorithm = req.Algorithm
	return res, nil
}

func (e *Engine) resolveStart(req Request) (NodeID, error) {
	if req.Start != nil {
		if _, ok := e.graph.Node(*req.Start); !ok {
			return NoNode, fmt.Errorf("%w: start node %d not found", ErrInvalidRequest, *req.Start)
		}
		return *req.Start, nil
	}
	if !req.From.IsFinite() {
		return NoNode, fmt.Errorf("%w: agent position %v is not finite", ErrInvalidRequest, req.From)
	}
	start, ok := e.graph.Nearest(req.From)
	if !ok {
		return NoNode, fmt.Errorf("%w: no nodes to resolve start position %v", ErrInvalidRequest, req.From)
	}
	return start, nil
}

func (e *Engine) logFailure(req Request, err error) {
	fields := []zap.Field{
		zap.Stringer("algorithm", req.Algorithm),
		zap.Int("goal", int(req.Goal)),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, ErrInconsistentClusterTable):
		e.logger.Error("cluster table inconsistent", fields...)
	case errors.Is(err, ErrUnreachableGoal):
		e.logger.Info("goal unreachable", fields...)
	default:
		e.logger.Warn("path request rejected", fields...)
	}
}
