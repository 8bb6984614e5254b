package pathfinding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BuilderOptions configures a ClusterTableBuilder.
type BuilderOptions struct {
	Oracle   VisibilityOracle
	Logger   *zap.Logger
	Ordering Ordering
	// Workers caps the goroutines of the lookup-table pass. Values < 1 mean
	// runtime.NumCPU().
	Workers int
}

// BuilderOption represents a functional option for a ClusterTableBuilder.
type BuilderOption func(*BuilderOptions)

// WithTableOracle sets the oracle used for bridges and route searches.
func WithTableOracle(oracle VisibilityOracle) BuilderOption {
	return func(o *BuilderOptions) {
		o.Oracle = oracle
	}
}

// WithTableLogger sets the builder logger.
func WithTableLogger(logger *zap.Logger) BuilderOption {
	return func(o *BuilderOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithTableOrdering selects the open-list key of route searches.
func WithTableOrdering(ordering Ordering) BuilderOption {
	return func(o *BuilderOptions) {
		o.Ordering = ordering
	}
}

// WithTableWorkers caps the parallelism of the lookup-table pass.
func WithTableWorkers(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.Workers = n
	}
}

// ClusterTableBuilder precomputes exit nodes and the cluster-to-cluster
// route table of a ClusterSet.
type ClusterTableBuilder struct {
	options BuilderOptions
	logger  *zap.Logger
}

// NewClusterTableBuilder creates a builder.
func NewClusterTableBuilder(opts ...BuilderOption) *ClusterTableBuilder {
	cfg := BuilderOptions{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	return &ClusterTableBuilder{options: cfg, logger: cfg.Logger.Named("cluster-table")}
}

// Build runs the bridge pass and the lookup-table pass and publishes both
// results to cs. Nothing is published unless both passes succeed. The graph
// of cs is frozen first; cluster membership and adjacency are fixed after a
// successful build.
//
// ctx cancels the build between route rows.
func (b *ClusterTableBuilder) Build(ctx context.Context, cs *ClusterSet) (err error) {
	if cs == nil {
		return errors.New("pathfinding: cluster set is nil")
	}
	if cs.Built() {
		return ErrTableBuilt
	}

	ctx, span := tracer.Start(ctx, "pathfinding.ClusterTableBuilder.Build",
		trace.WithAttributes(
			attribute.Int("clusters", cs.Len()),
			attribute.Int("workers", b.options.Workers),
		),
	)
	defer span.End()
	began := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		tableBuildDuration.Observe(time.Since(began).Seconds())
	}()

	cs.graph.Freeze()
	b.logger.Info("building cluster table",
		zap.Int("clusters", cs.Len()),
		zap.Int("nodes", cs.graph.Len()),
		zap.Int("workers", b.options.Workers))

	exits, err := b.bridgePass(cs)
	if err != nil {
		return err
	}
	routes, err := b.lookupPass(ctx, cs, exits)
	if err != nil {
		return err
	}
	cs.publish(exits, routes)

	routeCount := 0
	for _, r := range routes {
		routeCount += len(r)
	}
	b.logger.Info("cluster table built",
		zap.Int("routes", routeCount),
		zap.Duration("elapsed", time.Since(began)))
	return nil
}

// bridgePass finds, for every cluster C and declared neighbor N, the
// mutually visible (C node, N node) pair of minimum distance and records the
// C-side node as C's exit toward N.
func (b *ClusterTableBuilder) bridgePass(cs *ClusterSet) ([]map[ClusterID]NodeID, error) {
	g := cs.graph
	exits := make([]map[ClusterID]NodeID, len(cs.clusters))
	for i, c := range cs.clusters {
		exits[i] = make(map[ClusterID]NodeID, len(c.neighbors))
		for _, nid := range c.neighbors {
			neighbor := cs.clusters[nid]
			best := NoNode
			bestDist := math.MaxFloat64
			for _, u := range c.nodes {
				up := g.nodes[u].Position
				for _, v := range neighbor.nodes {
					vp := g.nodes[v].Position
					if !mutuallyVisible(b.options.Oracle, up, vp) {
						continue
					}
					if d := up.Distance(vp); d < bestDist {
						bestDist = d
						best = u
					}
				}
			}
			if best == NoNode {
				return nil, fmt.Errorf("%w: no visible bridge between cluster %d (%s) and cluster %d (%s)",
					ErrInconsistentClusterTable, c.ID, c.Name, neighbor.ID, neighbor.Name)
			}
			exits[i][nid] = best
			b.logger.Debug("bridge",
				zap.Int("cluster", int(c.ID)),
				zap.Int("neighbor", int(nid)),
				zap.Int("exit", int(best)),
				zap.Float64("distance", bestDist))
		}
	}
	return exits, nil
}

// lookupPass computes, for every ordered pair of distinct clusters, the
// cheapest route between any exit node of the first and any exit node of the
// second. Pairs with no node route get no entry. Rows run in parallel; each
// search owns its working state.
func (b *ClusterTableBuilder) lookupPass(ctx context.Context, cs *ClusterSet, exits []map[ClusterID]NodeID) ([]map[ClusterID]Path, error) {
	routes := make([]map[ClusterID]Path, len(cs.clusters))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.options.Workers)
	for i := range cs.clusters {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			row, err := b.routesFrom(cs, ClusterID(i), exits)
			if err != nil {
				return err
			}
			routes[i] = row
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return routes, nil
}

func (b *ClusterTableBuilder) routesFrom(cs *ClusterSet, from ClusterID, exits []map[ClusterID]NodeID) (map[ClusterID]Path, error) {
	fromExits := orderedExits(cs.clusters[from].neighbors, exits[from])
	row := make(map[ClusterID]Path, len(cs.clusters)-1)
	s := heuristicStrategy(b.options.Ordering)

	for _, other := range cs.clusters {
		if other.ID == from {
			continue
		}
		toExits := orderedExits(other.neighbors, exits[other.ID])

		var best Path
		bestCost := math.MaxFloat64
		for _, x := range fromExits {
			for _, y := range toExits {
				res, err := searchNodes(cs.graph, b.options.Oracle, x, y, s)
				if errors.Is(err, ErrUnreachableGoal) {
					continue
				}
				if err != nil {
					return nil, fmt.Errorf("route %d -> %d: %w", from, other.ID, err)
				}
				if cost := res.Path.TotalCost(); cost < bestCost {
					bestCost = cost
					best = res.Path
				}
			}
		}

		if best == nil {
			// One-way edges can leave a linked pair routable in one direction only.
			if cs.Reachable(from, other.ID) {
				b.logger.Warn("no node route between adjacent-reachable clusters",
					zap.Int("from", int(from)),
					zap.Int("to", int(other.ID)))
			}
			continue
		}
		row[other.ID] = best
	}
	return row, nil
}
