package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"waypoint-planner/level"
	"waypoint-planner/pathfinding"
	"waypoint-planner/scene"
)

// planner is one loaded level ready to serve path requests. It is immutable;
// a reload builds a new one.
type planner struct {
	engine    *pathfinding.Engine
	scene     *scene.Scene
	level     *level.Document
	algorithm pathfinding.Algorithm
	loadedAt  time.Time
}

// loadPlanner reads the level and obstacles named by cfg, builds the
// visibility graph and the cluster table, and returns a ready engine.
func loadPlanner(ctx context.Context, cfg *Config, logger *zap.Logger) (*planner, error) {
	started := time.Now()

	doc, err := level.Load(cfg.Level.Path)
	if err != nil {
		return nil, fmt.Errorf("load level %s: %w", cfg.Level.Path, err)
	}
	doc.VisibilityRadius = cfg.Level.radius(doc)

	var obstacles []scene.Obstacle
	if cfg.Level.ObstaclesDir != "" {
		obstacles, err = scene.LoadObstacles(cfg.Level.ObstaclesDir, logger)
		if err != nil {
			return nil, fmt.Errorf("load obstacles: %w", err)
		}
		obstacles = scene.MergeContained(obstacles, logger)
		obstacles = scene.Simplify(obstacles, cfg.Level.SimplifyEpsilon, logger)
	}
	sc := scene.New(obstacles, logger.Named("scene"))

	g, cs, err := level.Build(doc, sc, logger.Named("level"))
	if err != nil {
		return nil, fmt.Errorf("build level: %w", err)
	}
	for _, n := range g.Nodes() {
		if sc.Inside(n.Position) {
			logger.Warn("node inside obstacle", zap.Int("node", int(n.ID)), zap.Stringer("position", n.Position))
		}
	}

	algorithm, err := cfg.Search.algorithm()
	if err != nil {
		return nil, err
	}
	ordering, err := pathfinding.ParseOrdering(cfg.Search.Ordering)
	if err != nil {
		return nil, err
	}
	hierarchy, err := pathfinding.ParseHierarchyMode(cfg.Search.Hierarchy)
	if err != nil {
		return nil, err
	}

	opts := []pathfinding.Option{
		pathfinding.WithOracle(sc),
		pathfinding.WithLogger(logger),
		pathfinding.WithOrdering(ordering),
		pathfinding.WithHierarchyMode(hierarchy),
	}
	if cs.Len() > 0 {
		builder := pathfinding.NewClusterTableBuilder(
			pathfinding.WithTableOracle(sc),
			pathfinding.WithTableLogger(logger),
			pathfinding.WithTableOrdering(ordering),
			pathfinding.WithTableWorkers(cfg.Search.TableWorkers),
		)
		if err := builder.Build(ctx, cs); err != nil {
			return nil, fmt.Errorf("build cluster table: %w", err)
		}
		opts = append(opts, pathfinding.WithClusters(cs))
	}

	engine, err := pathfinding.NewEngine(g, opts...)
	if err != nil {
		return nil, err
	}

	logger.Info("level ready",
		zap.String("level", cfg.Level.Path),
		zap.Int("nodes", g.Len()),
		zap.Int("edges", g.EdgeCount()),
		zap.Int("clusters", cs.Len()),
		zap.Int("obstacles", sc.Len()),
		zap.Duration("elapsed", time.Since(started)))

	return &planner{
		engine:    engine,
		scene:     sc,
		level:     doc,
		algorithm: algorithm,
		loadedAt:  time.Now(),
	}, nil
}
