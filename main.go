package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"waypoint-planner/pathfinding"
)

var (
	configPath string
	verbose    bool

	routeFrom      string
	routeStart     int
	routeGoal      int
	routeAlgorithm string

	cfg    *Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Waypoint path planner for 3D levels",
	Long: `planner computes paths over a waypoint visibility graph.

It loads a level file (nodes, adjacency, clusters) and optional GeoJSON
obstacle footprints, precomputes the cluster route table, and answers
uniform-cost, heuristic and hierarchical path requests.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		// Initialize logger
		zcfg := zap.NewProductionConfig()
		lvl, _ := zapcore.ParseLevel(cfg.Logging.Level)
		if verbose {
			lvl = zapcore.DebugLevel
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// serveCmd runs the HTTP service
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve path requests over HTTP",
	Long: `Loads the configured level and serves:

  POST /route        compute a path
  POST /reload       reload the level (409 unless force is set)
  GET  /health       service status
  GET  /clusters     cluster table summary
  GET  /graph/lines  graph edges for visualization
  GET  /metrics      Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// routeCmd answers a single path request
var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Compute one path and print it as JSON",
	Args:  cobra.NoArgs,
	RunE:  runRoute,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "planner.yaml", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	routeCmd.Flags().StringVar(&routeFrom, "from", "", "Agent position as x,y,z")
	routeCmd.Flags().IntVar(&routeStart, "start", -1, "Start node id (overrides --from)")
	routeCmd.Flags().IntVar(&routeGoal, "goal", -1, "Goal node id")
	routeCmd.Flags().StringVarP(&routeAlgorithm, "algorithm", "a", "", "uniform-cost, heuristic or hierarchical (default from config)")
	_ = routeCmd.MarkFlagRequired("goal")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	load := func(ctx context.Context) (*planner, error) {
		return loadPlanner(ctx, cfg, logger)
	}
	srv := newServer(cfg, logger, load)

	if p, err := load(ctx); err != nil {
		logger.Warn("level not loaded; POST /reload once it is available", zap.Error(err))
	} else {
		srv.swap(p)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Level.Watch {
		lw, err := newLevelWatcher(cfg, func(ctx context.Context) error {
			p, err := load(ctx)
			if err != nil {
				return err
			}
			srv.swap(p)
			return nil
		}, logger)
		if err != nil {
			return fmt.Errorf("watch level: %w", err)
		}
		go lw.Run(ctx)
		defer func() {
			stop()
			<-lw.Done()
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runRoute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := loadPlanner(ctx, cfg, logger)
	if err != nil {
		return err
	}

	algo := p.algorithm
	if routeAlgorithm != "" {
		if algo, err = pathfinding.ParseAlgorithm(routeAlgorithm); err != nil {
			return err
		}
	}

	req := pathfinding.Request{Goal: pathfinding.NodeID(routeGoal), Algorithm: algo}
	switch {
	case routeStart >= 0:
		start := pathfinding.NodeID(routeStart)
		req.Start = &start
	case routeFrom != "":
		if req.From, err = parseVec3(routeFrom); err != nil {
			return err
		}
	default:
		return errors.New("one of --from or --start is required")
	}

	res, err := p.engine.Search(ctx, req)
	if err != nil {
		return err
	}

	waypoints := make([]Waypoint, len(res.Path))
	for i, n := range res.Path {
		waypoints[i] = Waypoint{ID: int(n.ID), Position: n.Position}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(RouteResponse{
		Success:   true,
		Algorithm: algo.String(),
		Path:      waypoints,
		Cost:      res.Cost,
		Expanded:  res.Expanded,
	})
}

// parseVec3 parses "x,y,z".
func parseVec3(s string) (pathfinding.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return pathfinding.Vec3{}, fmt.Errorf("position %q: want x,y,z", s)
	}
	var xyz [3]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return pathfinding.Vec3{}, fmt.Errorf("position %q: %w", s, err)
		}
		xyz[i] = f
	}
	return pathfinding.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
