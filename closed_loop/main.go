package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"actuation-core/actuation"
	"actuation-core/utils"
)

var (
	configFile  string
	iface       string
	mapPath     string
	scenPath    string
	frameName   string
	logLevel    string
	metricsAddr string
	plotWidth   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "closed_loop",
		Short:         "vehicle actuation controller over SocketCAN",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&mapPath, "map", "config/can/can_map.csv", "path to can_map.csv")
	rootCmd.PersistentFlags().StringVar(&scenPath, "scenario", "", "scenario YAML file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "trace|debug|info|warn|error|critical")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "drive the controller and transmit actuator frames",
		RunE:  runController,
	}
	runCmd.Flags().StringVar(&iface, "iface", "vcan0", "SocketCAN interface name")
	runCmd.Flags().StringVar(&frameName, "frame", "ACTUATOR_CMD_1", "frame name to transmit")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "replay a scenario offline and plot the actuator outputs",
		RunE:  traceScenario,
	}
	traceCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")

	framesCmd := &cobra.Command{
		Use:   "frames",
		Short: "list frames and signals of the CAN map",
		RunE:  listFrames,
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "check config, CAN map and scenario without touching the bus",
		RunE:  validateAll,
	}

	rootCmd.AddCommand(runCmd, traceCmd, framesCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config file, then applies flags the user set.
func loadConfig(cmd *cobra.Command) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if configFile != "" {
		var err error
		cfg, err = LoadAppConfig(configFile)
		if err != nil {
			return AppConfig{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("map") || configFile == "" {
		cfg.Runner.MapPath = mapPath
	}
	if flags.Changed("scenario") {
		cfg.Runner.ScenarioPath = scenPath
	}
	if flags.Changed("iface") {
		cfg.Runner.Interface = iface
	}
	if flags.Changed("frame") {
		cfg.Runner.FrameName = frameName
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	if flags.Changed("log") || configFile == "" {
		lvl, ok := utils.ParseLevel(logLevel)
		if !ok {
			return AppConfig{}, fmt.Errorf("unknown log level %q", logLevel)
		}
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

func runController(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := utils.NewFileLogger(cfg.LogFile, cfg.LogLevel, true)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.LogFile, err)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *actuation.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = actuation.NewMetrics(reg)
		srv := serveMetrics(cfg.MetricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	runner, err := NewRunner(ctx, cfg.Runner, cfg.Controller, log, metrics)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		return err
	}
	defer runner.Close()

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Critical("Run failed: %v", err)
		return err
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log *utils.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server: %v", err)
		}
	}()
	return srv
}

func traceScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Runner.ScenarioPath == "" {
		return fmt.Errorf("trace needs --scenario")
	}
	scen, err := LoadScenario(cfg.Runner.ScenarioPath)
	if err != nil {
		return err
	}

	log := utils.NewLogger(os.Stderr, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "tracing %s for %.1fs...\n", scen.Meta.Name, scen.Timing.DurationS)
	tr, err := RunTrace(ctx, scen, cfg.Controller, cfg.Runner.MaxSpeedKPH, log)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return tr.Render(os.Stdout, plotWidth)
}

func listFrames(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return writeFrames(os.Stdout, cfg.Runner.MapPath)
}

// writeFrames prints one row per signal of the CAN map at mapPath.
func writeFrames(out io.Writer, mapPath string) error {
	cmap, err := utils.LoadCANMap(mapPath)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAME\tID\tDIR\tDLC\tCYCLE\tSIGNAL\tBITS\tFACTOR\tRANGE\tUNIT")
	for _, name := range cmap.FrameNames() {
		fd, _ := cmap.FrameByName(name)
		for _, s := range fd.Signals {
			fmt.Fprintf(w, "%s\t0x%03X\t%s\t%d\t%dms\t%s\t%d@%d\t%g\t[%g, %g]\t%s\n",
				fd.Name, fd.ID, fd.Direction, fd.DLC, fd.CycleMS,
				s.Name, s.BitLength, s.StartBit, s.Factor, s.Min, s.Max, s.Unit)
		}
	}
	return w.Flush()
}

func validateAll(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return validateConfig(os.Stdout, cfg)
}

// validateConfig loads the CAN map and scenario named by cfg and checks
// them against the runner's frame and signal requirements.
func validateConfig(out io.Writer, cfg AppConfig) error {
	cmap, err := utils.LoadCANMap(cfg.Runner.MapPath)
	if err != nil {
		return err
	}

	var scen Scenario
	if cfg.Runner.ScenarioPath != "" {
		if scen, err = LoadScenario(cfg.Runner.ScenarioPath); err != nil {
			return err
		}
	}

	ctrl := actuation.New(cfg.Controller, nil, nil)
	if _, err := newRunner(cfg.Runner, utils.NewNopLogger(), cmap, scen, nil, nil, ctrl, nil); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "ok: %d frames, %d scenario events\n", len(cmap.FrameNames()), len(scen.Events))
	return err
}
