package main

import (
	"authviz/internal/aggregate"
	"authviz/internal/analyzer"
	"authviz/internal/audit"
	"authviz/internal/config"
	"authviz/internal/geo"
	"authviz/internal/ingest"
	"authviz/internal/logging"
	"authviz/internal/metrics"
	"authviz/internal/parser"
	"authviz/internal/render"
	"authviz/internal/types"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	configPath      string
	logFile         string
	country         bool
	heatmap         bool
	save            string
	jsonOut         bool
	geoDB           string
	geoDBType       string
	year            int
	bucketing       string
	logLevel        string
	metricsTextfile string

	stdout io.Writer
	stderr io.Writer
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{stdout: out, stderr: errOut}

	cmd := &cobra.Command{
		Use:   "authviz",
		Short: "Chart failed SSH logins from an auth log",
		Long: "authviz reads an sshd auth log, picks out failed logins for invalid or disallowed users, " +
			"geolocates their source addresses and charts them by country or as an hour-by-day heatmap.",
		Example: "  authviz --country\n" +
			"  authviz --heatmap --logfile /var/log/auth.log.1 --save heatmap.png",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError{cmd.CommandPath(), fmt.Errorf("unexpected argument %q", args[0])}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.logFile, "logfile", "/var/log/auth.log", "auth log to analyze")
	f.BoolVar(&a.country, "country", false, "chart attempts per country")
	f.BoolVar(&a.heatmap, "heatmap", false, "chart attempts per hour and day")
	f.StringVar(&a.save, "save", "", "write the chart to this PNG file instead of displaying it")
	f.BoolVar(&a.jsonOut, "json", false, "print the aggregated table as JSON instead of a chart")
	f.StringVar(&a.configPath, "config", config.DefaultPath, "config file (optional unless given explicitly)")
	f.StringVar(&a.geoDB, "geodb", "", "geolocation database path")
	f.StringVar(&a.geoDBType, "geodb-type", "", "geolocation database type: mmdb, sqlite or static")
	f.IntVar(&a.year, "year", 0, "year assumed for syslog timestamps (default current year)")
	f.StringVar(&a.bucketing, "bucketing", "", "heatmap day buckets: calendar or rolling")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&a.metricsTextfile, "metrics-textfile", "", "write run metrics in node_exporter textfile format")

	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError{c.CommandPath(), err}
	})

	cmd.AddCommand(newGeoDBCmd(a))

	return cmd
}

func (a *app) mode(cmd *cobra.Command) (types.Mode, error) {
	switch {
	case a.country && a.heatmap:
		return "", usageError{cmd.CommandPath(), fmt.Errorf("--country and --heatmap cannot be used together")}
	case a.country:
		if a.bucketing != "" {
			return "", usageError{cmd.CommandPath(), fmt.Errorf("--bucketing only applies to --heatmap")}
		}
	case a.heatmap:
	default:
		return "", usageError{cmd.CommandPath(), fmt.Errorf("one of --country or --heatmap is required")}
	}

	if a.save != "" && a.jsonOut {
		return "", usageError{cmd.CommandPath(), fmt.Errorf("--save and --json cannot be used together")}
	}

	if a.country {
		return types.ModeCountry, nil
	}
	return types.ModeHeatmap, nil
}

// loadConfig reads the config file and lays the flags that were set on top
func (a *app) loadConfig(cmd *cobra.Command) (*types.Config, error) {
	optional := !cmd.Flags().Changed("config")
	cfg, err := config.LoadConfig(a.configPath, optional)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("logfile") {
		cfg.Input.AuthLogPath = a.logFile
	}
	if changed("geodb") {
		cfg.Geo.Path = a.geoDB
	}
	if changed("geodb-type") {
		cfg.Geo.Type = strings.ToLower(a.geoDBType)
	}
	if changed("year") {
		cfg.Input.ReferenceYear = a.year
	}
	if changed("bucketing") {
		cfg.Heatmap.Bucketing = types.Bucketing(strings.ToLower(a.bucketing))
	}
	if changed("log-level") {
		cfg.Logging.Level = strings.ToLower(a.logLevel)
	}
	if changed("metrics-textfile") {
		cfg.Output.MetricsTextfile = a.metricsTextfile
	}

	if err := config.Validate(cfg); err != nil {
		return nil, usageError{cmd.CommandPath(), err}
	}
	return cfg, nil
}

func (a *app) renderer(cfg *types.Config) (render.Renderer, string) {
	switch {
	case a.save != "":
		return render.NewPNG(a.save, cfg.Render.Width, cfg.Render.Height), a.save
	case a.jsonOut:
		return render.NewJSON(a.stdout), "json"
	default:
		return render.NewTerminal(a.stdout), "terminal"
	}
}

func (a *app) run(cmd *cobra.Command) (err error) {
	mode, err := a.mode(cmd)
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	loc, err := config.Location(cfg)
	if err != nil {
		return err
	}

	renderer, output := a.renderer(cfg)
	m := metrics.New()
	started := time.Now()
	run := audit.Run{LogFile: cfg.Input.AuthLogPath, Mode: string(mode), Output: output}
	defer func() {
		a.finish(cfg, logger, m, &run, started, err)
	}()

	lines, err := ingest.NewFileReader(cfg.Input.AuthLogPath).ReadLines()
	if err != nil {
		return err
	}
	logger.Debug("log read", zap.String("path", cfg.Input.AuthLogPath), zap.Int("lines", len(lines)))

	enricher, err := geo.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer enricher.Close()

	la := analyzer.New(parser.NewSSHParser(), enricher, analyzer.Options{
		ReferenceYear: cfg.Input.ReferenceYear,
		Location:      loc,
		Logger:        logger,
		Metrics:       m,
	})

	collection, err := la.Analyze(lines)
	if collection != nil {
		run.Records = collection.Len()
		run.Skipped = collection.Skipped()[metrics.ReasonDate]
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.Input.AuthLogPath, err)
	}

	attempts := collection.Attempts()
	report := render.Report{Mode: mode, LogFile: cfg.Input.AuthLogPath, Attempts: len(attempts)}
	switch mode {
	case types.ModeCountry:
		report.Countries = aggregate.ByCountry(attempts)
		report.Sources = aggregate.TopSources(attempts, cfg.Render.TopLimit)
	case types.ModeHeatmap:
		h := aggregate.BuildHeatmap(attempts, cfg.Heatmap.Bucketing)
		report.Heatmap = &h
	}

	if err := renderer.Render(report); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if a.save != "" {
		logger.Info("chart saved", zap.String("path", a.save))
	}
	return nil
}

// finish records the run in the metrics textfile and audit log. Neither
// changes the outcome of the run.
func (a *app) finish(cfg *types.Config, logger *zap.Logger, m *metrics.Metrics, run *audit.Run, started time.Time, runErr error) {
	if runErr == nil {
		m.LastRun.SetToCurrentTime()
	}

	if cfg.Output.MetricsTextfile != "" {
		if err := m.WriteTextfile(cfg.Output.MetricsTextfile); err != nil {
			logger.Warn("metrics not written", zap.Error(err))
		}
	}

	if cfg.Output.AuditLogPath != "" {
		run.Duration = time.Since(started).Seconds()
		if runErr != nil {
			run.Error = runErr.Error()
		}
		stamped, err := audit.NewLogger(cfg.Output.AuditLogPath).LogRun(*run)
		if err != nil {
			logger.Warn("run not recorded", zap.Error(err))
			return
		}
		logger.Debug("run recorded", zap.String("run_id", stamped.ID))
	}
}
