package startup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gorilla/mux"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"metamorphosis/internal/background"
	"metamorphosis/internal/convert"
	"metamorphosis/internal/logging"
	"metamorphosis/internal/memory"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// ConfigEnv names the environment variable consulted when --config is not
// given.
const ConfigEnv = "METAMORPHOSIS_CONFIG"

// Config holds all application configuration
type Config struct {
	Naming      string        `koanf:"naming" json:"naming"`
	Workers     int           `koanf:"workers" json:"workers"`
	Timeout     time.Duration `koanf:"timeout" json:"timeout"`
	FFmpeg      string        `koanf:"ffmpeg" json:"ffmpeg"`
	FFprobe     string        `koanf:"ffprobe" json:"ffprobe"`
	Rembg       string        `koanf:"rembg" json:"rembg"`
	HistoryDB   string        `koanf:"history-db" json:"history-db"`
	MetricsFile string        `koanf:"metrics-file" json:"metrics-file"`
	LogLevel    string        `koanf:"log-level" json:"log-level"`
	Listen      string        `koanf:"listen" json:"listen"`
	InputDir    string        `koanf:"input-dir" json:"input-dir"`
	MemoryLimit string        `koanf:"memory-limit" json:"memory-limit"`
	MemoryRatio float64       `koanf:"memory-ratio" json:"memory-ratio"`

	// File is the configuration file that was loaded, if any.
	File string `koanf:"-" json:"-"`
}

// RegisterFlags adds every configuration key to fs with its default.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "YAML configuration file (env "+ConfigEnv+")")
	fs.String("naming", convert.Suffixed.String(), "output naming: suffixed (name_meta.ext) or in-place (name.ext)")
	fs.Int("workers", 0, "concurrent conversions (0 = one per CPU)")
	fs.Duration("timeout", 0, "per-file timeout (0 = none)")
	fs.String("ffmpeg", "ffmpeg", "ffmpeg executable")
	fs.String("ffprobe", "ffprobe", "ffprobe executable")
	fs.String("rembg", background.DefaultCommand, "rembg executable")
	fs.String("history-db", "", "SQLite conversion history file (empty = disabled)")
	fs.String("metrics-file", "", "write Prometheus metrics to this textfile after each run")
	fs.String("log-level", "", "debug, info, warn or error (default from LOG_LEVEL)")
	fs.String("listen", ":8080", "HTTP listen address for serve")
	fs.String("input-dir", "input", "directory converted when no paths are given")
	fs.String("memory-limit", "", "memory budget such as 2GiB (empty = MEMORY_LIMIT env or none)")
	fs.Float64("memory-ratio", memory.DefaultMemoryRatio, "share of the memory budget given to the Go heap")
}

// LoadConfig merges the optional YAML file and the parsed flags of fs.
// Flags given on the command line win over the file; the file wins over
// flag defaults.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, _ := fs.GetString("config")
	if path == "" {
		path = getEnv(ConfigEnv, "")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Naming, validation.By(func(value interface{}) error {
			_, err := convert.ParseNaming(value.(string))
			return err
		})),
		validation.Field(&c.Workers, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.FFmpeg, validation.Required),
		validation.Field(&c.FFprobe, validation.Required),
		validation.Field(&c.Rembg, validation.Required),
		validation.Field(&c.LogLevel, validation.By(func(value interface{}) error {
			if s := value.(string); s != "" {
				if _, ok := logging.ParseLevel(s); !ok {
					return errors.New("must be debug, info, warn or error")
				}
			}
			return nil
		})),
		validation.Field(&c.Listen, validation.Required),
		validation.Field(&c.InputDir, validation.Required),
		validation.Field(&c.MemoryLimit, validation.By(func(value interface{}) error {
			if s := value.(string); s != "" {
				_, err := memory.ParseSize(s)
				return err
			}
			return nil
		})),
		validation.Field(&c.MemoryRatio, validation.Min(0.0), validation.Max(1.0)),
	)
}

// NamingConvention returns the parsed naming convention.
func (c *Config) NamingConvention() convert.Naming {
	n, _ := convert.ParseNaming(c.Naming)
	return n
}

// Tools returns the external tool paths for the router.
func (c *Config) Tools() convert.Tools {
	return convert.Tools{FFmpeg: c.FFmpeg, FFprobe: c.FFprobe, Rembg: c.Rembg}
}

// ApplyLogLevel applies the configured level, if any.
func (c *Config) ApplyLogLevel() {
	if level, ok := logging.ParseLevel(c.LogLevel); ok && c.LogLevel != "" {
		logging.SetLevel(level)
	}
}

// LogConfig prints the effective configuration.
func LogConfig(c *Config) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if c.File != "" {
		logging.Info("  config file:   %s", c.File)
	}
	logging.Info("  naming:        %s", c.NamingConvention())
	logging.Info("  workers:       %d", c.Workers)
	logging.Info("  timeout:       %v", c.Timeout)
	logging.Info("  ffmpeg:        %s", c.FFmpeg)
	logging.Info("  ffprobe:       %s", c.FFprobe)
	logging.Info("  rembg:         %s", c.Rembg)
	logging.Info("  history-db:    %s", valueOrDisabled(c.HistoryDB))
	logging.Info("  metrics-file:  %s", valueOrDisabled(c.MetricsFile))
	logging.Info("  memory-limit:  %s", valueOrDisabled(c.MemoryLimit))
	logging.Info("  log-level:     %s", logging.GetLevel())
	logging.Info("")
}

func valueOrDisabled(s string) string {
	if s == "" {
		return "DISABLED"
	}
	return s
}

// ToolReport records which optional tools are present.
type ToolReport struct {
	FFmpeg  bool
	FFprobe bool
	Rembg   bool
	Vips    bool
}

// CheckTools looks up the configured executables. vips reports whether
// libvips initialized.
func CheckTools(c *Config, vips bool) ToolReport {
	report := ToolReport{Vips: vips}

	if err := checkFFmpeg(c.FFmpeg); err != nil {
		logging.Debug("  FFmpeg check failed: %v", err)
	} else {
		report.FFmpeg = true
	}
	_, err := exec.LookPath(c.FFprobe)
	report.FFprobe = err == nil
	_, err = exec.LookPath(c.Rembg)
	report.Rembg = err == nil

	return report
}

// LogToolReport prints which conversion routes are usable.
func LogToolReport(r ToolReport) {
	logging.Info("------------------------------------------------------------")
	logging.Info("FEATURE AVAILABILITY")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Images:             ENABLED")
	logging.Info("  WebP output:        %s", enabledString(r.Vips))
	logging.Info("  E-books:            ENABLED")
	logging.Info("  Video/audio:        %s", enabledString(r.FFmpeg))
	logging.Info("  Stream probing:     %s", enabledString(r.FFprobe))
	logging.Info("  Background removal: %s", enabledString(r.Rembg))
	if !r.FFmpeg {
		logging.Warn("  ffmpeg not found: video and audio targets will fail")
	}
	if !r.Rembg {
		logging.Warn("  rembg not found: %q will fail", "PNG (No Background)")
	}
	logging.Info("")
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// EnsureInputDir creates dir if it is missing and reports whether it
// already existed.
func EnsureInputDir(dir string) (existed bool, err error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return true, fmt.Errorf("%s exists but is not a directory", dir)
		}
		return true, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	logging.Info("Created input directory %s", dir)
	return false, nil
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	sort.SliceStable(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })
	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes at debug level.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

// LogServerStarted logs the listen address.
func LogServerStarted(listen string, startupDuration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:  %v", startupDuration)
	logging.Info("  API:           http://%s/api", displayAddr(listen))
	logging.Info("  Metrics:       http://%s/metrics", displayAddr(listen))
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

func displayAddr(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "localhost" + listen
	}
	return listen
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// PrintBanner prints the startup banner and system information.
func PrintBanner() {
	banner := `
------------------------------------------------------------
                 __                                  __    _
   ____ ___  ___/ /_____ _____ ___  ____  _________  / /_  (_)____
  / __ '__ \/ _ \/ __/ __ '/ __ '__ \/ __ \/ ___/ __ \/ __ \/ / ___/
 / / / / / /  __/ /_/ /_/ / / / / / / /_/ / /  / /_/ / / / / (__  )
/_/ /_/ /_/\___/\__/\__,_/_/ /_/ /_/\____/_/  / .___/_/ /_/_/____/
                                             /_/
------------------------------------------------------------`
	fmt.Fprintln(os.Stderr, banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
	logSystemInfo()
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
	}
	logging.Info("")
}

func checkFFmpeg(ffmpeg string) error {
	path, err := exec.LookPath(ffmpeg)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", ffmpeg)
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	if line, _, _ := strings.Cut(string(output), "\n"); line != "" {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(line))
	}
	return nil
}

// ResolvePath makes p absolute relative to the working directory.
func ResolvePath(p string) string {
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
