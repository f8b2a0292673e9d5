package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/region"
)

// Environment variables that override the file.
const (
	EnvConfigPath = "POSETOUCH_CONFIG"
	EnvLogLevel   = "POSETOUCH_LOG_LEVEL"
	EnvMode       = "POSETOUCH_MODE"
	EnvStoreDSN   = "POSETOUCH_STORE_DSN"
)

// DefaultPath is used when EnvConfigPath is unset.
const DefaultPath = "config/posetouch.yaml"

// Run modes.
const (
	ModeServer   = "server"
	ModeTerminal = "terminal"
)

// Store drivers.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds everything the posetouch binary reads at startup.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Mode     string `yaml:"mode"`

	Server   Server   `yaml:"server"`
	Canvas   Canvas   `yaml:"canvas"`
	Grid     Grid     `yaml:"grid"`
	Game     Game     `yaml:"game"`
	Store    Store    `yaml:"store"`
	Pose     Pose     `yaml:"pose"`
	Audio    Audio    `yaml:"audio"`
	Terminal Terminal `yaml:"terminal"`
}

// Server configures the HTTP/WebSocket listener.
type Server struct {
	BindAddress    string        `yaml:"bind_address"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"` // per-message write deadline
	PongWait       time.Duration `yaml:"pong_wait"`     // idle client disconnect
	PingInterval   time.Duration `yaml:"ping_interval"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	SendQueueSize  int           `yaml:"send_queue_size"`
	MaxSessions    int           `yaml:"max_sessions"`
}

// Addr returns host:port for net.Listen.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

// Canvas is the playing field size in pixels.
type Canvas struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Bounds converts the canvas to model bounds.
func (c Canvas) Bounds() model.Bounds {
	return model.Bounds{Width: float64(c.Width), Height: float64(c.Height)}
}

// Grid configures region-constrained spawning.
type Grid struct {
	Enabled bool     `yaml:"enabled"`
	Rows    int      `yaml:"rows"`
	Cols    int      `yaml:"cols"`
	Initial []string `yaml:"initial"` // enabled cells at start; empty enables all
}

// Regions builds the region set a new session starts with.
func (g Grid) Regions() (*region.Set, error) {
	if !g.Enabled {
		return region.Unconstrained(), nil
	}
	set, err := region.NewGrid(g.Rows, g.Cols)
	if err != nil {
		return nil, err
	}
	if len(g.Initial) == 0 {
		set.EnableAll()
		return set, nil
	}
	for _, s := range g.Initial {
		id, err := region.ParseCellID(s)
		if err != nil {
			return nil, fmt.Errorf("grid initial cell: %w", err)
		}
		if err := set.SetEnabled(id, true); err != nil {
			return nil, fmt.Errorf("grid initial cell %s: %w", s, err)
		}
	}
	return set, nil
}

// Game holds the default player options.
type Game struct {
	IntervalSeconds float64 `yaml:"interval_seconds"`
	BodyPart        string  `yaml:"body_part"`
	ObjectShape     string  `yaml:"object_shape"`
	ObjectSize      string  `yaml:"object_size"`
	KeypointSize    string  `yaml:"keypoint_size"`
	MinConfidence   float64 `yaml:"min_confidence"`
}

// Configuration parses the options into a model configuration.
func (g Game) Configuration() (model.Configuration, error) {
	part, err := model.ParseBodyPart(g.BodyPart)
	if err != nil {
		return model.Configuration{}, err
	}
	shape, err := model.ParseShape(g.ObjectShape)
	if err != nil {
		return model.Configuration{}, err
	}
	size, err := model.ParseSize(g.ObjectSize)
	if err != nil {
		return model.Configuration{}, fmt.Errorf("object size: %w", err)
	}
	kpSize, err := model.ParseSize(g.KeypointSize)
	if err != nil {
		return model.Configuration{}, fmt.Errorf("keypoint size: %w", err)
	}
	c := model.Configuration{
		Interval:      model.SecondsToDuration(g.IntervalSeconds),
		BodyPart:      part,
		ObjectShape:   shape,
		ObjectSize:    size,
		KeypointSize:  kpSize,
		MinConfidence: g.MinConfidence,
	}
	if err := c.Validate(); err != nil {
		return model.Configuration{}, err
	}
	return c, nil
}

// Store selects where finished session results are kept.
type Store struct {
	Driver string `yaml:"driver"` // none, sqlite or postgres
	DSN    string `yaml:"dsn"`    // sqlite file path or postgres URL; empty builds one from Database
	// Database is used for postgres when DSN is empty.
	Database DatabaseConfig `yaml:"database"`
}

// ConnString returns the DSN for the configured driver.
func (s Store) ConnString() string {
	if s.DSN != "" {
		return s.DSN
	}
	if s.Driver == DriverPostgres {
		return s.Database.DSN()
	}
	return ""
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Pose configures the HTTP inference client used by the terminal front-end.
// An empty Endpoint means the terminal pointer is the only keypoint source.
// The client needs pixels, so SnapshotURL must point at a camera still endpoint.
type Pose struct {
	Endpoint       string        `yaml:"endpoint"`
	SnapshotURL    string        `yaml:"snapshot_url"`
	Timeout        time.Duration `yaml:"timeout"`
	FlipHorizontal bool          `yaml:"flip_horizontal"`
	JPEGQuality    int           `yaml:"jpeg_quality"`
}

// Audio configures the touch/expiry cue.
type Audio struct {
	Enabled    bool `yaml:"enabled"`
	SampleRate int  `yaml:"sample_rate"`
}

// Terminal configures the local tcell front-end.
type Terminal struct {
	FPS     int    `yaml:"fps"`
	Player  string `yaml:"player"`
	LogFile string `yaml:"log_file"` // the screen is taken, so logs go here
}

// FrameInterval returns the ticker period for FPS.
func (t Terminal) FrameInterval() time.Duration {
	if t.FPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(t.FPS)
}

// Default returns Config with sensible defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Mode:     ModeServer,
		Server: Server{
			BindAddress:    "0.0.0.0",
			Port:           8080,
			RequestTimeout: 10 * time.Second,
			WriteTimeout:   10 * time.Second,
			PongWait:       60 * time.Second,
			PingInterval:   25 * time.Second,
			MaxMessageSize: 1 << 20,
			SendQueueSize:  64,
			MaxSessions:    64,
		},
		Canvas: Canvas{Width: 640, Height: 480},
		Grid: Grid{
			Enabled: true,
			Rows:    region.DefaultRows,
			Cols:    region.DefaultCols,
		},
		Game: Game{
			IntervalSeconds: model.DefaultInterval.Seconds(),
			BodyPart:        string(model.BodyPartHand),
			ObjectShape:     string(model.ShapeCircle),
			ObjectSize:      string(model.SizeMedium),
			KeypointSize:    string(model.SizeMedium),
		},
		Store: Store{
			Driver: DriverSQLite,
			DSN:    "posetouch.db",
			Database: DatabaseConfig{
				Host:     "127.0.0.1",
				Port:     5432,
				User:     "posetouch",
				Password: "posetouch",
				DBName:   "posetouch",
				SSLMode:  "disable",
			},
		},
		Pose: Pose{
			Timeout:        2 * time.Second,
			FlipHorizontal: true,
			JPEGQuality:    80,
		},
		Audio: Audio{
			Enabled:    false,
			SampleRate: 44100,
		},
		Terminal: Terminal{
			FPS:     60,
			Player:  "local",
			LogFile: "posetouch.log",
		},
	}
}

// Load loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadEnvFile loads variables from .env files into the process environment.
// Missing files are ignored; variables already set are not overwritten.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading env file %s: %w", p, err)
		}
	}
	return nil
}

// Path returns the config file location, honouring EnvConfigPath.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvMode); ok && v != "" {
		c.Mode = strings.ToLower(v)
	}
	if v, ok := lookup(EnvStoreDSN); ok && v != "" {
		c.Store.DSN = v
	}
}

// Validate checks values main cannot run with.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeServer, ModeTerminal:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	switch c.Store.Driver {
	case DriverNone, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver != DriverNone && c.Store.ConnString() == "" {
		return fmt.Errorf("store %s: empty dsn", c.Store.Driver)
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Mode == ModeServer && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if _, err := c.Grid.Regions(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if _, err := c.Game.Configuration(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if c.Pose.Endpoint != "" && c.Pose.SnapshotURL == "" {
		return errors.New("pose: endpoint set without snapshot_url")
	}
	return nil
}
