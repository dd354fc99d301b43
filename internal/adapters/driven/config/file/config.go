package file

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

// Driver types.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DriverBadger = "badger"
	DriverRemote = "remote"
)

// Config is the engine configuration.
type Config struct {
	// DataDir is the base directory for driver files and buffer pages.
	DataDir string `toml:"data_dir"`

	Logging LoggingConfig  `toml:"logging"`
	HTTP    HTTPConfig     `toml:"http"`
	Query   QueryConfig    `toml:"query"`
	Drivers []DriverConfig `toml:"drivers" validate:"unique=ID,dive"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Verbose bool `toml:"verbose"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Listen string `toml:"listen" validate:"required,hostname_port"`
}

// QueryConfig configures condition queries.
type QueryConfig struct {
	// Match is "all", "any" or a minimum count for AND groups.
	Match       string   `toml:"match"`
	Concurrency int      `toml:"concurrency" validate:"gte=0,lte=1024"`
	Timeout     Duration `toml:"timeout"`
}

// DriverConfig declares one storage driver.
type DriverConfig struct {
	ID   string `toml:"id" validate:"required,excludesall=/"`
	Type string `toml:"type" validate:"required,oneof=sqlite memory badger remote"`

	// Path is the data directory for sqlite and badger. Relative paths
	// are resolved against DataDir.
	Path string `toml:"path,omitempty"`

	// URL is the base address of a remote instance.
	URL string `toml:"url,omitempty" validate:"required_if=Type remote,omitempty,url"`

	// Entities lists the entity types routed to this driver. Empty means
	// every type.
	Entities []string `toml:"entities,omitempty"`

	RequestsPerSecond float64  `toml:"requests_per_second" validate:"gte=0"`
	Timeout           Duration `toml:"timeout"`

	// Auth authenticates a remote driver.
	Auth *AuthConfig `toml:"auth,omitempty"`

	Buffer *BufferConfig `toml:"buffer,omitempty"`
}

// AuthConfig holds the bearer token or OAuth2 client credentials sent to
// a remote instance.
type AuthConfig struct {
	Token        string   `toml:"token,omitempty" validate:"excluded_with=TokenURL"`
	TokenURL     string   `toml:"token_url,omitempty" validate:"omitempty,url"`
	ClientID     string   `toml:"client_id,omitempty" validate:"required_with=TokenURL"`
	ClientSecret string   `toml:"client_secret,omitempty"`
	Scopes       []string `toml:"scopes,omitempty"`
}

// BufferConfig enables a write buffer in front of a driver.
type BufferConfig struct {
	QueueLimit int      `toml:"queue_limit" validate:"gte=0"`
	PageSize   int      `toml:"page_size" validate:"gte=0"`
	BatchSize  int      `toml:"batch_size" validate:"gte=0"`
	Interval   Duration `toml:"interval"`
}

// Duration is a time.Duration written as a string such as "5s".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file exists: one SQLite
// driver serving every entity type.
func Default() Config {
	return Config{
		HTTP:  HTTPConfig{Listen: "127.0.0.1:8472"},
		Query: QueryConfig{Match: "all", Concurrency: 8, Timeout: Duration(30 * time.Second)},
		Drivers: []DriverConfig{
			{ID: "local", Type: DriverSQLite},
		},
	}
}

var configValidate = validator.New()

// Validate checks the configuration and returns every problem found.
func (c Config) Validate() error {
	var problems []string
	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
	}
	if _, err := domain.ParseMatchPolicy(c.Query.Match); err != nil {
		problems = append(problems, err.Error())
	}
	for _, d := range c.Drivers {
		if _, err := d.EntityTypes(); err != nil {
			problems = append(problems, fmt.Sprintf("driver %s: %v", d.ID, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// MatchPolicy returns the parsed query match policy.
func (c Config) MatchPolicy() domain.MatchPolicy {
	p, err := domain.ParseMatchPolicy(c.Query.Match)
	if err != nil {
		return domain.MatchAll
	}
	return p
}

// EntityTypes returns the types routed to the driver.
func (d DriverConfig) EntityTypes() ([]domain.EntityType, error) {
	if len(d.Entities) == 0 {
		return domain.EntityTypes(), nil
	}
	types := make([]domain.EntityType, 0, len(d.Entities))
	for _, name := range d.Entities {
		t, err := domain.ParseEntityType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}
