package trafficlight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/goccy/go-yaml"
)

const (
	DefaultMinInterval  = 4 * time.Second
	DefaultMaxInterval  = 6 * time.Second
	DefaultPollInterval = 2 * time.Millisecond
	DefaultHookTimeout  = 5 * time.Second
	DefaultListenAddr   = ":8080"

	DefaultShutdownTimeout = 5 * time.Second
)

type Config struct {
	Light     *LightConfig     `yaml:"light"`
	Responder *ResponderConfig `yaml:"responder"`
	Hooks     []*HookConfig    `yaml:"hooks"`
}

type LightConfig struct {
	MinInterval  time.Duration `yaml:"min_interval"`
	MaxInterval  time.Duration `yaml:"max_interval"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Seed         int64         `yaml:"seed"`
}

type ResponderConfig struct {
	Addr string `yaml:"addr"`
}

type HookConfig struct {
	Name    string        `yaml:"name"`
	Phase   string        `yaml:"phase"`
	Timeout time.Duration `yaml:"timeout"`

	Command *CommandHookConfig `yaml:"command"`
	HTTP    *HTTPHookConfig    `yaml:"http"`
	TCP     *TCPHookConfig     `yaml:"tcp"`
}

type CommandHookConfig struct {
	Run string `yaml:"run"`
}

func DefaultLightConfig() *LightConfig {
	return &LightConfig{
		MinInterval:  DefaultMinInterval,
		MaxInterval:  DefaultMaxInterval,
		PollInterval: DefaultPollInterval,
	}
}

func (c *LightConfig) Validate() error {
	var errs error
	if c.MinInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("%w: min_interval must be positive: %s", ErrInvalidConfig, c.MinInterval))
	}
	if c.MaxInterval < c.MinInterval {
		errs = errors.Join(errs, fmt.Errorf("%w: max_interval %s is less than min_interval %s", ErrInvalidConfig, c.MaxInterval, c.MinInterval))
	}
	if c.PollInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("%w: poll_interval must be positive: %s", ErrInvalidConfig, c.PollInterval))
	}
	return errs
}

func (c *Config) Validate() error {
	errs := c.Light.Validate()
	for i, h := range c.Hooks {
		if h == nil {
			errs = errors.Join(errs, fmt.Errorf("%w: hooks[%d] is empty", ErrInvalidConfig, i))
			continue
		}
		if n := h.kinds(); n != 1 {
			errs = errors.Join(errs, fmt.Errorf("%w: hooks[%d] %s: exactly one of command, http or tcp is required, got %d", ErrInvalidConfig, i, h.Name, n))
		}
		if h.Command != nil && h.Command.Run == "" {
			errs = errors.Join(errs, fmt.Errorf("%w: hooks[%d] %s: command.run is required", ErrInvalidConfig, i, h.Name))
		}
		if h.Phase != "" {
			if _, err := ParsePhase(h.Phase); err != nil {
				errs = errors.Join(errs, fmt.Errorf("%w: hooks[%d] %s: %w", ErrInvalidConfig, i, h.Name, err))
			}
		}
	}
	return errs
}

func (h *HookConfig) kinds() int {
	n := 0
	if h.Command != nil {
		n++
	}
	if h.HTTP != nil {
		n++
	}
	if h.TCP != nil {
		n++
	}
	return n
}

func LoadConfig(ctx context.Context, src string) (*Config, error) {
	config := &Config{
		Light: DefaultLightConfig(),
		Responder: &ResponderConfig{
			Addr: DefaultListenAddr,
		},
	}
	b, err := loadURL(ctx, src)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(b, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", src, err)
	}
	if config.Light == nil {
		config.Light = DefaultLightConfig()
	}
	if config.Responder == nil {
		config.Responder = &ResponderConfig{}
	}
	if config.Responder.Addr == "" {
		config.Responder.Addr = DefaultListenAddr
	}
	for _, h := range config.Hooks {
		if h != nil && h.Timeout == 0 {
			h.Timeout = DefaultHookTimeout
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadURL(ctx context.Context, s string) ([]byte, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", s, err)
	}
	switch u.Scheme {
	case "http", "https":
		return loadHTTP(ctx, u)
	case "file", "": // empty scheme is treated as file
		return os.ReadFile(u.Path)
	case "s3":
		return loadS3(ctx, u)
	default:
		return nil, fmt.Errorf("invalid url %s: scheme must be http, https, file, or s3", s)
	}
}

func loadHTTP(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("http get failed: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http get %s failed: %s", u, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func loadS3(ctx context.Context, u *url.URL) ([]byte, error) {
	awscfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	svc := s3.NewFromConfig(awscfg)
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	out, err := svc.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object s3://%s/%s failed: %w", bucket, key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
