package trafficlight

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPHookConfig struct {
	URL                string            `yaml:"url"`
	Method             string            `yaml:"method"`
	Headers            map[string]string `yaml:"headers"`
	Body               string            `yaml:"body"`
	ExpectCode         string            `yaml:"expect_code"`
	NoCheckCertificate bool              `yaml:"no_check_certificate"`
}

// HTTPHook sends a request to a webhook endpoint on phase transitions.
// ${TRAFFICLIGHT_PHASE_FROM} and ${TRAFFICLIGHT_PHASE_TO} in the body are
// replaced with the phase names.
type HTTPHook struct {
	*hookRunner

	URL            string
	Method         string
	Headers        map[string]string
	Body           string
	ExpectCodeFunc func(code int) bool

	client *http.Client
}

func NewHTTPHook(cfg *HookConfig) (*HTTPHook, error) {
	runner, err := newHookRunner(cfg)
	if err != nil {
		return nil, err
	}
	p := &HTTPHook{
		hookRunner: runner,
		Method:     cfg.HTTP.Method,
		Headers:    cfg.HTTP.Headers,
		Body:       cfg.HTTP.Body,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.HTTP.NoCheckCertificate},
			},
		},
	}
	u, err := url.Parse(cfg.HTTP.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", cfg.HTTP.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid url %s: scheme must be http or https", cfg.HTTP.URL)
	}
	p.URL = u.String()

	// default
	if p.Method == "" {
		p.Method = http.MethodPost
	}
	if cfg.HTTP.ExpectCode == "" {
		p.ExpectCodeFunc = func(code int) bool {
			return code >= 200 && code < 400
		}
	} else {
		p.ExpectCodeFunc, err = newExpectCodeFunc(cfg.HTTP.ExpectCode)
		if err != nil {
			return nil, fmt.Errorf("invalid expect_code %s: %w", cfg.HTTP.ExpectCode, err)
		}
	}
	return p, nil
}

func (p *HTTPHook) OnTransition(ctx context.Context, from, to Phase, at time.Time) {
	p.dispatch(ctx, to, func(ctx context.Context, logger *slog.Logger) error {
		return p.send(ctx, logger.With("module", "httphook"), from, to)
	})
}

func (p *HTTPHook) send(ctx context.Context, logger *slog.Logger, from, to Phase) error {
	body := os.Expand(p.Body, phaseMapping(from, to))
	req, err := http.NewRequestWithContext(ctx, p.Method, p.URL, strings.NewReader(body))
	if err != nil {
		return err
	}
	for name, value := range p.Headers {
		req.Header.Set(name, value)
	}
	req.Header.Set("User-Agent", "trafficlight/"+Version)
	req.Header.Set("X-Trafficlight-Phase", to.String())

	logger.Debug(fmt.Sprintf("http request %s %s", req.Method, req.URL))
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if !p.ExpectCodeFunc(resp.StatusCode) {
		return fmt.Errorf("expect code not match: %d", resp.StatusCode)
	}
	return nil
}

func phaseMapping(from, to Phase) func(string) string {
	return func(key string) string {
		switch key {
		case "TRAFFICLIGHT_PHASE_FROM":
			return from.String()
		case "TRAFFICLIGHT_PHASE_TO":
			return to.String()
		}
		return ""
	}
}

// newExpectCodeFunc parses a string of comma separated HTTP status codes and
// returns a function that checks if the given code is in the list.
// e.g. "200,201,202-204,300-399"
func newExpectCodeFunc(codes string) (func(code int) bool, error) {
	ranges := strings.Split(codes, ",")
	var parsedRanges []struct{ lower, upper int }

	for _, r := range ranges {
		r = strings.TrimSpace(r) // Remove any leading and trailing whitespaces
		bounds := strings.Split(r, "-")
		for i := range bounds {
			bounds[i] = strings.TrimSpace(bounds[i]) // Trim spaces for each bound
		}
		if len(bounds) == 1 {
			// Single code
			singleCode, err := strconv.Atoi(bounds[0])
			if err != nil {
				return nil, errors.New("invalid code: " + bounds[0])
			}
			parsedRanges = append(parsedRanges, struct{ lower, upper int }{singleCode, singleCode})
		} else if len(bounds) == 2 {
			// Range of codes
			lower, err1 := strconv.Atoi(bounds[0])
			upper, err2 := strconv.Atoi(bounds[1])
			if err1 != nil || err2 != nil {
				return nil, errors.New("invalid range: " + r)
			}
			parsedRanges = append(parsedRanges, struct{ lower, upper int }{lower, upper})
		} else {
			return nil, errors.New("invalid format: " + r)
		}
	}

	return func(code int) bool {
		for _, r := range parsedRanges {
			if r.lower <= code && code <= r.upper {
				return true
			}
		}
		return false
	}, nil
}
