package config

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// probePorts are the localhost ports tried when no config points at a server.
var probePorts = []int{8080, 8081, 3000, 9000}

// pingTimeout bounds each liveness probe.
const pingTimeout = 2 * time.Second

// Source records how a server was discovered.
type Source int

const (
	// SourceEnv means the server came from the MSGVAULT_HOME config file.
	SourceEnv Source = iota
	// SourceConfigFile means a conventional config file location.
	SourceConfigFile
	// SourceProbe means a localhost port probe succeeded.
	SourceProbe
	// SourceNone means nothing was found; the setup wizard is needed.
	SourceNone
)

// StepStatus is the outcome of one discovery step.
type StepStatus int

const (
	StepFound StepStatus = iota
	StepNotFound
	StepFailed
)

// Step records one probe for display in the wizard.
type Step struct {
	Name   string
	Status StepStatus
	Detail string // found URL or failure reason
}

// Result is the outcome of the discovery chain.
type Result struct {
	ServerURL string
	APIKey    string
	Source    Source
	Path      string // config file path for SourceConfigFile / SourceEnv
	Steps     []Step
}

// Found reports whether discovery located a server candidate. The candidate
// is unvalidated beyond a liveness ping; the connection flow still gates
// Connected status with its own health check.
func (r Result) Found() bool {
	return r.Source != SourceNone
}

// Discoverer runs the discovery chain. The zero value is not usable; call
// NewDiscoverer, then override fields in tests.
type Discoverer struct {
	// Ping reports whether a server at url answers its health endpoint.
	Ping func(ctx context.Context, url string) bool
	// Getenv looks up environment variables.
	Getenv func(string) string
	// ConfigPaths lists candidate config files, in priority order.
	ConfigPaths []string
	// Ports are the localhost ports to probe.
	Ports []int
}

// NewDiscoverer creates a Discoverer with production defaults.
func NewDiscoverer() *Discoverer {
	return &Discoverer{
		Ping:        pingServer,
		Getenv:      os.Getenv,
		ConfigPaths: defaultConfigPaths(),
		Ports:       probePorts,
	}
}

// serverConfig is the subset of an archive server config file the client
// cares about.
type serverConfig struct {
	ServerURL string `toml:"server_url"`
	APIKey    string `toml:"api_key"`
}

// Discover runs the chain: env override, config file locations, localhost
// probe. Each step is recorded regardless of outcome. The first reachable
// server short-circuits the rest.
func (d *Discoverer) Discover(ctx context.Context) Result {
	var steps []Step

	// Step 1: MSGVAULT_HOME override.
	if home := d.Getenv("MSGVAULT_HOME"); home != "" {
		path := filepath.Join(home, "config.toml")
		if url, key, ok := d.tryConfigFile(ctx, path, "MSGVAULT_HOME", &steps); ok {
			return Result{ServerURL: url, APIKey: key, Source: SourceEnv, Path: path, Steps: steps}
		}
	} else {
		steps = append(steps, Step{Name: "MSGVAULT_HOME", Status: StepNotFound})
	}

	// Step 2: conventional config file locations.
	for _, path := range d.ConfigPaths {
		name := "Config: " + path
		if url, key, ok := d.tryConfigFile(ctx, path, name, &steps); ok {
			return Result{ServerURL: url, APIKey: key, Source: SourceConfigFile, Path: path, Steps: steps}
		}
	}

	// Step 3: localhost port probe.
	for _, port := range d.Ports {
		url := fmt.Sprintf("http://localhost:%d", port)
		name := fmt.Sprintf("Probe: localhost:%d", port)
		if d.Ping(ctx, url) {
			steps = append(steps, Step{Name: name, Status: StepFound, Detail: url})
			return Result{ServerURL: url, Source: SourceProbe, Steps: steps}
		}
		steps = append(steps, Step{Name: name, Status: StepNotFound})
	}

	steps = append(steps, Step{Name: "No server found", Status: StepNotFound})
	return Result{Source: SourceNone, Steps: steps}
}

// tryConfigFile parses path and pings the URL it names. Returns ok only when
// the file exists, parses, names a URL, and the URL answers.
func (d *Discoverer) tryConfigFile(ctx context.Context, path, stepName string, steps *[]Step) (url, key string, ok bool) {
	if _, err := os.Stat(path); err != nil {
		*steps = append(*steps, Step{Name: stepName, Status: StepNotFound})
		return "", "", false
	}

	var sc serverConfig
	if _, err := toml.DecodeFile(path, &sc); err != nil {
		*steps = append(*steps, Step{Name: stepName, Status: StepFailed, Detail: err.Error()})
		return "", "", false
	}
	if sc.ServerURL == "" {
		*steps = append(*steps, Step{Name: stepName, Status: StepNotFound})
		return "", "", false
	}

	if !d.Ping(ctx, sc.ServerURL) {
		*steps = append(*steps, Step{Name: stepName, Status: StepFailed, Detail: "server not reachable: " + sc.ServerURL})
		return "", "", false
	}

	*steps = append(*steps, Step{Name: stepName, Status: StepFound, Detail: sc.ServerURL})
	return sc.ServerURL, sc.APIKey, true
}

// defaultConfigPaths lists OS-conventional config file locations, most
// specific first.
func defaultConfigPaths() []string {
	var paths []string

	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "msgvault", "config.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".msgvault", "config.toml"),
			filepath.Join(home, ".config", "msgvault", "config.toml"),
		)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "vaultview", "config.toml"))
	}

	return paths
}

// pingServer checks liveness with a short GET against the health endpoint.
func pingServer(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	healthURL := strings.TrimSuffix(url, "/") + "/api/v1/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
