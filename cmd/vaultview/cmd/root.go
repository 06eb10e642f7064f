package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"vaultview/internal/api"
	"vaultview/internal/config"
	"vaultview/internal/refresh"
	"vaultview/internal/tui"
)

var (
	cfgFile   string
	serverURL string
	apiKey    string
	insecure  bool
	verbose   bool
	logger    *slog.Logger
)

// syncRefreshSchedule fires the background sync-status refresh every 30s.
const syncRefreshSchedule = "*/30 * * * * *"

var rootCmd = &cobra.Command{
	Use:   "vaultview",
	Short: "Terminal client for a msgvault archive server",
	Long: `vaultview is a terminal client for browsing a msgvault email archive
over its HTTP API.

It provides aggregate views (senders, domains, labels, time), full-text
search, message and thread reading, attachment downloads, account
management, and message composition.

The server is located by trying, in order:
  1. the --server flag
  2. the MSGVAULT_HOME environment variable
  3. known config file locations
  4. common localhost ports

If nothing is found, a setup wizard asks for the server address.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

// Execute runs the root command with a background context.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/vaultview/config.toml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "archive server URL (skips discovery)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for the server")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", false, "allow plain HTTP to non-localhost servers")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func runTUI(ctx context.Context) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("vaultview requires an interactive terminal")
	}

	settingsPath := cfgFile
	if settingsPath == "" {
		settingsPath = config.DefaultPath()
	}

	settings, err := resolveSettings(ctx, settingsPath)
	if err != nil {
		return err
	}

	client, err := api.New(api.Config{
		URL:           settings.ServerURL,
		APIKey:        settings.APIKey,
		AllowInsecure: settings.AllowInsecure,
	})
	if err != nil {
		return fmt.Errorf("connect to %s: %w", settings.ServerURL, err)
	}

	downloadDir, err := defaultDownloadDir()
	if err != nil {
		return err
	}

	model := tui.New(tui.Options{
		Client:       client,
		Settings:     settings,
		SettingsPath: settingsPath,
		DownloadDir:  downloadDir,
		Version:      version,
	})

	// The program does not exist yet when the model is built, so the notify
	// hook indirects through a pointer filled in below.
	var program *tea.Program
	model.SetNotify(func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	})

	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	refresher := refresh.New(func(msg any) {
		program.Send(msg)
	}).WithLogger(logger)
	if err := refresher.Add("sync-status", syncRefreshSchedule, tui.SyncRefreshMsg()); err != nil {
		return err
	}
	refresher.Start()
	defer refresher.Stop()

	_, err = program.Run()
	return err
}

// resolveSettings produces the server settings from flags, discovery, or the
// interactive wizard, in that order.
func resolveSettings(ctx context.Context, settingsPath string) (*config.Settings, error) {
	if serverURL != "" {
		return &config.Settings{
			ServerURL:     serverURL,
			APIKey:        apiKey,
			AllowInsecure: insecure,
		}, nil
	}

	// Saved settings win over discovery.
	if saved, err := config.Load(settingsPath); err == nil && saved.ServerURL != "" {
		if apiKey != "" {
			saved.APIKey = apiKey
		}
		if insecure {
			saved.AllowInsecure = true
		}
		return saved, nil
	}

	result := config.NewDiscoverer().Discover(ctx)
	if result.Found() {
		logger.Info("server discovered", "url", result.ServerURL, "source", result.Source)
		s := &config.Settings{
			ServerURL:     result.ServerURL,
			APIKey:        result.APIKey,
			AllowInsecure: insecure,
		}
		if apiKey != "" {
			s.APIKey = apiKey
		}
		return s, nil
	}

	logger.Info("no server found, starting setup wizard")
	return runSetupWizard(settingsPath)
}

// runSetupWizard asks for the server address interactively and offers to save
// it for next time.
func runSetupWizard(settingsPath string) (*config.Settings, error) {
	var (
		wizardURL  string
		wizardKey  string
		saveConfig = true
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Archive server URL").
				Description("Address of your msgvault server, e.g. https://mail.example.com:8080").
				Placeholder("https://localhost:8080").
				Value(&wizardURL).
				Validate(validateServerURL),
			huh.NewInput().
				Title("API key").
				Description("Leave empty if the server does not require one").
				EchoMode(huh.EchoModePassword).
				Value(&wizardKey),
			huh.NewConfirm().
				Title("Save these settings?").
				Value(&saveConfig),
		),
	)
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("setup canceled: %w", err)
	}

	s := &config.Settings{
		ServerURL:     strings.TrimRight(wizardURL, "/"),
		APIKey:        wizardKey,
		AllowInsecure: insecure,
	}
	if saveConfig {
		if err := config.Save(settingsPath, s); err != nil {
			return nil, fmt.Errorf("save config: %w", err)
		}
		logger.Info("settings saved", "path", settingsPath)
	}
	return s, nil
}

func validateServerURL(s string) error {
	if s == "" {
		return fmt.Errorf("server URL is required")
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return fmt.Errorf("enter a full URL like https://host:port")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	return nil
}

// defaultDownloadDir is where attachments land: ~/Downloads when it exists,
// otherwise the working directory.
func defaultDownloadDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".", nil
	}
	dir := filepath.Join(home, "Downloads")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, nil
	}
	return home, nil
}
