package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	cblog "github.com/charmbracelet/log"

	"github.com/darksworm/backoffice/pkg/api"
	"github.com/darksworm/backoffice/pkg/config"
	appcontext "github.com/darksworm/backoffice/pkg/context"
	"github.com/darksworm/backoffice/pkg/logging"
	"github.com/darksworm/backoffice/pkg/schema"
	"github.com/darksworm/backoffice/pkg/store"
	"github.com/darksworm/backoffice/pkg/theme"
	"github.com/darksworm/backoffice/pkg/trust"
)

// appVersion is shown by -version.
// Override at build time: go build -ldflags "-X main.appVersion=1.2.0"
var appVersion = "dev"

// Color definitions for help output (updated by theme system)
var (
	helpTitleColor     = lipgloss.Color("14")
	helpSectionColor   = lipgloss.Color("11")
	helpHighlightColor = lipgloss.Color("10")
	helpTextColor      = lipgloss.Color("15")
	helpDimColor       = lipgloss.Color("8")
)

// renderColorfulHelp creates a styled help output
func renderColorfulHelp(fs *flag.FlagSet) string {
	var help strings.Builder

	titleStyle := lipgloss.NewStyle().Foreground(helpTitleColor).Bold(true)
	help.WriteString(titleStyle.Render("backoffice"))
	help.WriteString(" - Terminal console for business records\n\n")

	sectionStyle := lipgloss.NewStyle().Foreground(helpSectionColor).Bold(true)
	help.WriteString(sectionStyle.Render("USAGE"))
	help.WriteString("\n  ")
	help.WriteString(lipgloss.NewStyle().Foreground(helpTextColor).Render("backoffice"))
	help.WriteString(lipgloss.NewStyle().Foreground(helpDimColor).Render(" [options]"))
	help.WriteString("\n\n")

	help.WriteString(sectionStyle.Render("OPTIONS"))
	help.WriteString("\n")

	var flagBuf strings.Builder
	fs.SetOutput(&flagBuf)
	fs.PrintDefaults()

	for _, line := range strings.Split(flagBuf.String(), "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "  -") {
			parts := strings.Fields(line)
			help.WriteString("  ")
			help.WriteString(lipgloss.NewStyle().Foreground(helpHighlightColor).Render(parts[0]))
			if len(parts) > 1 {
				help.WriteString(" " + lipgloss.NewStyle().Foreground(helpTextColor).Render(strings.Join(parts[1:], " ")))
			}
			help.WriteString("\n")
		} else if strings.HasPrefix(line, "    \t") {
			help.WriteString(lipgloss.NewStyle().Foreground(helpDimColor).Render(line))
			help.WriteString("\n")
		}
	}

	help.WriteString("\n")
	help.WriteString(sectionStyle.Render("ENVIRONMENT"))
	help.WriteString("\n")
	for _, env := range [][2]string{
		{"BACKOFFICE_CONFIG", "path of config.toml"},
		{"BACKOFFICE_API_TOKEN", "bearer token for remote entities"},
		{"BACKOFFICE_LOG_LEVEL", "debug, info, warn or error"},
	} {
		help.WriteString("  ")
		help.WriteString(lipgloss.NewStyle().Foreground(helpHighlightColor).Render(env[0]))
		help.WriteString(lipgloss.NewStyle().Foreground(helpDimColor).Render("  " + env[1]))
		help.WriteString("\n")
	}
	help.WriteString("\nPress ")
	help.WriteString(lipgloss.NewStyle().Foreground(helpHighlightColor).Render("?"))
	help.WriteString(" inside the console for key bindings.\n")

	return help.String()
}

func main() {
	var (
		cfgPathFlag     string
		catalogPathFlag string
		entityFlag      string
		themeFlag       string
		showVersion     bool
		showHelp        bool
	)
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&showVersion, "version", false, "Show version information and exit")
	fs.BoolVar(&showHelp, "help", false, "Show help information and exit")
	fs.StringVar(&cfgPathFlag, "config", "", "Path to config.toml")
	fs.StringVar(&catalogPathFlag, "catalog", "", "Path to the entity catalog (YAML)")
	fs.StringVar(&entityFlag, "entity", "", "Entity to open first")
	fs.StringVar(&themeFlag, "theme", "", fmt.Sprintf("UI theme preset (%s)", strings.Join(theme.Names(), ", ")))

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			showHelp = true
		} else {
			fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
			os.Exit(1)
		}
	}

	if showVersion {
		fmt.Println(appVersion)
		return
	}
	if showHelp {
		fmt.Print(renderColorfulHelp(fs))
		return
	}

	if cfgPathFlag != "" {
		_ = os.Setenv("BACKOFFICE_CONFIG", cfgPathFlag)
	}
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.GetDefaultConfig()
	}

	session, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Path: cfg.Log.Path})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		logging.Discard()
	} else {
		defer session.Close()
	}
	logger := cblog.With("component", "app")
	logger.Info("backoffice started", "version", appVersion, "logFile", os.Getenv("BACKOFFICE_LOG_FILE"))
	if cfgErr != nil {
		logger.Warn("Could not load config, using defaults", "err", cfgErr)
	}

	if themeFlag != "" {
		cfg.Appearance.Theme = themeFlag
	}
	if catalogPathFlag != "" {
		cfg.Catalog.Path = catalogPathFlag
	}
	appcontext.SetRequestTimeout(cfg.APITimeout())

	palette := theme.Resolve(cfg.Appearance.Theme, cfg.Appearance.Overrides)
	applyTheme(palette)

	port, closePort, err := openSettingsStore(cfg)
	if err != nil {
		logger.Warn("Settings store unavailable, keeping settings in memory", "err", err)
		port, closePort = store.NewMemory(), func() {}
	}
	defer closePort()

	deps := Dependencies{
		Config:   cfg,
		Settings: port,
		Palette:  palette,
	}
	client, err := newAPIClient(cfg)
	if err != nil {
		logger.Error("Could not set up the API client", "err", err)
		deps.StartupError = err
	}
	deps.Client = client

	catalog, err := schema.Load(cfg.CatalogPath())
	if err != nil {
		logger.Error("Could not load entity catalog", "path", cfg.CatalogPath(), "err", err)
		if deps.StartupError == nil {
			deps.StartupError = err
		}
	}
	deps.Catalog = catalog

	m := NewModel(deps)
	if deps.StartupError == nil {
		if err := m.OpenInitialEntity(entityFlag); err != nil {
			logger.Warn("Could not open initial entity", "entity", entityFlag, "err", err)
			m.statusService.Report(err)
		}
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	m.Shutdown()
}

// openSettingsStore opens the configured persistence port for column
// settings, density and page state.
func openSettingsStore(cfg *config.Config) (store.Port, func(), error) {
	logger := cblog.With("component", "app")
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return store.NewMemory(), func() {}, nil
	case config.BackendSQLite:
		path := cfg.StoragePath()
		db, err := store.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using SQLite settings store", "path", path)
		return db, func() {
			if err := db.Close(); err != nil {
				logger.Warn("Failed to close settings store", "err", err)
			}
		}, nil
	default:
		path := cfg.StoragePath()
		f, err := store.OpenFile(path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using file settings store", "path", f.Path())
		return f, func() {}, nil
	}
}

// newAPIClient returns nil when no base URL is configured
func newAPIClient(cfg *config.Config) (*api.Client, error) {
	if cfg.API.BaseURL == "" {
		return nil, nil
	}
	tlsConfig, err := trust.TLSConfig(trust.Options{
		CACertFile: cfg.API.CACert,
		CACertDir:  cfg.API.CADir,
		Insecure:   cfg.API.Insecure,
	})
	if err != nil {
		return nil, err
	}
	return api.NewClient(api.Options{
		BaseURL:  cfg.API.BaseURL,
		Token:    cfg.GetAPIToken(),
		Insecure: cfg.API.Insecure,
		TLS:      tlsConfig,
	}), nil
}
