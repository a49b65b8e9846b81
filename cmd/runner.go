package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/medialink/internal/formatter"
	"github.com/desertthunder/medialink/internal/services"
	"github.com/desertthunder/medialink/internal/shared"
	"github.com/desertthunder/medialink/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	backend    services.Backend
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Backend    services.Backend
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration.
//
// Missing clients are built from the backend section of the config.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Backend.Timeout.Duration}
	}
	if opts.Backend == nil {
		opts.Backend = services.NewBackendService(opts.Config.Backend.URL, opts.HTTPClient)
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.Backend.URL, opts.HTTPClient)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		backend:    opts.Backend,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, watchCommand, jobsCommand, logsCommand, downloadCommand,
		pauseCommand, resumeCommand, deleteCommand, searchCommand, discoverCommand,
		genresCommand, streamsCommand, linkCommand, existsCommand, testLinkCommand,
		browseCommand, libraryCommand, settingsCommand, historyCommand, reportCommand,
		apiCommand, serveStubCommand, openCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// controller builds the command half of the engine for one-shot commands.
// The returned registry must be closed.
func (r *Runner) controller() (*tasks.JobController, *tasks.SymlinkReconciler, *tasks.Registry) {
	reg := tasks.NewRegistry()
	notes := tasks.NewNotificationCenter(r.config.UI.ToastTTL.Duration, r.config.UI.BannerTTL.Duration, reg, nil)
	links := tasks.NewSymlinkReconciler(r.backend, r.config.Polling.ExistenceRate, r.logger, nil)
	return tasks.NewJobController(r.backend, links, notes, r.logger, nil), links, reg
}

// library builds the library manager for one-shot commands. The returned
// registry must be closed.
func (r *Runner) library() (*tasks.LibraryManager, *tasks.Registry) {
	reg := tasks.NewRegistry()
	notes := tasks.NewNotificationCenter(r.config.UI.ToastTTL.Duration, r.config.UI.BannerTTL.Duration, reg, nil)
	links := tasks.NewSymlinkReconciler(r.backend, r.config.Polling.ExistenceRate, r.logger, nil)
	return tasks.NewLibraryManager(r.backend, links, notes, r.logger), reg
}

// confirmer prompts on the runner's input unless --yes was given.
func (r *Runner) confirmer(cmd *cli.Command) tasks.Confirmer {
	if cmd.Bool("yes") {
		return tasks.ConfirmFunc(func(string) bool { return true })
	}
	return tasks.ConfirmFunc(r.confirm)
}

// confirm asks a yes/no question on the runner's input.
func (r *Runner) confirm(prompt string) bool {
	r.writePlain("%s [y/N] ", prompt)
	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (r *Runner) isTerminal() bool {
	f, ok := r.output.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *Runner) writeTable(t formatter.Table) error {
	return r.writePlain("%s\n", t.String(r.isTerminal()))
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
