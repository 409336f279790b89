package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/nullisdefined/worlds-subscription/internal/repositories"
	"github.com/nullisdefined/worlds-subscription/internal/services"
	"github.com/nullisdefined/worlds-subscription/internal/session"
	"github.com/nullisdefined/worlds-subscription/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	gateway    services.Gateway
	kakao      *services.KakaoAuth
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db      *sql.DB
	manager *session.Manager
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Gateway    services.Gateway
	Kakao      *services.KakaoAuth
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Gateway == nil {
		opts.Gateway = services.NewSubscriptionGateway(opts.Config.API.BaseURL, opts.HTTPClient, opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		gateway:    opts.Gateway,
		kakao:      opts.Kakao,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// open connects to the local database and assembles the session manager.
//
// Called lazily by every command that touches the session so that commands
// like setup can run against a missing database without tripping over it.
func (r *Runner) open() (*session.Manager, error) {
	if r.manager != nil {
		return r.manager, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if r.kakao == nil {
		kakao, err := services.NewKakaoAuth(r.config.Kakao.AppKey, r.config.RedirectURI())
		if err != nil {
			db.Close()
			return nil, err
		}
		r.kakao = kakao
	}

	r.db = db
	r.manager = session.NewManager(
		repositories.NewSessionRepository(db),
		repositories.NewScratchRepository(db),
		r.gateway,
		r.kakao,
		r.logger,
	)
	return r.manager, nil
}

// Close releases the database connection, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SetLogger swaps the runner's logger, e.g. to redirect logs away from the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	if gw, ok := r.gateway.(*services.SubscriptionGateway); ok {
		gw.SetLogger(logger)
	}
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
