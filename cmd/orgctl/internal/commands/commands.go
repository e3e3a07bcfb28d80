package commands

import (
	"database/sql"
	"encoding/json"
	"io"
	"os"

	"github.com/rs/zerolog"

	"orgconsole/internal/engine/access"
	"orgconsole/internal/engine/membership"
	"orgconsole/internal/pkg/logger"
	"orgconsole/internal/platform/audit"
	"orgconsole/internal/platform/config"
	"orgconsole/internal/platform/database"
	"orgconsole/internal/platform/identity"
	"orgconsole/internal/platform/repositories"
)

type Globals struct {
	Config   string
	Database string
	Actor    string
	Debug    bool
	Version  string

	// Out receives command output. Defaults to stdout.
	Out io.Writer
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// env is the wired engine a command runs against.
type env struct {
	cfg      *config.Config
	db       *sql.DB
	store    *repositories.Store
	identity *identity.Local
	resolver *access.Resolver
	members  *membership.Service
	logger   zerolog.Logger
}

func (g *Globals) open() (*env, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Database != "" {
		cfg.Database.URL = g.Database
	}
	if g.Debug {
		cfg.Logging.Level = "debug"
	}
	cfg.Logging.Format = "text"
	log := logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	store := repositories.NewStore(db)
	idp := identity.NewLocal(db)
	return &env{
		cfg:      cfg,
		db:       db,
		store:    store,
		identity: idp,
		resolver: access.NewResolver(store, idp, log),
		members: membership.NewService(store, idp, audit.NewLogger(db, log), log,
			membership.WithFetchConcurrency(cfg.Directory.MemberFetchConcurrency)),
		logger: log,
	}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
