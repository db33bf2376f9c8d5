package cli

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/afero"

	"github.com/craftflow/craftflow/internal/adapter/gateway/agent"
	"github.com/craftflow/craftflow/internal/adapter/gateway/publish"
	"github.com/craftflow/craftflow/internal/adapter/gateway/storage"
	"github.com/craftflow/craftflow/internal/app"
	"github.com/craftflow/craftflow/internal/application/port/output"
	"github.com/craftflow/craftflow/internal/application/usecase/execution"
	"github.com/craftflow/craftflow/internal/domain/repository"
	checkpointrepo "github.com/craftflow/craftflow/internal/infra/repository/checkpoint"
	journalrepo "github.com/craftflow/craftflow/internal/infra/repository/journal"
	"github.com/craftflow/craftflow/internal/infra/persistence/sqlite"
	"github.com/craftflow/craftflow/internal/pipeline"
)

func homeDir() string {
	return app.GetPaths().Home
}

// runtime bundles everything a command needs to drive the engine.
type runtime struct {
	paths       app.Paths
	engine      *execution.Engine
	checkpoints repository.CheckpointRepository
	journal     repository.JournalRepository
	db          *sql.DB // nil for the file backend
}

func (rt *runtime) Close() error {
	if rt.db != nil {
		return rt.db.Close()
	}
	return nil
}

// newRuntime wires the engine from the loaded configuration: the
// checkpoint backend, the journal, the agent gateway, the artifact
// store, and optionally the publish gateway.
func newRuntime() (*runtime, error) {
	cfg := globalConfig
	paths := app.PathsIn(cfg.Home())

	if err := os.MkdirAll(paths.Sessions, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", paths.Sessions, err)
	}

	rt := &runtime{paths: paths}

	switch cfg.CheckpointBackend() {
	case "", "file":
		rt.checkpoints = checkpointrepo.NewFileCheckpointRepository(afero.NewOsFs(), paths.Sessions)
	case "sqlite":
		db, err := sql.Open("sqlite3", paths.DB)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", paths.DB, err)
		}
		if err := sqlite.NewMigrator(db).Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		rt.db = db
		rt.checkpoints = sqlite.NewCheckpointRepository(db)
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q (file or sqlite)", cfg.CheckpointBackend())
	}

	rt.journal = journalrepo.NewJournalRepositoryImpl(paths.Journal)

	agentGW, err := agent.NewAgentGateway(cfg.Agent(), cfg.AgentBin(), cfg.Timeout())
	if err != nil {
		rt.Close()
		return nil, err
	}

	var publisher output.PublishGateway
	if cfg.PublishEnabled() {
		if cfg.GitHubOwner() == "" || cfg.GitHubRepo() == "" || cfg.GitHubToken() == "" {
			rt.Close()
			return nil, fmt.Errorf("publishing enabled but github owner, repo or CRAFTFLOW_GITHUB_TOKEN is missing")
		}
		publisher = publish.NewGitHubGateway(cfg.GitHubOwner(), cfg.GitHubRepo(), cfg.GitHubToken())
	}

	pipeCfg, err := pipeline.Load(paths.Pipeline)
	if err != nil {
		rt.Close()
		return nil, err
	}

	graph, err := execution.BuildGraph(execution.Options{
		Agent:        agentGW,
		Store:        storage.NewAferoArtifactStore(afero.NewOsFs()),
		Publisher:    publisher,
		Pipeline:     pipeCfg,
		Timeout:      cfg.Timeout(),
		PublishFatal: cfg.PublishFatal(),
		Log:          GetLogger(),
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.engine = execution.NewEngine(graph, rt.checkpoints, rt.journal, cfg.MaxTurns(), GetLogger())
	return rt, nil
}

// reportResult prints the outcome of a run or resume in a scriptable
// single-line format.
func reportResult(res *execution.RunResult) {
	switch res.Status {
	case execution.StatusSuspended:
		fmt.Printf("session %s suspended at %s (turn %d)\n", res.SessionID, res.Stage, res.Turn)
		fmt.Printf("review the story, then: craftflow resume %s --approve | --feedback <text>\n", res.SessionID)
	case execution.StatusCompleted:
		fmt.Printf("session %s completed (turn %d)\n", res.SessionID, res.Turn)
	case execution.StatusMaxTurns:
		fmt.Printf("session %s stopped at the turn guard at %s (turn %d); resume to continue\n", res.SessionID, res.Stage, res.Turn)
	}
}
