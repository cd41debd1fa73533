package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/tasker/internal/config"
	"github.com/dohr-michael/tasker/internal/models"
	"github.com/dohr-michael/tasker/internal/ops"
	"github.com/dohr-michael/tasker/internal/storage/datadir"
	"github.com/dohr-michael/tasker/internal/tasks"
)

// app is everything a command needs to dispatch tasks locally.
type app struct {
	cfg        *config.Config
	root       *datadir.Root
	dispatcher *tasks.Dispatcher
}

func setupLogging(cmd *cli.Command, quiet slog.Level) {
	level := quiet
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads --config, falling back to defaults when the file is absent.
func loadConfig(cmd *cli.Command) *config.Config {
	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Warn("config not found, using defaults", "path", configPath, "error", err)
		return config.Default()
	}
	return cfg
}

func newApp(cfg *config.Config) (*app, error) {
	root, err := datadir.New(cfg.Data.Dir, cfg.Data.Prefix)
	if err != nil {
		return nil, fmt.Errorf("init data dir: %w", err)
	}

	registry := models.NewRegistry(cfg.Models)
	embedder := sync.OnceValues(func() (embedding.Embedder, error) {
		return models.NewEmbedder(context.Background(), cfg.Embedding)
	})

	handlers := &ops.Handlers{
		Root:       root,
		Tools:      cfg.Tools,
		UserEmail:  cfg.Tasks.UserEmail,
		TicketType: cfg.Tasks.TicketType,
		HTTPClient: http.DefaultClient,
		Extractor: func(ctx context.Context) (model.BaseChatModel, error) {
			return registry.Get(ctx, cfg.Tasks.ExtractorModel)
		},
		Embedder: func(context.Context) (embedding.Embedder, error) {
			return embedder()
		},
	}
	opRegistry, err := ops.NewRegistry(handlers)
	if err != nil {
		return nil, err
	}

	classifier := &lazyClassifier{
		registry: registry,
		name:     cfg.Tasks.ClassifierModel,
		timeout:  cfg.Tasks.ClassifyTimeout,
	}

	slog.Debug("tasker ready",
		"data_dir", root.Dir(),
		"prefix", root.Prefix(),
		"providers", registry.Names(),
		"default_model", registry.DefaultName(),
	)

	return &app{
		cfg:        cfg,
		root:       root,
		dispatcher: tasks.NewDispatcher(classifier, opRegistry, cfg.Tasks.HandlerTimeout.Duration()),
	}, nil
}

// lazyClassifier resolves the classifier model on first use so commands
// that never classify work without model credentials. The registry caches
// the built model.
type lazyClassifier struct {
	registry *models.Registry
	name     string
	timeout  config.Duration
}

func (l *lazyClassifier) Classify(ctx context.Context, task string) (string, error) {
	m, err := l.registry.Get(ctx, l.name)
	if err != nil {
		return "", &tasks.Error{Kind: tasks.ErrClassification, Msg: fmt.Sprintf("init classifier model: %v", err), Err: err}
	}
	return tasks.NewModelClassifier(m, l.timeout.Duration()).Classify(ctx, task)
}
