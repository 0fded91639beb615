package query

import (
	"time"

	"go.uber.org/zap"

	"github.com/lumenview/explorer-go/internal/resolver"
	"github.com/lumenview/explorer-go/internal/shard"
	"github.com/lumenview/explorer-go/internal/storage"
)

// Engine executes the two query classes (operations search and
// transaction/payment search) plus the singular lookups. One Engine serves
// all networks; per-network state lives in the shard directory and the
// resolver caches it owns.
type Engine struct {
	store     storage.DocumentStore
	index     storage.SearchIndex
	dir       *shard.Directory
	years     *shard.YearlyDirectory
	resolvers *resolver.Set
	clock     LedgerClock
	log       *zap.Logger

	networks     []string
	shardTimeout time.Duration
	now          func() time.Time
}

// Config carries the Engine dependencies.
type Config struct {
	Store        storage.DocumentStore
	Index        storage.SearchIndex
	Directory    *shard.Directory
	Years        *shard.YearlyDirectory
	Resolvers    *resolver.Set
	Clock        LedgerClock
	Log          *zap.Logger
	Networks     []string
	ShardTimeout time.Duration
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store:        cfg.Store,
		index:        cfg.Index,
		dir:          cfg.Directory,
		years:        cfg.Years,
		resolvers:    cfg.Resolvers,
		clock:        cfg.Clock,
		log:          log,
		networks:     cfg.Networks,
		shardTimeout: cfg.ShardTimeout,
		now:          time.Now,
	}
}

// Networks returns the configured network identifiers.
func (e *Engine) Networks() []string {
	return e.networks
}
