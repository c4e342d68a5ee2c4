package access

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config holds the configuration for the access service
type Config struct {
	DB             *gorm.DB
	RedisClient    *redis.Client // nil disables decision caching
	Catalog        Catalog
	CacheTTL       time.Duration
	CachePrefix    string
	AutoMigrate    bool
	EnableAuditLog bool
	Logger         *zap.SugaredLogger
	Teams          TeamDirectory // nil falls back to the db-backed directory
}

// Service is the authorization core: permission catalog, role registry,
// role-permission assignment, matrix codec and access decisions.
type Service struct {
	db           *gorm.DB
	redisClient  *redis.Client
	catalog      Catalog
	cacheTTL     time.Duration
	cachePrefix  string
	auditEnabled bool
	log          *zap.SugaredLogger
	teams        TeamDirectory
}

// NewService initializes the access service
func NewService(cfg Config) (*Service, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if len(cfg.Catalog.Objects()) == 0 {
		cfg.Catalog = DefaultCatalog()
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = "access:"
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	if cfg.AutoMigrate {
		err := cfg.DB.AutoMigrate(
			&PermissionDefinition{},
			&Role{},
			&RolePermission{},
			&Profile{},
			&Team{},
			&TeamMember{},
			&AuditEntry{},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to auto-migrate: %w", err)
		}
	}

	s := &Service{
		db:           cfg.DB,
		redisClient:  cfg.RedisClient,
		catalog:      cfg.Catalog,
		cacheTTL:     cfg.CacheTTL,
		cachePrefix:  cfg.CachePrefix,
		auditEnabled: cfg.EnableAuditLog,
		log:          cfg.Logger,
		teams:        cfg.Teams,
	}
	if s.teams == nil {
		s.teams = &dbTeamDirectory{db: cfg.DB}
	}
	return s, nil
}

// Catalog returns the injected object catalog.
func (s *Service) Catalog() Catalog {
	return s.catalog
}
