package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"floorguard/internal/domain"
)

// Storage persists pool bindings and archives the execution audit trail.
// The in-memory registry stays authoritative at runtime; this layer restores
// bindings at bootstrap and keeps a durable copy of every audit record.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a SQLite storage instance at the default path.
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	return Open(dbPath)
}

// Open connects to a SQLite database file (pure Go driver) and migrates.
func Open(dbPath string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.PoolBinding{}, &domain.BuybackExecution{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path under the user config dir.
func getDBPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "floorguard", "data", "floorguard.db"), nil
}

// ======================================================================================
// Pool binding operations
// ======================================================================================

// SavePool creates or updates a binding snapshot.
func (s *Storage) SavePool(binding *domain.PoolBinding) error {
	return s.db.Save(binding).Error
}

// GetPool retrieves a binding snapshot by pool id.
func (s *Storage) GetPool(poolID string) (*domain.PoolBinding, error) {
	var binding domain.PoolBinding
	err := s.db.First(&binding, "pool_id = ?", poolID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &binding, err
}

// GetAllPools retrieves all binding snapshots, oldest registration first.
func (s *Storage) GetAllPools() ([]domain.PoolBinding, error) {
	var bindings []domain.PoolBinding
	err := s.db.Order("registered_at asc").Find(&bindings).Error
	return bindings, err
}

// DeletePool removes a binding snapshot.
func (s *Storage) DeletePool(poolID string) error {
	return s.db.Where("pool_id = ?", poolID).Delete(&domain.PoolBinding{}).Error
}

// ======================================================================================
// Execution archive operations
// ======================================================================================

// RecordExecution archives one audit record. Implements
// domain.ExecutionRecorder.
func (s *Storage) RecordExecution(exec *domain.BuybackExecution) error {
	row := *exec
	row.ID = 0 // let the archive assign its own key
	return s.db.Create(&row).Error
}

// GetExecutions returns archived records, newest first. A non-empty poolID
// filters to that pool; limit <= 0 returns everything.
func (s *Storage) GetExecutions(poolID string, limit int) ([]domain.BuybackExecution, error) {
	q := s.db.Order("executed_at desc")
	if poolID != "" {
		q = q.Where("pool_id = ?", poolID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var execs []domain.BuybackExecution
	err := q.Find(&execs).Error
	return execs, err
}
