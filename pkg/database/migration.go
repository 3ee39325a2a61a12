package database

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

// MigrationLogger adapts ectologger to golang-migrate's logger
type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool {
	return true
}

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

// MigrationService applies schema migrations from a folder of versioned SQL
// files at startup, before the rest of the service comes up.
type MigrationService struct {
	config *MigrationConfig
	logger ectologger.Logger
}

type MigrationConfig struct {
	// MigrationFolderPath is the folder of N_*.up.sql / N_*.down.sql files,
	// absolute or relative to the working directory.
	MigrationFolderPath string
	// Version pins the schema to a specific migration version; zero means
	// migrate all the way up.
	Version uint
	// AutoRollback forces a dirty schema back to the last clean version
	// after a failed migration. The failure still aborts startup.
	AutoRollback bool
}

func NewMigrationService(logger ectologger.Logger, config *MigrationConfig) *MigrationService {
	return &MigrationService{
		config: config,
		logger: logger,
	}
}

func (ms *MigrationService) resolveMigrationFolder() string {
	folder := ms.config.MigrationFolderPath
	if _, err := os.Stat(folder); err == nil {
		return folder
	}
	wd, _ := os.Getwd()
	return filepath.Join(wd, folder)
}

// Migrate brings the named database up to the configured version
func (ms *MigrationService) Migrate(databaseName string, databaseInstance database.Driver) error {
	folder := ms.resolveMigrationFolder()
	if _, err := os.Stat(folder); err != nil {
		return errors.Wrapf(err, "migration folder %s does not exist", folder)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, databaseName, databaseInstance)
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create migrate instance")
		return err
	}

	m.Log = MigrationLogger{Logger: ms.logger}

	return ms.run(m)
}

func (ms *MigrationService) run(m *migrate.Migrate) error {
	from, _, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		ms.logger.WithError(err).Error("Failed to read current migration version")
		from = 0
	}

	start := time.Now()

	var migrationErr error
	if ms.config.Version != 0 {
		migrationErr = m.Migrate(ms.config.Version)
	} else {
		migrationErr = m.Up()
	}

	if migrationErr == nil {
		ms.logger.Infof("Database migrations applied in %v", time.Since(start))
		return nil
	}
	if migrationErr == migrate.ErrNoChange {
		ms.logger.Info("No new migrations to apply")
		return nil
	}

	ms.logger.WithError(migrationErr).Error("Migration failed")

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		ms.logger.WithError(err).Error("Failed to read migration version after failure")
		return migrationErr
	}

	if dirty && ms.config.AutoRollback {
		previous := from
		if previous == 0 && version > 0 {
			previous = version - 1
		}
		ms.logger.Warnf("Database is dirty at version %d, forcing back to version %d", version, previous)
		if err := m.Force(int(previous)); err != nil {
			ms.logger.WithError(err).Errorf("Failed to force database to version %d", previous)
			return err
		}
	}

	return migrationErr
}
