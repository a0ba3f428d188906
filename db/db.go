package db

import (
	"context"
	"errors"
	"fmt"
	"organizer/config"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"k8s.io/klog/v2"
)

// ErrStoreUnavailable is returned when the underlying store cannot be opened,
// or a transaction cannot be started or committed.
var ErrStoreUnavailable = errors.New("record store unavailable")

var Instance *gorm.DB

// Init opens the configured store and sets Instance. MySQL is used when
// MYSQL_DSN is set, otherwise the embedded SQLite file.
func Init() {
	var db *gorm.DB
	var err error
	if config.MYSQL_DSN != "" {
		var dsn string
		if dsn, err = MySQLDSN(config.MYSQL_DSN); err == nil {
			db, err = Open(mysql.Open(dsn))
		}
	} else {
		klog.Infof("Using SQLite store: %s", config.SQLITE_FILE)
		db, err = OpenSQLite(config.SQLITE_FILE)
	}
	if err != nil {
		klog.Fatalf("Cannot open store: %v", err)
	}
	Instance = db
}

// MySQLDSN validates dsn and makes sure names are stored as utf8mb4
func MySQLDSN(dsn string) (string, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}
	klog.Infof("Using MySQL store: %s@%s/%s", cfg.User, cfg.Addr, cfg.DBName)
	return cfg.FormatDSN(), nil
}

// OpenSQLite opens (creating if needed) a SQLite file with WAL journaling
// and a busy timeout
func OpenSQLite(file string) (*gorm.DB, error) {
	return Open(sqlite.Open("file:" + file + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"))
}

func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	logLevel := logger.Warn
	if config.DEBUG_MODE {
		logLevel = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 logger.Default.LogMode(logLevel),
	})
	if err != nil || db == nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if dialector.Name() == "sqlite" {
		// One writer at a time, everything else queues behind it
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Transaction runs fn inside a transaction on tx. Errors returned by fn are
// passed through unchanged and roll everything back; failing to begin or
// commit is reported as ErrStoreUnavailable.
func Transaction(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	var fnErr error
	err := tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(tx)
		return fnErr
	})
	if err == nil {
		return nil
	}
	if fnErr != nil {
		return fnErr
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
