package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"hotel-booking-engine/models"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MySQLDSN resolves the go-sql-driver DSN. A mysql:// URL is translated, any
// other URL is used as is, and otherwise the discrete fields are assembled.
// Timestamps are always read and written in UTC.
func MySQLDSN(cfg DB) (string, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	c := baseMySQLConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = cfg.Host + ":" + cfg.Port
	c.DBName = cfg.Name
	return c.FormatDSN(), nil
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse MYSQL_URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse MYSQL_URL: missing host")
	}

	c := baseMySQLConfig()
	if u.User != nil {
		c.User = u.User.Username()
		c.Passwd, _ = u.User.Password()
	}
	c.Net = "tcp"
	c.Addr = u.Host
	if u.Port() == "" {
		c.Addr = u.Host + ":3306"
	}
	c.DBName = strings.TrimPrefix(u.Path, "/")
	for key, values := range u.Query() {
		if len(values) > 0 {
			c.Params[key] = values[0]
		}
	}
	return c.FormatDSN(), nil
}

func baseMySQLConfig() *mysqldriver.Config {
	c := mysqldriver.NewConfig()
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c
}

// ConnectDatabase opens the MySQL pool and migrates the schema when enabled.
func ConnectDatabase(cfg DB, log *zap.Logger) (*gorm.DB, error) {
	dsn, err := MySQLDSN(cfg)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("database schema migrated")
	}
	return db, nil
}
