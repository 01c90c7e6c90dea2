package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the global Postgres connection pool
var DB *pgxpool.Pool

const defaultCacheTTL = 5 * time.Minute

// DBConfig holds the inventory database configuration
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string

	AppFilter string
	CacheTTL  time.Duration
}

// cfg holds the parsed configuration
var cfg DBConfig

// AppFilter returns the application-name substring the dashboard reports on.
func AppFilter() string {
	return cfg.AppFilter
}

// CacheTTL returns the validity window for the global query cache.
func CacheTTL() time.Duration {
	return cfg.CacheTTL
}

// Load initializes configuration from environment variables and creates the
// connection pool. Connection settings are not validated for presence;
// missing values surface as connection errors on first use, and the
// dashboard serves its error state until the database becomes reachable.
func Load() error {
	cfg.Host = os.Getenv("DB_HOST")
	cfg.Port = os.Getenv("DB_PORT")
	cfg.User = os.Getenv("DB_USER")
	cfg.Password = os.Getenv("DB_PASSWORD")
	cfg.Name = os.Getenv("DB_NAME")

	cfg.AppFilter = os.Getenv("APP_FILTER")
	if cfg.AppFilter == "" {
		cfg.AppFilter = "bsp.exe"
	}

	cfg.CacheTTL = defaultCacheTTL
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("Warning: invalid CACHE_TTL %q, using default %v", v, defaultCacheTTL)
		} else {
			cfg.CacheTTL = d
		}
	}

	log.Printf("Connecting to Postgres: host=%s, port=%s, database=%s, user=%s, app_filter=%s",
		cfg.Host, cfg.Port, cfg.Name, cfg.User, cfg.AppFilter)

	pool, err := pgxpool.New(context.Background(), cfg.connString())
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	DB = pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		log.Printf("Warning: database not reachable at startup: %v", err)
	} else {
		log.Printf("Connected to Postgres successfully")
	}

	return nil
}

// Close closes the connection pool
func Close() {
	if DB != nil {
		DB.Close()
	}
}

// connString builds a keyword/value DSN, omitting unset settings so the
// driver's own defaults and error paths apply.
func (c DBConfig) connString() string {
	var parts []string
	add := func(key, val string) {
		if val == "" {
			return
		}
		if strings.ContainsAny(val, " '\\") {
			val = "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(val) + "'"
		}
		parts = append(parts, key+"="+val)
	}
	add("host", c.Host)
	add("port", c.Port)
	add("user", c.User)
	add("password", c.Password)
	add("dbname", c.Name)
	return strings.Join(parts, " ")
}
