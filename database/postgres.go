package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var DB *sql.DB

// Config holds database connection pool configuration
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultConfig returns connection pool settings suitable for moderate
// concurrent load.
func DefaultConfig() *Config {
	return &Config{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		PingTimeout:     10 * time.Second,
	}
}

// Connect establishes the database connection with default pool configuration
func Connect(dbURL string) error {
	return ConnectWithConfig(dbURL, DefaultConfig())
}

// ConnectWithConfig establishes the database connection with custom configuration
func ConnectWithConfig(dbURL string, config *Config) error {
	var err error
	DB, err = sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(config.MaxOpenConns)
	DB.SetMaxIdleConns(config.MaxIdleConns)
	DB.SetConnMaxLifetime(config.ConnMaxLifetime)
	DB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
	defer cancel()

	if err = DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"max_open_conns":    config.MaxOpenConns,
		"max_idle_conns":    config.MaxIdleConns,
		"conn_max_lifetime": config.ConnMaxLifetime,
	}).Info("Connected to database successfully")

	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		logrus.Info("Database connection closed")
	}
}

// HealthCheck performs a database health check with a short timeout
func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database connection not established")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// GetConnectionStats returns current database connection pool statistics
func GetConnectionStats() sql.DBStats {
	if DB == nil {
		return sql.DBStats{}
	}
	return DB.Stats()
}

// Migrate applies the schema file statement by statement. Statements that
// fail against an already-migrated database are logged and skipped so the
// schema file stays re-runnable.
func Migrate(schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	statements := parseSQLStatements(string(content))

	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)

		if stmt == "" {
			continue
		}

		_, err = DB.Exec(stmt)
		if err != nil {
			logrus.Warnf("Migration statement failed (continuing): %v", err)
		}
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

// parseSQLStatements splits schema content into individual statements.
// Semicolons inside dollar-quoted function bodies do not terminate a
// statement, so the quota and popularity SQL functions migrate intact.
func parseSQLStatements(content string) []string {
	var statements []string
	var currentStatement strings.Builder
	inDollarQuote := false

	lines := strings.Split(content, "\n")

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || (!inDollarQuote && strings.HasPrefix(trimmed, "--")) {
			continue
		}

		if currentStatement.Len() > 0 {
			currentStatement.WriteString("\n")
		}
		currentStatement.WriteString(line)

		if strings.Count(trimmed, "$$")%2 == 1 {
			inDollarQuote = !inDollarQuote
		}

		if !inDollarQuote && strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(currentStatement.String())
			stmt = strings.TrimSuffix(stmt, ";")
			if stmt != "" {
				statements = append(statements, stmt)
			}
			currentStatement.Reset()
		}
	}

	if currentStatement.Len() > 0 {
		stmt := strings.TrimSpace(currentStatement.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}

	return statements
}

// requiredTables lists the columns every deployment must carry. ValidateSchema
// runs after Migrate to catch drifted databases early instead of failing on
// the first query.
var requiredTables = map[string][]string{
	"coupon_cache": {
		"id", "website_domain", "code", "discount", "description",
		"expires_in", "verified", "restrictions", "confidence_score",
		"source_url", "cache_expires_at", "last_seen_at",
	},
	"coupon_searches": {
		"id", "user_id", "website_domain", "website_name", "coupons_found",
		"search_successful", "ai_model_used", "search_duration_ms", "created_at",
	},
	"popular_websites": {
		"website_domain", "website_name", "search_count", "success_count",
		"total_coupons_found", "last_searched_at",
	},
	"user_search_quotas": {
		"user_id", "quota_date", "searches_used", "searches_allowed",
	},
}

// ValidateSchema verifies that the coupon tables exist with their required columns
func ValidateSchema() error {
	if DB == nil {
		return fmt.Errorf("database connection not established")
	}

	for tableName, requiredColumns := range requiredTables {
		exists, err := tableExists(tableName)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", tableName, err)
		}
		if !exists {
			return fmt.Errorf("required table %s is missing", tableName)
		}

		existingColumns, err := getTableColumns(tableName)
		if err != nil {
			return fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}

		var missing []string
		for _, columnName := range requiredColumns {
			if _, ok := existingColumns[columnName]; !ok {
				missing = append(missing, columnName)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("table %s is missing columns: %s", tableName, strings.Join(missing, ", "))
		}
	}

	logrus.Info("Database schema validation passed")
	return nil
}

func tableExists(tableName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)
	`
	var exists bool
	err := DB.QueryRow(query, tableName).Scan(&exists)
	return exists, err
}

func getTableColumns(tableName string) (map[string]string, error) {
	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
	`
	rows, err := DB.Query(query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]string)
	for rows.Next() {
		var columnName, dataType string
		if err := rows.Scan(&columnName, &dataType); err != nil {
			return nil, err
		}
		columns[columnName] = dataType
	}

	return columns, rows.Err()
}
