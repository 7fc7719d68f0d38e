package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port int

	// Database connection. All five fields are required; startup fails
	// without them.
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	SSLMode    string

	// WriteTable is the table survey responses are appended to. Required.
	WriteTable string
	// LogTable receives audit-log entries. Defaults to "survey_log".
	LogTable string

	// AdminKeySalt guards the admin response-listing endpoint.
	AdminKeySalt string

	// HashIPs stores salted IP hashes instead of raw client addresses.
	HashIPs bool

	// SurveyDir holds the opaque survey definition JSON files.
	SurveyDir string
}

// ParseFlags validates flags, loads .env if present, and fills in
// configuration from environment variables
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string

	fs := flag.NewFlagSet("formsink", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&envFile, "env", "", "Path to .env file (default: .env if present)")

	// Database config
	fs.StringVar(&cfg.DBHost, "db-host", "", "PostgreSQL host")
	fs.IntVar(&cfg.DBPort, "db-port", 0, "PostgreSQL port")
	fs.StringVar(&cfg.DBName, "db-name", "", "PostgreSQL database name")
	fs.StringVar(&cfg.DBUser, "db-user", "", "PostgreSQL user")
	fs.StringVar(&cfg.DBPassword, "db-password", "", "PostgreSQL password (prefer env)")
	fs.StringVar(&cfg.SSLMode, "db-sslmode", "", "PostgreSQL sslmode (disable, require, verify-ca, verify-full)")
	fs.StringVar(&cfg.WriteTable, "write-table", "", "Table to append survey responses to")
	fs.StringVar(&cfg.LogTable, "log-table", "", "Table for audit log entries")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")

	fs.BoolVar(&cfg.HashIPs, "hash-ips", false, "Store salted IP hashes instead of raw client addresses")

	fs.StringVar(&cfg.SurveyDir, "surveys", "", "Directory of survey definition JSON files")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Load .env before falling back to the environment. A missing default
	// .env is fine; an explicitly named one must exist.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3838 // default
		}
	}

	if cfg.DBHost == "" {
		cfg.DBHost = os.Getenv("FORMSINK_HOST")
	}
	if cfg.DBHost == "" {
		return Config{}, errors.New("database host required (use -db-host or FORMSINK_HOST env)")
	}

	if cfg.DBPort == 0 {
		portStr := os.Getenv("FORMSINK_PORT")
		if portStr == "" {
			return Config{}, errors.New("database port required (use -db-port or FORMSINK_PORT env)")
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, errors.New("invalid FORMSINK_PORT env variable")
		}
		cfg.DBPort = port
	}

	if cfg.DBName == "" {
		cfg.DBName = os.Getenv("FORMSINK_DBNAME")
	}
	if cfg.DBName == "" {
		return Config{}, errors.New("database name required (use -db-name or FORMSINK_DBNAME env)")
	}

	if cfg.DBUser == "" {
		cfg.DBUser = os.Getenv("FORMSINK_USER")
	}
	if cfg.DBUser == "" {
		return Config{}, errors.New("database user required (use -db-user or FORMSINK_USER env)")
	}

	if cfg.DBPassword == "" {
		cfg.DBPassword = os.Getenv("FORMSINK_PASSWORD")
	}
	if cfg.DBPassword == "" {
		return Config{}, errors.New("database password required (use -db-password or FORMSINK_PASSWORD env)")
	}

	if cfg.SSLMode == "" {
		cfg.SSLMode = os.Getenv("FORMSINK_SSLMODE")
		if cfg.SSLMode == "" {
			cfg.SSLMode = "require"
		}
	}

	if cfg.WriteTable == "" {
		cfg.WriteTable = os.Getenv("FORMSINK_WRITE_TABLE")
	}
	if cfg.WriteTable == "" {
		return Config{}, errors.New("write table required (use -write-table or FORMSINK_WRITE_TABLE env)")
	}

	if cfg.LogTable == "" {
		cfg.LogTable = os.Getenv("FORMSINK_LOG_TABLE")
		if cfg.LogTable == "" {
			cfg.LogTable = "survey_log"
		}
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if !cfg.HashIPs {
		switch os.Getenv("FORMSINK_HASH_IPS") {
		case "1", "true", "yes":
			cfg.HashIPs = true
		}
	}

	if cfg.SurveyDir == "" {
		cfg.SurveyDir = os.Getenv("FORMSINK_SURVEY_DIR")
		if cfg.SurveyDir == "" {
			cfg.SurveyDir = "surveys"
		}
	}

	return cfg, nil
}
