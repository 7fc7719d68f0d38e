// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Formsink API server.

Formsink is a survey backend: it serves opaque survey definitions to a
browser form widget, resolves dynamic field choices from PostgreSQL
reference tables, and appends submitted responses to a write table whose
schema is inferred from the first response.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	FORMSINK_HOST=db.example.com FORMSINK_PORT=5432 ... go run main.go

Or with flags:

	go run main.go -p 3838 -db-host localhost -db-port 5432 \
	    -db-name surveys -db-user formsink -write-table my_survey

# Configuration

Required settings:

  - FORMSINK_HOST (-db-host): PostgreSQL host
  - FORMSINK_PORT (-db-port): PostgreSQL port
  - FORMSINK_DBNAME (-db-name): Database name
  - FORMSINK_USER (-db-user): Database user
  - FORMSINK_PASSWORD (-db-password): Database password
  - FORMSINK_WRITE_TABLE (-write-table): Response table
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3838)
  - FORMSINK_SSLMODE (-db-sslmode): sslmode (default: require)
  - FORMSINK_LOG_TABLE (-log-table): Audit table (default: survey_log)
  - FORMSINK_SURVEY_DIR (-surveys): Definition directory (default: surveys)
  - FORMSINK_HASH_IPS (-hash-ips): Store salted IP hashes instead of raw addresses

A .env file in the working directory is loaded when present.

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers and the survey registry
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types and message shapes
  - dbops: Connection pool, schema inference, transactional facade
  - auditlog: Queued, batched audit logging
  - fieldconf: Dynamic field configuration and choice cascades
  - session: Session ids, admin keys, IP hashing
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
