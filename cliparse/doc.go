// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration from CLI flags and environment
variables.

# Resolution Order

For each setting: CLI flag, then environment variable, then default (if one
exists). A .env file is loaded (via godotenv) before environment lookup, so
a local .env behaves exactly like exported variables. Environment variables
are read if unset, never overwritten.

# Required Settings

The five database fields plus the write table are required; absence of any
is a fatal startup error:

  - FORMSINK_HOST (-db-host)
  - FORMSINK_PORT (-db-port)
  - FORMSINK_DBNAME (-db-name)
  - FORMSINK_USER (-db-user)
  - FORMSINK_PASSWORD (-db-password)
  - FORMSINK_WRITE_TABLE (-write-table)
  - ADMIN_KEY_SALT (-admin-salt)

# Optional Settings

  - PORT (-p): HTTP port (default 3838)
  - FORMSINK_LOG_TABLE (-log-table): audit log table (default "survey_log")
  - FORMSINK_SURVEY_DIR (-surveys): survey definition directory (default "surveys")
*/
package cliparse
