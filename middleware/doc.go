// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP plumbing shared by all handlers.

# Helpers

  - WithLogging: request start/completion logging with duration
  - JSONResponse / ErrorResponse / StateResponse: JSON writers;
    StateResponse carries a named UI error state plus collected errors
  - ParseJSONBody: request body decoding
  - CORS: cross-origin support with preflight handling
  - ClientIP: proxy-aware client address extraction

# Client IP Priority

ClientIP checks X-Real-IP first, then the first hop of X-Forwarded-For,
then RemoteAddr with the port stripped, and falls back to the sentinel
"unknown".
*/
package middleware
