// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session provides session identity and admin-key primitives.

# Session IDs

NewSessionID returns a UUID stamped on every response row and audit-log
entry a survey session produces.

# Admin Keys

Admin keys are deterministic HMAC-SHA256 values derived from the survey
name and a server-side salt, so they can be validated without storage:

	key := session.GenerateAdminKey("my_survey", cfg.AdminKeySalt)
	err := session.ValidateAdminKey("my_survey", provided, cfg.AdminKeySalt)

They guard the admin response-listing endpoint.

# IP Hashing

HashIP is a salted one-way hash for deployments that prefer not to store
raw client addresses.
*/
package session
