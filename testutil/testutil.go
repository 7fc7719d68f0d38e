// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/danielhkuo/formsink/cliparse"
	"github.com/danielhkuo/formsink/dbops"
)

// NewMockFacade returns a facade over a sqlmock connection with exact SQL
// matching, so tests assert the precise generated statements.
func NewMockFacade(t *testing.T) (*dbops.Facade, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("Failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return dbops.NewFacade(db, nil), mock
}

// TestConfig returns a standard test configuration.
func TestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3838,
		DBHost:       "localhost",
		DBPort:       5432,
		DBName:       "formsink_test",
		DBUser:       "formsink",
		DBPassword:   "devpassword",
		SSLMode:      "disable",
		WriteTable:   "test_responses",
		LogTable:     "survey_log",
		AdminKeySalt: "test-admin-salt",
		SurveyDir:    "surveys",
	}
}

// WriteSurveyDir materializes survey definition files in a temp directory
// and returns its path.
func WriteSurveyDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write survey file %s: %v", name, err)
		}
	}
	return dir
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// DecodeJSON unmarshals a recorded response body.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response body %q: %v", rec.Body.String(), err)
	}
}
