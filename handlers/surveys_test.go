// handlers/surveys_test.go
package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/danielhkuo/formsink/models"
	"github.com/danielhkuo/formsink/testutil"
)

func newTestHandler(t *testing.T, files map[string]string) (*SurveyHandler, sqlmock.Sqlmock) {
	t.Helper()

	facade, mock := testutil.NewMockFacade(t)
	registry, err := LoadRegistry(testutil.WriteSurveyDir(t, files))
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}
	return NewSurveyHandler(facade, testutil.TestConfig(), registry, nil), mock
}

const demoDoc = `{"pages":[{"name":"intro","elements":[{"type":"text","name":"color"}]}]}`

func demoFiles() map[string]string {
	return map[string]string{"demo.json": demoDoc}
}

func gatedFiles() map[string]string {
	return map[string]string{
		"gated.json": `{"pages":[]}`,
		"gated.fields.json": `[{"field":"source","type":"param","table":"config_source",` +
			`"value_column":"source","text_column":"display_text"}]`,
	}
}

func TestLoadSurvey_UnknownSurvey(t *testing.T) {
	h, _ := newTestHandler(t, demoFiles())

	req := testutil.MakeRequest("GET", "/surveys/nope", nil, nil)
	req.SetPathValue("name", "nope")
	rec := httptest.NewRecorder()
	h.LoadSurvey(rec, req)

	if rec.Code != 404 {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	var resp models.ErrorResponse
	testutil.DecodeJSON(t, rec, &resp)
	if resp.State != models.StateSurveyNotFound {
		t.Errorf("Expected state %q, got %q", models.StateSurveyNotFound, resp.State)
	}
}

func TestLoadSurvey_NullDefinition(t *testing.T) {
	h, _ := newTestHandler(t, map[string]string{"empty.json": "null"})

	req := testutil.MakeRequest("GET", "/surveys/empty", nil, nil)
	req.SetPathValue("name", "empty")
	rec := httptest.NewRecorder()
	h.LoadSurvey(rec, req)

	if rec.Code != 404 {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	var resp models.ErrorResponse
	testutil.DecodeJSON(t, rec, &resp)
	if resp.State != models.StateSurveyUndefined {
		t.Errorf("Expected state %q, got %q", models.StateSurveyUndefined, resp.State)
	}
}

func TestLoadSurvey_ServesDocument(t *testing.T) {
	h, _ := newTestHandler(t, demoFiles())

	req := testutil.MakeRequest("GET", "/surveys/demo", nil, nil)
	req.SetPathValue("name", "demo")
	rec := httptest.NewRecorder()
	h.LoadSurvey(rec, req)

	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var msg models.LoadSurveyMessage
	testutil.DecodeJSON(t, rec, &msg)
	if string(msg.Survey) != demoDoc {
		t.Errorf("Survey document was not passed through verbatim: %s", msg.Survey)
	}
	if rec.Header().Get("X-Session-ID") == "" {
		t.Error("Expected a minted X-Session-ID header")
	}
}

func TestLoadSurvey_EchoesSessionID(t *testing.T) {
	h, _ := newTestHandler(t, demoFiles())

	req := testutil.MakeRequest("GET", "/surveys/demo", nil, map[string]string{"X-Session-ID": "sess-1"})
	req.SetPathValue("name", "demo")
	rec := httptest.NewRecorder()
	h.LoadSurvey(rec, req)

	if got := rec.Header().Get("X-Session-ID"); got != "sess-1" {
		t.Errorf("Expected session id sess-1 echoed, got %q", got)
	}
}

func TestLoadSurvey_ValidParam(t *testing.T) {
	h, mock := newTestHandler(t, gatedFiles())
	mock.ExpectQuery("SELECT * FROM config_source").WillReturnRows(
		sqlmock.NewRows([]string{"source", "display_text"}).
			AddRow("alpha", "Alpha Program").
			AddRow("beta", "Beta Program"))

	req := testutil.MakeRequest("GET", "/surveys/gated?source=alpha", nil, nil)
	req.SetPathValue("name", "gated")
	rec := httptest.NewRecorder()
	h.LoadSurvey(rec, req)

	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var msg models.LoadSurveyMessage
	testutil.DecodeJSON(t, rec, &msg)
	pv, ok := msg.Params["source"]
	if !ok {
		t.Fatal("Expected resolved param for source")
	}
	if pv.Value != "alpha" || pv.Text != "Alpha Program" {
		t.Errorf("Unexpected param value: %+v", pv)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestLoadSurvey_RejectsUnknownParamValue(t *testing.T) {
	h, mock := newTestHandler(t, gatedFiles())
	mock.ExpectQuery("SELECT * FROM config_source").WillReturnRows(
		sqlmock.NewRows([]string{"source", "display_text"}).AddRow("alpha", "Alpha Program"))

	req := testutil.MakeRequest("GET", "/surveys/gated?source=zeta", nil, nil)
	req.SetPathValue("name", "gated")
	rec := httptest.NewRecorder()
	h.LoadSurvey(rec, req)

	if rec.Code != 400 {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	var resp models.ErrorResponse
	testutil.DecodeJSON(t, rec, &resp)
	if resp.State != models.StateInvalidQuery {
		t.Errorf("Expected state %q, got %q", models.StateInvalidQuery, resp.State)
	}
	if len(resp.Errors) != 1 {
		t.Errorf("Expected 1 validation error, got %v", resp.Errors)
	}
}

func TestLoadSurvey_RejectsMissingParam(t *testing.T) {
	h, mock := newTestHandler(t, gatedFiles())
	mock.ExpectQuery("SELECT * FROM config_source").WillReturnRows(
		sqlmock.NewRows([]string{"source", "display_text"}).AddRow("alpha", "Alpha Program"))

	req := testutil.MakeRequest("GET", "/surveys/gated", nil, nil)
	req.SetPathValue("name", "gated")
	rec := httptest.NewRecorder()
	h.LoadSurvey(rec, req)

	if rec.Code != 400 {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestLoadSurvey_BadFieldConfig(t *testing.T) {
	h, _ := newTestHandler(t, map[string]string{
		"broken.json":        `{"pages":[]}`,
		"broken.fields.json": `[{"field":"x","type":"bogus"}]`,
	})

	req := testutil.MakeRequest("GET", "/surveys/broken", nil, nil)
	req.SetPathValue("name", "broken")
	rec := httptest.NewRecorder()
	h.LoadSurvey(rec, req)

	if rec.Code != 500 {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	var resp models.ErrorResponse
	testutil.DecodeJSON(t, rec, &resp)
	if resp.State != models.StateSurveyUndefined {
		t.Errorf("Expected state %q, got %q", models.StateSurveyUndefined, resp.State)
	}
	if len(resp.Errors) == 0 {
		t.Error("Expected config errors in the response")
	}
}

func TestLoadSurvey_InactiveSurvey(t *testing.T) {
	h, _ := newTestHandler(t, map[string]string{
		"closed.json":        `{"pages":[]}`,
		"closed.fields.json": `{"active": false, "fields": []}`,
	})

	req := testutil.MakeRequest("GET", "/surveys/closed", nil, nil)
	req.SetPathValue("name", "closed")
	rec := httptest.NewRecorder()
	h.LoadSurvey(rec, req)

	if rec.Code != 403 {
		t.Fatalf("Expected 403, got %d", rec.Code)
	}
	var resp models.ErrorResponse
	testutil.DecodeJSON(t, rec, &resp)
	if resp.State != models.StateInactiveSurvey {
		t.Errorf("Expected state %q, got %q", models.StateInactiveSurvey, resp.State)
	}
}

func TestGetChoices_UnknownSurvey(t *testing.T) {
	h, _ := newTestHandler(t, demoFiles())

	req := testutil.MakeRequest("GET", "/surveys/nope/choices", nil, nil)
	req.SetPathValue("name", "nope")
	rec := httptest.NewRecorder()
	h.GetChoices(rec, req)

	if rec.Code != 404 {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestGetChoices_NoFields(t *testing.T) {
	h, _ := newTestHandler(t, demoFiles())

	req := testutil.MakeRequest("GET", "/surveys/demo/choices", nil, nil)
	req.SetPathValue("name", "demo")
	rec := httptest.NewRecorder()
	h.GetChoices(rec, req)

	if rec.Code != 204 {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
}

func TestGetChoices_StandaloneChoices(t *testing.T) {
	h, mock := newTestHandler(t, map[string]string{
		"shop.json":        `{"pages":[]}`,
		"shop.fields.json": `[{"field":"fruit","type":"choice","table":"config_fruit","value_column":"name"}]`,
	})
	mock.ExpectQuery("SELECT * FROM config_fruit").WillReturnRows(
		sqlmock.NewRows([]string{"name"}).AddRow("apple").AddRow("pear"))

	req := testutil.MakeRequest("GET", "/surveys/shop/choices", nil, nil)
	req.SetPathValue("name", "shop")
	rec := httptest.NewRecorder()
	h.GetChoices(rec, req)

	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var msg models.ChoiceUpdateMessage
	testutil.DecodeJSON(t, rec, &msg)
	fc, ok := msg.Fields["fruit"]
	if !ok {
		t.Fatal("Expected choices for fruit")
	}
	if fc.Type != models.FieldStandalone {
		t.Errorf("Expected standalone type, got %q", fc.Type)
	}
	want := []string{"apple", "pear"}
	if len(fc.Choices.Value) != 2 || fc.Choices.Value[0] != want[0] || fc.Choices.Value[1] != want[1] {
		t.Errorf("Unexpected choice values: %v", fc.Choices.Value)
	}
}
