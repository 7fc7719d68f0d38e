// fieldconf/unique_test.go
package fieldconf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielhkuo/formsink/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in    string
		strip bool
		want  string
	}{
		{"  The   A Team ", false, "the a team"},
		{"The A-Team!", true, "theateam"},
		{"ALLCAPS", false, "allcaps"},
		{"tabs\tand\nnewlines", false, "tabs and newlines"},
		{"", false, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in, tt.strip))
	}
}

func uniqueConfigurator(result string) (*Configurator, *stubReader) {
	reader := &stubReader{tables: map[string][]models.Row{
		"responses": {
			{"team_name": "The A Team"},
		},
	}}
	c := New(reader, "responses", []Config{{
		Field: "team_name", Type: "unique",
		Result: result, DisplayField: "captain", StripNonAlnum: true,
	}}, nil)
	return c, reader
}

func TestCheckUnique_StopRejectsNormalizedMatch(t *testing.T) {
	c, _ := uniqueConfigurator(models.UniqueStop)

	status, msg := c.CheckUnique(context.Background(), "team_name", "the a-team")
	assert.Equal(t, UniqueRejected, status)
	assert.NotEmpty(t, msg)
}

func TestCheckUnique_WarnAllowsWithWarning(t *testing.T) {
	c, _ := uniqueConfigurator(models.UniqueWarn)

	status, msg := c.CheckUnique(context.Background(), "team_name", "THE A TEAM")
	assert.Equal(t, UniqueWarned, status)
	assert.NotEmpty(t, msg)
}

func TestCheckUnique_FreshValuePasses(t *testing.T) {
	c, _ := uniqueConfigurator(models.UniqueStop)

	status, _ := c.CheckUnique(context.Background(), "team_name", "The B Team")
	assert.Equal(t, UniqueOK, status)
}

func TestCheckUnique_UnconfiguredFieldPasses(t *testing.T) {
	c, _ := uniqueConfigurator(models.UniqueStop)

	status, _ := c.CheckUnique(context.Background(), "other_field", "anything")
	assert.Equal(t, UniqueOK, status)
}

func TestCheckUnique_UnreadableTableDegradesToOK(t *testing.T) {
	c, reader := uniqueConfigurator(models.UniqueStop)
	reader.fail = map[string]bool{"responses": true}

	status, _ := c.CheckUnique(context.Background(), "team_name", "the a team")
	assert.Equal(t, UniqueOK, status)
}
