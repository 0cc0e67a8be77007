package cli

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func runToolsCmd(t *testing.T, format string) (string, error) {
	t.Helper()
	color.NoColor = true
	t.Cleanup(func() { toolsFormat = "table" })

	cmd := GetRootCmd()
	cmd.SetArgs([]string{"tools", "--format", format})
	output := &bytes.Buffer{}
	cmd.SetOut(output)

	err := cmd.Execute()
	return output.String(), err
}

func TestToolsCommand_JSON(t *testing.T) {
	out, err := runToolsCmd(t, "json")
	require.NoError(t, err)

	var entries []catalogEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 6)
	assert.Equal(t, "validate", entries[0].Name)
	assert.Empty(t, entries[0].Parameters)

	var rewrite *catalogEntry
	for i := range entries {
		if entries[i].Name == "rewrite_email" {
			rewrite = &entries[i]
		}
	}
	require.NotNil(t, rewrite)
	require.Len(t, rewrite.Parameters, 2)
	assert.Equal(t, "email_draft", rewrite.Parameters[0].Name)
	assert.Equal(t, "target_tone", rewrite.Parameters[1].Name)
	assert.NotEmpty(t, rewrite.SideEffects)
}

func TestToolsCommand_YAML(t *testing.T) {
	out, err := runToolsCmd(t, "yaml")
	require.NoError(t, err)

	var entries []catalogEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 6)
	assert.Equal(t, "expand_from_bullets", entries[4].Name)
}

func TestToolsCommand_Table(t *testing.T) {
	out, err := runToolsCmd(t, "table")
	require.NoError(t, err)

	assert.Contains(t, out, "TOOL")
	assert.Contains(t, out, "analyze_and_rewrite_email")
	assert.Contains(t, out, "email_draft, target_tone")
	assert.Contains(t, out, "6 tools")
}

func TestPrintToolTable_AlignedWithColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	entries, err := catalog()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printToolTable(&buf, entries))
	require.Contains(t, buf.String(), "\x1b[", "output should be coloured")

	ansi := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	plain := ansi.ReplaceAllString(buf.String(), "")
	lines := strings.Split(plain, "\n")

	header := lines[0]
	paramsCol := strings.Index(header, "PARAMETERS")
	descCol := strings.Index(header, "DESCRIPTION")
	require.Positive(t, paramsCol)

	for i, e := range entries {
		line := lines[i+1]
		assert.Equal(t, paramsCol, strings.Index(line, formatParams(e.Parameters)), line)
		assert.Equal(t, descCol, strings.Index(line, e.Description), line)
	}
}

func TestToolsCommand_UnknownFormat(t *testing.T) {
	_, err := runToolsCmd(t, "xml")
	assert.ErrorContains(t, err, "unknown format")
}
