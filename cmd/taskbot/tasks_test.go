package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/taskbot/internal/domain"
)

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Tasks: []domain.Task{{
			Category: domain.CategoryExam,
			Subject:  domain.SubjectOf("数学"),
			Details:  "小テスト",
			At:       time.Date(2025, 3, 21, 9, 0, 0, 0, time.UTC),
		}},
		Subjects: []string{"数学"},
	}
}

func TestWriteExportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeExport(&buf, sampleSnapshot(), "yaml"))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	tasks := doc["tasks"].([]any)
	require.Len(t, tasks, 1)
	task := tasks[0].(map[string]any)
	assert.Equal(t, "exam", task["category"])
	assert.Equal(t, "小テスト", task["details"])
	assert.Equal(t, []any{"数学"}, doc["subjects"])
}

func TestWriteExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeExport(&buf, sampleSnapshot(), "json"))
	assert.Contains(t, buf.String(), `"category": "exam"`)
}

func TestWriteExportUnknownFormat(t *testing.T) {
	assert.ErrorContains(t, writeExport(&bytes.Buffer{}, sampleSnapshot(), "toml"), `unknown format "toml"`)
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"serve"}, {"tasks", "list"}, {"export"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
