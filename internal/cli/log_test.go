package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runLogged executes the CLI at level and returns what it logged.
func runLogged(t *testing.T, level log.Level, args ...string) string {
	t.Helper()
	var logs bytes.Buffer
	root := New(&logs, level).RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return logs.String()
}

func TestSolveLogsProgress(t *testing.T) {
	isolate(t)
	path := writeInput(t, sampleInput)

	logs := runLogged(t, LogInfo, "solve", "--no-cache", "--policy", "all", path)
	assert.Contains(t, logs, "Solved 2 policies")
	assert.Contains(t, logs, "parsed diagram")
	assert.Contains(t, logs, "simulated moves")
	assert.NotContains(t, logs, "simulate done", "hook events are debug only")
	assert.Regexp(t, regexp.MustCompile(`(?m)^\d{2}:\d{2}:\d{2}\.\d{2} `), logs)

	logs = runLogged(t, LogInfo, "solve", "--no-cache", "-p", "batch", path)
	assert.Contains(t, logs, "Solved 1 policy")
}

func TestSolveLogsSkippedLines(t *testing.T) {
	isolate(t)
	path := writeInput(t, sampleInput+"move 9 from 1 to 2\n")

	logs := runLogged(t, LogInfo, "solve", "--no-cache", "--lenient", path)
	assert.Contains(t, logs, "skipped instruction")
	assert.Contains(t, logs, "line=5")
}

func TestDebugLevelLogsHooks(t *testing.T) {
	isolate(t)
	path := writeInput(t, sampleInput)

	logs := runLogged(t, LogDebug, "solve", "-p", "batch", path)
	assert.Contains(t, logs, "hooks")
	assert.Contains(t, logs, "cache miss")
	assert.Contains(t, logs, "simulate done")

	logs = runLogged(t, LogDebug, "solve", "-p", "batch", path)
	assert.Contains(t, logs, "cache hit")
	assert.NotContains(t, logs, "simulate done")
}

func TestConfigLogLevel(t *testing.T) {
	isolate(t)
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	require.NoError(t, os.MkdirAll(filepath.Join(configHome, appName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configHome, appName, "config.toml"), []byte("[log]\nlevel = \"debug\"\n"), 0o644))

	logs := runLogged(t, LogInfo, "solve", "--no-cache", writeInput(t, sampleInput))
	assert.Contains(t, logs, "parse done", "log.level raises the default level")
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogInfo)

	ctx := withLogger(context.Background(), logger)
	assert.Same(t, logger, loggerFromContext(ctx))

	newProgress(loggerFromContext(ctx)).done("Solved 1 policy")
	assert.Regexp(t, `Solved 1 policy \([\d.]+m?s\)`, buf.String())

	assert.Same(t, log.Default(), loggerFromContext(context.Background()))
}
