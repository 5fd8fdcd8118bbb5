package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/partscout/pkg/config"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		want  bool
	}{
		{"debug hidden by default", LogInfo, false},
		{"debug shown with --verbose", LogDebug, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newLogger(&buf, tt.level).Debug("supplier search done", "supplier", "ti", "parts", 3)
			assert.Equal(t, tt.want, buf.Len() > 0)
		})
	}
}

func TestLoggerTimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, LogInfo).Warn("only loaded 1 of 2 available suppliers")
	assert.Regexp(t, regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} WARN only loaded 1 of 2 available suppliers`), buf.String())
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Logger.Debug("hidden")
	require.Zero(t, buf.Len())

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("loaded supplier", "supplier", "future")
	assert.Contains(t, buf.String(), "supplier=future")
}

func TestProgressReportsSearchDuration(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogInfo))
	prog.done("Searched 2 suppliers for LM358")
	assert.Regexp(t, `Searched 2 suppliers for LM358 \(\d+(\.\d+)?[mµn]?s\)`, buf.String())
}

func TestRootCommandAttachesLogger(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	root := c.RootCommand()

	var got *log.Logger
	root.AddCommand(&cobra.Command{
		Use: "whoami",
		Run: func(cmd *cobra.Command, args []string) {
			got = loggerFromContext(cmd.Context())
		},
	})
	root.SetArgs([]string{"whoami"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Same(t, c.Logger, got)
}

func TestLoggerFromContextDefault(t *testing.T) {
	assert.Same(t, log.Default(), loggerFromContext(context.Background()))
}

func TestLoadConfigLogsWarnings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.GlobalFile), []byte("currrency = \"EUR\"\n"), 0o600))

	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.configDir = dir
	_, err := c.loadConfig()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "currrency")
}
