package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/tilecfg/internal/config"
	"github.com/randalmurphal/tilecfg/internal/history"
	"github.com/randalmurphal/tilecfg/internal/paths"
)

// testHome points every root at a fresh temporary home and resets the
// runtime options.
func testHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv(paths.ConfigHomeEnv, "")

	viper.Reset()
	t.Cleanup(viper.Reset)
	jsonOut = false
	t.Cleanup(func() { jsonOut = false })
	return home
}

func wmPath(home string) string {
	return filepath.Join(home, ".config", "tiler", config.WMFileName)
}

// execute runs a fresh command with args and returns its output.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSetGetUnset(t *testing.T) {
	home := testHome(t)

	_, err := execute(t, newSetCmd(), "wm", "border.width", "4")
	require.NoError(t, err)
	assert.Equal(t, config.Header(config.KindWM)+"\nborder:\n  width: 4\n", readFile(t, wmPath(home)))

	out, err := execute(t, newGetCmd(), "wm", "border.width")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)

	// Defaults resolve without being written.
	out, err = execute(t, newGetCmd(), "wm", "resize_delta")
	require.NoError(t, err)
	assert.Equal(t, "50\n", out)

	out, err = execute(t, newGetCmd(), "wm", "animation.duration")
	require.NoError(t, err)
	assert.Equal(t, "250ms\n", out)

	_, err = execute(t, newUnsetCmd(), "wm", "border.width")
	require.NoError(t, err)
	assert.Equal(t, config.Header(config.KindWM)+"\n", readFile(t, wmPath(home)))
}

func TestSetDefaultValueIsNotWritten(t *testing.T) {
	home := testHome(t)

	_, err := execute(t, newSetCmd(), "wm", "resize_delta", "50")
	require.NoError(t, err)
	assert.NotContains(t, readFile(t, wmPath(home)), "resize_delta")
}

func TestSetErrors(t *testing.T) {
	testHome(t)

	_, err := execute(t, newSetCmd(), "wm", "no_such_key", "1")
	assert.Error(t, err)

	_, err = execute(t, newSetCmd(), "panels", "border.width", "1")
	assert.Error(t, err)

	_, err = execute(t, newSetCmd(), "wm", "border.width", "wide")
	assert.Error(t, err)
}

func TestGetJSON(t *testing.T) {
	testHome(t)
	jsonOut = true

	out, err := execute(t, newGetCmd(), "wm", "border.colours")
	require.NoError(t, err)

	var colours map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &colours))
	assert.Equal(t, "#42a5f5", colours["Single"])
}

func TestShow(t *testing.T) {
	testHome(t)

	_, err := execute(t, newSetCmd(), "wm", "border.width", "4")
	require.NoError(t, err)

	out, err := execute(t, newShowCmd(), "wm")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, config.Header(config.KindWM)))
	assert.Contains(t, out, "width: 4")
	assert.NotContains(t, out, "resize_delta")

	out, err = execute(t, newShowCmd(), "wm", "--resolved")
	require.NoError(t, err)
	assert.Contains(t, out, "width: 4")
	assert.Contains(t, out, "resize_delta: 50")
}

func TestKeys(t *testing.T) {
	testHome(t)

	out, err := execute(t, newKeysCmd(), "wm", "--prefix", "border.")
	require.NoError(t, err)
	keys := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, keys, "border.width")
	for _, k := range keys {
		assert.True(t, strings.HasPrefix(k, "border."), k)
	}

	out, err = execute(t, newKeysCmd(), "wm")
	require.NoError(t, err)
	assert.Contains(t, out, "monitors.N.workspaces.N.layout")
}

func TestCheck(t *testing.T) {
	home := testHome(t)

	out, err := execute(t, newCheckCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "wm: not created")

	writeFile(t, wmPath(home), "resize_delta: 50\nborder:\n  width: 3\n")
	out, err = execute(t, newCheckCmd(), "wm")
	require.NoError(t, err)
	assert.Contains(t, out, "1 redundant key(s)")
	assert.Contains(t, out, "resize_delta")

	_, err = execute(t, newCheckCmd(), "wm", "--strict")
	assert.Error(t, err)

	writeFile(t, wmPath(home), "bogus: 1\n")
	out, err = execute(t, newCheckCmd(), "wm")
	assert.Error(t, err)
	assert.Contains(t, out, "✗ wm")
}

func TestFmt(t *testing.T) {
	home := testHome(t)
	writeFile(t, wmPath(home), "resize_delta: 50\nborder:\n  width: 3\n")

	_, err := execute(t, newFmtCmd(), "--check")
	assert.Error(t, err)

	out, err := execute(t, newFmtCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Formatted "+wmPath(home))
	assert.Equal(t, config.Header(config.KindWM)+"\nborder:\n  width: 3\n", readFile(t, wmPath(home)))

	// Already formatted, and missing documents are left alone.
	out, err = execute(t, newFmtCmd())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoFileExists(t, filepath.Join(home, ".config", "tiler", config.HotkeysFileName))

	_, err = execute(t, newFmtCmd(), "--check")
	assert.NoError(t, err)
}

func TestReconcile(t *testing.T) {
	home := testHome(t)

	out, err := execute(t, newReconcileCmd(), "--count", "3", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would add 3 monitor entries")
	assert.NoFileExists(t, wmPath(home))

	out, err = execute(t, newReconcileCmd(), "--count", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 2 monitor entries")
	assert.Equal(t, config.Header(config.KindWM)+"\nmonitors:\n  - {}\n  - {}\n", readFile(t, wmPath(home)))

	// Existing entries are never removed.
	out, err = execute(t, newReconcileCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to do")
	assert.Contains(t, readFile(t, wmPath(home)), "  - {}\n  - {}\n")
}

func TestReconcileStateFile(t *testing.T) {
	home := testHome(t)
	state := filepath.Join(home, "state.json")
	writeFile(t, state, `{"monitors":{"elements":[{},{},{}]}}`)
	writeFile(t, config.SettingsPath(home), "monitors:\n  source: state_file\n  state_file: "+state+"\n")

	out, err := execute(t, newReconcileCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Added 3 monitor entries")
}

func TestHistory(t *testing.T) {
	home := testHome(t)

	_, err := execute(t, newSetCmd(), "wm", "border.width", "4")
	require.NoError(t, err)
	first := readFile(t, wmPath(home))
	_, err = execute(t, newSetCmd(), "wm", "border.width", "6")
	require.NoError(t, err)

	jsonOut = true
	out, err := execute(t, newHistoryCmd(), "list", "wm")
	require.NoError(t, err)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Greater(t, entries[0].ID, entries[1].ID)
	jsonOut = false

	out, err = execute(t, newHistoryCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "DOCUMENT")

	id := entries[1].ID
	out, err = execute(t, newHistoryCmd(), "show", itoa(id))
	require.NoError(t, err)
	assert.Equal(t, first, out)

	_, err = execute(t, newHistoryCmd(), "restore", itoa(id))
	require.NoError(t, err)
	assert.Equal(t, first, readFile(t, wmPath(home)))

	_, err = execute(t, newHistoryCmd(), "show", "999")
	assert.Error(t, err)
	_, err = execute(t, newHistoryCmd(), "show", "abc")
	assert.Error(t, err)

	out, err = execute(t, newHistoryCmd(), "prune", "wm", "--keep", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 revision(s)")
}

func TestHistoryDisabled(t *testing.T) {
	testHome(t)
	viper.Set(optNoHistory, true)

	_, err := execute(t, newHistoryCmd(), "list")
	assert.Error(t, err)
}

func TestConfigHomeOverride(t *testing.T) {
	testHome(t)
	dir := t.TempDir()
	viper.Set(optConfigHome, dir)

	_, err := execute(t, newSetCmd(), "hotkeys", "shell", "bash")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, config.HotkeysFileName))

	jsonOut = true
	out, err := execute(t, newPathsCmd())
	require.NoError(t, err)
	var infos []pathInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 4)
	assert.Equal(t, filepath.Join(dir, config.HotkeysFileName), infos[2].Path)
	assert.True(t, infos[2].Exists)
	assert.False(t, infos[0].Exists)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, newVersionCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "tilecfg version")
	assert.Contains(t, out, config.SchemaVersion)
}

func TestStatusWithoutTerminal(t *testing.T) {
	home := testHome(t)
	writeFile(t, wmPath(home), "resize_delta: 50\n")

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	require.NoError(t, runEditor(cmd, nil))

	out := buf.String()
	assert.Contains(t, out, "1 redundant key(s)")
	assert.Contains(t, out, "not created (defaults)")
	assert.Contains(t, out, "1 detected")
}

// syncBuffer is a bytes.Buffer safe for the watch loop and the test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchReconcile(t *testing.T) {
	home := testHome(t)
	viper.Set(optDebounce, 20*time.Millisecond)
	viper.Set(optNoHistory, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	cmd := newWatchCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"--reconcile"})
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() { done <- cmd.Execute() }()

	// The initial reconcile saves one monitor; that save is not reported.
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(wmPath(home))
		return err == nil && strings.Contains(string(data), "monitors:")
	}, 5*time.Second, 10*time.Millisecond)

	// Let the echo of that save settle before editing externally.
	time.Sleep(200 * time.Millisecond)

	// An external edit drops the monitors; the reload reconciles again.
	writeFile(t, wmPath(home), "resize_delta: 70\n")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Reloaded wm")
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(wmPath(home))
		return err == nil && strings.Contains(string(data), "resize_delta: 70\nmonitors:")
	}, 5*time.Second, 10*time.Millisecond)

	// The reconcile save after the reload is not reported either.
	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Equal(t, 1, strings.Count(out.String(), "Reloaded wm"))
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
