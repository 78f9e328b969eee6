package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRoots() Roots {
	return Roots{
		Home:       "/home/ann",
		ConfigHome: "/home/ann/.config/tiler",
	}
}

func TestCollapse(t *testing.T) {
	r := testRoots()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"under home", "/home/ann/pictures/wall.png", "$HOME/pictures/wall.png"},
		{"home itself", "/home/ann", "$HOME"},
		{"config home wins over home", "/home/ann/.config/tiler/layouts/a.json", "$TILER_CONFIG_HOME/layouts/a.json"},
		{"config home itself", "/home/ann/.config/tiler", "$TILER_CONFIG_HOME"},
		{"sibling prefix is not a match", "/home/ann2/wall.png", "/home/ann2/wall.png"},
		{"unrelated", "/usr/share/backgrounds/a.png", "/usr/share/backgrounds/a.png"},
		{"relative left alone", "wallpapers/a.png", "wallpapers/a.png"},
		{"already collapsed", "$HOME/a.png", "$HOME/a.png"},
		{"empty", "", ""},
		{"unclean input", "/home/ann//pictures/../wall.png", "$HOME/wall.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Collapse(tt.in))
		})
	}
}

func TestExpand(t *testing.T) {
	r := testRoots()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"home token", "$HOME/pictures/wall.png", "/home/ann/pictures/wall.png"},
		{"home token alone", "$HOME", "/home/ann"},
		{"config home token", "$TILER_CONFIG_HOME/layouts/a.json", "/home/ann/.config/tiler/layouts/a.json"},
		{"tilde", "~/pictures/wall.png", "/home/ann/pictures/wall.png"},
		{"token prefix of longer word", "$HOMEWORK/a", "$HOMEWORK/a"},
		{"absolute untouched", "/usr/share/a.png", "/usr/share/a.png"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Expand(tt.in))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	r := testRoots()
	for _, p := range []string{
		"/home/ann/foo",
		"/home/ann/.config/tiler/whkd/hotkeys.yaml",
		"/opt/wall.png",
	} {
		assert.Equal(t, filepath.Clean(p), r.Expand(r.Collapse(p)), p)
	}
}

func TestCanonical(t *testing.T) {
	r := testRoots()
	assert.Equal(t, r.Canonical("~/foo"), r.Canonical("/home/ann/foo"))
	assert.Equal(t, r.Canonical("$HOME/foo"), r.Canonical("/home/ann/foo"))
	assert.Equal(t, "$TILER_CONFIG_HOME/x", r.Canonical("$HOME/.config/tiler/x"))
}

func TestEmptyRootsNeverMatch(t *testing.T) {
	var r Roots
	assert.Equal(t, "/home/ann/foo", r.Collapse("/home/ann/foo"))
	assert.Equal(t, "$HOME/foo", r.Expand("$HOME/foo"))
	assert.Equal(t, "~/foo", r.Expand("~/foo"))
}

func TestFromEnv(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	t.Run("explicit config home", func(t *testing.T) {
		t.Setenv(ConfigHomeEnv, filepath.Join(tmp, "custom"))
		t.Setenv("XDG_CONFIG_HOME", "")
		r := FromEnv()
		assert.Equal(t, tmp, r.Home)
		assert.Equal(t, filepath.Join(tmp, "custom"), r.ConfigHome)
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv(ConfigHomeEnv, "")
		t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "xdg"))
		assert.Equal(t, filepath.Join(tmp, "xdg", "tiler"), FromEnv().ConfigHome)
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv(ConfigHomeEnv, "")
		t.Setenv("XDG_CONFIG_HOME", "")
		assert.Equal(t, filepath.Join(tmp, ".config", "tiler"), FromEnv().ConfigHome)
	})
}
