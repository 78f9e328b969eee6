// Package paths rewrites filesystem paths between their expanded in-memory
// form and the symbolic form stored in configuration files.
//
// Two roots are recognized: the user's home directory ($HOME) and the window
// manager's config home ($TILER_CONFIG_HOME). A path stored as
// "$TILER_CONFIG_HOME/wallpapers/a.png" is expanded on load and collapsed
// back to the token on save, so files stay portable between machines.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// HomeToken is the symbolic form of the user's home directory.
	HomeToken = "$HOME"
	// ConfigHomeToken is the symbolic form of the window manager's config home.
	ConfigHomeToken = "$TILER_CONFIG_HOME"

	// ConfigHomeEnv overrides the config home directory.
	ConfigHomeEnv = "TILER_CONFIG_HOME"
)

// Path is a configuration leaf holding a filesystem path. Values of this type
// are normalized through Roots wherever they appear in a configuration tree.
type Path string

// String returns the path as a plain string.
func (p Path) String() string {
	return string(p)
}

// Roots holds the absolute directories that map to symbolic tokens.
// An empty root is never matched.
type Roots struct {
	Home       string
	ConfigHome string
}

// FromEnv resolves Roots from the process environment.
// ConfigHome is $TILER_CONFIG_HOME, else $XDG_CONFIG_HOME/tiler,
// else ~/.config/tiler.
func FromEnv() Roots {
	home, _ := os.UserHomeDir()
	return Roots{
		Home:       cleanRoot(home),
		ConfigHome: cleanRoot(ConfigHome(home)),
	}
}

// ConfigHome returns the window manager's config directory for the given home.
func ConfigHome(home string) string {
	if dir := os.Getenv(ConfigHomeEnv); dir != "" {
		return dir
	}
	return filepath.Join(XDGConfigHome(home), "tiler")
}

// XDGConfigHome returns $XDG_CONFIG_HOME, falling back to ~/.config.
func XDGConfigHome(home string) string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(home, ".config")
}

// XDGStateHome returns $XDG_STATE_HOME, falling back to ~/.local/state.
func XDGStateHome(home string) string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(home, ".local", "state")
}

// Expand replaces a leading token (or "~") with its root.
// Paths without a known token are returned unchanged.
func (r Roots) Expand(p string) string {
	if p == "" {
		return p
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if r.Home == "" {
			return p
		}
		return filepath.Join(r.Home, p[1:])
	}
	for _, m := range r.mappings() {
		if rest, ok := cutToken(p, m.token); ok {
			return filepath.Join(m.root, rest)
		}
	}
	return p
}

// Collapse replaces the longest matching root prefix with its token.
// Only whole path components match: "/home/ann2" is not under "/home/ann".
func (r Roots) Collapse(p string) string {
	if p == "" || !filepath.IsAbs(p) {
		return p
	}
	clean := filepath.Clean(p)

	best := -1
	var out string
	for _, m := range r.mappings() {
		rel, ok := under(clean, m.root)
		if !ok || len(m.root) <= best {
			continue
		}
		best = len(m.root)
		if rel == "" {
			out = m.token
		} else {
			out = m.token + "/" + filepath.ToSlash(rel)
		}
	}
	if best < 0 {
		return p
	}
	return out
}

// Canonical returns the stored spelling of p: expanded first so that "~",
// tokens and literal roots all compare equal, then collapsed.
func (r Roots) Canonical(p string) string {
	return r.Collapse(r.Expand(p))
}

type mapping struct {
	token string
	root  string
}

func (r Roots) mappings() []mapping {
	out := make([]mapping, 0, 2)
	if r.ConfigHome != "" {
		out = append(out, mapping{token: ConfigHomeToken, root: r.ConfigHome})
	}
	if r.Home != "" {
		out = append(out, mapping{token: HomeToken, root: r.Home})
	}
	return out
}

// cutToken strips token from p when it is followed by a separator or ends p.
func cutToken(p, token string) (string, bool) {
	if !strings.HasPrefix(p, token) {
		return "", false
	}
	rest := p[len(token):]
	if rest == "" {
		return "", true
	}
	if rest[0] == '/' || rest[0] == filepath.Separator {
		return rest[1:], true
	}
	return "", false
}

// under reports whether p is root or inside root, returning the relative part.
func under(p, root string) (string, bool) {
	if p == root {
		return "", true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	return p[len(prefix):], true
}

func cleanRoot(dir string) string {
	if dir == "" {
		return ""
	}
	return filepath.Clean(dir)
}
