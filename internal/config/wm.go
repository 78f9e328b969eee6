package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/tilecfg/internal/paths"
)

// Layout is a workspace tiling layout.
type Layout string

const (
	LayoutBSP                    Layout = "bsp"
	LayoutColumns                Layout = "columns"
	LayoutRows                   Layout = "rows"
	LayoutVerticalStack          Layout = "vertical_stack"
	LayoutHorizontalStack        Layout = "horizontal_stack"
	LayoutUltrawideVerticalStack Layout = "ultrawide_vertical_stack"
	LayoutRightMainVerticalStack Layout = "right_main_vertical_stack"
	LayoutGrid                   Layout = "grid"
	LayoutScrolling              Layout = "scrolling"
)

// Layouts lists every valid layout.
var Layouts = []Layout{
	LayoutBSP, LayoutColumns, LayoutRows, LayoutVerticalStack, LayoutHorizontalStack,
	LayoutUltrawideVerticalStack, LayoutRightMainVerticalStack, LayoutGrid, LayoutScrolling,
}

// IsValid returns true if the layout is a recognized value.
func (l Layout) IsValid() bool { return isOneOf(l, Layouts) }

// UnmarshalYAML rejects unknown layouts.
func (l *Layout) UnmarshalYAML(node *yaml.Node) error {
	return decodeEnum(node, l, "layout", Layouts)
}

// HidingBehaviour is how the window manager hides windows on inactive workspaces.
type HidingBehaviour string

const (
	HidingCloak    HidingBehaviour = "cloak"
	HidingHide     HidingBehaviour = "hide"
	HidingMinimize HidingBehaviour = "minimize"
)

// HidingBehaviours lists every valid hiding behaviour.
var HidingBehaviours = []HidingBehaviour{HidingCloak, HidingHide, HidingMinimize}

// UnmarshalYAML rejects unknown hiding behaviours.
func (h *HidingBehaviour) UnmarshalYAML(node *yaml.Node) error {
	return decodeEnum(node, h, "window hiding behaviour", HidingBehaviours)
}

// MoveBehaviour is what happens when a window is moved across monitors.
type MoveBehaviour string

const (
	MoveSwap   MoveBehaviour = "swap"
	MoveInsert MoveBehaviour = "insert"
	MoveNoOp   MoveBehaviour = "no_op"
)

// MoveBehaviours lists every valid move behaviour.
var MoveBehaviours = []MoveBehaviour{MoveSwap, MoveInsert, MoveNoOp}

// UnmarshalYAML rejects unknown move behaviours.
func (m *MoveBehaviour) UnmarshalYAML(node *yaml.Node) error {
	return decodeEnum(node, m, "cross monitor move behaviour", MoveBehaviours)
}

// BorderStyle is the window border shape.
type BorderStyle string

const (
	BorderStyleSystem  BorderStyle = "system"
	BorderStyleRounded BorderStyle = "rounded"
	BorderStyleSquare  BorderStyle = "square"
)

// BorderStyles lists every valid border style.
var BorderStyles = []BorderStyle{BorderStyleSystem, BorderStyleRounded, BorderStyleSquare}

// UnmarshalYAML rejects unknown border styles.
func (b *BorderStyle) UnmarshalYAML(node *yaml.Node) error {
	return decodeEnum(node, b, "border style", BorderStyles)
}

// AnimationStyle is the easing curve for window movement.
type AnimationStyle string

const (
	AnimationLinear     AnimationStyle = "linear"
	AnimationEaseIn     AnimationStyle = "ease_in"
	AnimationEaseOut    AnimationStyle = "ease_out"
	AnimationEaseInOut  AnimationStyle = "ease_in_out"
	AnimationEaseOutExp AnimationStyle = "ease_out_expo"
)

// AnimationStyles lists every valid animation style.
var AnimationStyles = []AnimationStyle{
	AnimationLinear, AnimationEaseIn, AnimationEaseOut, AnimationEaseInOut, AnimationEaseOutExp,
}

// UnmarshalYAML rejects unknown animation styles.
func (a *AnimationStyle) UnmarshalYAML(node *yaml.Node) error {
	return decodeEnum(node, a, "animation style", AnimationStyles)
}

// ThemeVariant selects the light or dark half of a generated palette.
type ThemeVariant string

const (
	ThemeDark  ThemeVariant = "dark"
	ThemeLight ThemeVariant = "light"
)

// ThemeVariants lists every valid theme variant.
var ThemeVariants = []ThemeVariant{ThemeDark, ThemeLight}

// UnmarshalYAML rejects unknown theme variants.
func (t *ThemeVariant) UnmarshalYAML(node *yaml.Node) error {
	return decodeEnum(node, t, "theme variant", ThemeVariants)
}

// Rect is an offset or padding on each edge, in pixels.
type Rect struct {
	Left   int `yaml:"left"`
	Top    int `yaml:"top"`
	Right  int `yaml:"right"`
	Bottom int `yaml:"bottom"`
}

// MatchingRule identifies windows by one of their properties.
type MatchingRule struct {
	// Kind is the property to match: exe, class, title or path
	Kind string `yaml:"kind"`
	// ID is the value to match against
	ID string `yaml:"id"`
	// Strategy is equals, starts_with, ends_with, contains or regex (default: equals)
	Strategy string `yaml:"matching_strategy,omitempty"`
}

// Config is the window manager configuration (tiler.yaml).
type Config struct {
	// DefaultWorkspacePadding is the gap around each workspace's edge (default: 10)
	DefaultWorkspacePadding *int `yaml:"default_workspace_padding,omitempty"`

	// DefaultContainerPadding is the gap between containers (default: 10)
	DefaultContainerPadding *int `yaml:"default_container_padding,omitempty"`

	// WindowHidingBehaviour (default: cloak)
	WindowHidingBehaviour *HidingBehaviour `yaml:"window_hiding_behaviour,omitempty"`

	// CrossMonitorMoveBehaviour (default: swap)
	CrossMonitorMoveBehaviour *MoveBehaviour `yaml:"cross_monitor_move_behaviour,omitempty"`

	FocusFollowsMouse *bool `yaml:"focus_follows_mouse,omitempty"`
	MouseFollowsFocus *bool `yaml:"mouse_follows_focus,omitempty"`

	// ResizeDelta is the pixel step of keyboard resizes (default: 50)
	ResizeDelta *int `yaml:"resize_delta,omitempty"`

	// AppSpecificConfigurationPath points at the application rules file
	AppSpecificConfigurationPath *paths.Path `yaml:"app_specific_configuration_path,omitempty"`

	GlobalWorkAreaOffset *Rect `yaml:"global_work_area_offset,omitempty"`

	Border    *Border    `yaml:"border,omitempty"`
	Animation *Animation `yaml:"animation,omitempty"`

	// FloatRules are windows that are never tiled
	FloatRules []MatchingRule `yaml:"float_rules,omitempty"`

	// DisplayIndexPreferences pins monitor indices to device ids
	DisplayIndexPreferences map[int]string `yaml:"display_index_preferences,omitempty"`

	// Monitors is positional: entry i configures physical monitor i.
	Monitors []Monitor `yaml:"monitors,omitempty"`
}

// Border configures window borders.
type Border struct {
	Enabled *bool        `yaml:"enabled,omitempty"`
	Width   *int         `yaml:"width,omitempty"`
	Offset  *int         `yaml:"offset,omitempty"`
	Style   *BorderStyle `yaml:"style,omitempty"`
	Colours *Colours     `yaml:"colours,omitempty"`
}

// Colours are the border colours per container state.
type Colours struct {
	Single    *string `yaml:"single,omitempty"`
	Stack     *string `yaml:"stack,omitempty"`
	Monocle   *string `yaml:"monocle,omitempty"`
	Unfocused *string `yaml:"unfocused,omitempty"`
}

// Animation configures window movement animation.
type Animation struct {
	Enabled  *bool           `yaml:"enabled,omitempty"`
	Duration *time.Duration  `yaml:"duration,omitempty"`
	Style    *AnimationStyle `yaml:"style,omitempty"`
	FPS      *int            `yaml:"fps,omitempty"`
}

// Monitor configures one physical monitor.
type Monitor struct {
	WorkAreaOffset                 *Rect `yaml:"work_area_offset,omitempty"`
	WindowBasedWorkAreaOffset      *Rect `yaml:"window_based_work_area_offset,omitempty"`
	WindowBasedWorkAreaOffsetLimit *int  `yaml:"window_based_work_area_offset_limit,omitempty"`

	Wallpaper *Wallpaper `yaml:"wallpaper,omitempty"`

	// Workspaces is positional: entry i is workspace i on this monitor.
	Workspaces []Workspace `yaml:"workspaces,omitempty"`
}

// Workspace configures one workspace of a monitor.
type Workspace struct {
	// Name is required and identifies the workspace in commands
	Name string `yaml:"name"`

	Layout        *Layout        `yaml:"layout,omitempty"`
	LayoutOptions *LayoutOptions `yaml:"layout_options,omitempty"`

	// LayoutRules switch layout once the window count reaches the key
	LayoutRules map[int]Layout `yaml:"layout_rules,omitempty"`

	ContainerPadding               *int  `yaml:"container_padding,omitempty"`
	WorkspacePadding               *int  `yaml:"workspace_padding,omitempty"`
	ApplyWindowBasedWorkAreaOffset *bool `yaml:"apply_window_based_work_area_offset,omitempty"`
	FloatOverride                  *bool `yaml:"float_override,omitempty"`

	InitialWorkspaceRules []MatchingRule `yaml:"initial_workspace_rules,omitempty"`
	WorkspaceRules        []MatchingRule `yaml:"workspace_rules,omitempty"`

	Wallpaper *Wallpaper `yaml:"wallpaper,omitempty"`
}

// LayoutOptions tune individual layouts.
type LayoutOptions struct {
	// Ratios are the split ratios of the primary containers
	Ratios    []float64         `yaml:"ratios,omitempty"`
	Scrolling *ScrollingOptions `yaml:"scrolling,omitempty"`
	Grid      *GridOptions      `yaml:"grid,omitempty"`
}

// ScrollingOptions tune the scrolling layout.
type ScrollingOptions struct {
	Columns             *int  `yaml:"columns,omitempty"`
	CenterFocusedColumn *bool `yaml:"center_focused_column,omitempty"`
}

// GridOptions tune the grid layout.
type GridOptions struct {
	// Rows is the maximum rows per column, 0 for automatic
	Rows *int `yaml:"rows,omitempty"`
}

// Wallpaper sets a wallpaper and optionally derives a theme from it.
type Wallpaper struct {
	Path          *paths.Path   `yaml:"path,omitempty"`
	GenerateTheme *bool         `yaml:"generate_theme,omitempty"`
	ThemeOptions  *ThemeOptions `yaml:"theme_options,omitempty"`
}

// ThemeOptions map generated palette slots onto window manager elements.
type ThemeOptions struct {
	ThemeVariant    *ThemeVariant `yaml:"theme_variant,omitempty"`
	SingleBorder    *string       `yaml:"single_border,omitempty"`
	StackBorder     *string       `yaml:"stack_border,omitempty"`
	MonocleBorder   *string       `yaml:"monocle_border,omitempty"`
	UnfocusedBorder *string       `yaml:"unfocused_border,omitempty"`
	BarAccent       *string       `yaml:"bar_accent,omitempty"`
}
