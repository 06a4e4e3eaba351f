package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Roots         []string `mapstructure:"roots"`
	World         string   `mapstructure:"world"`
	Campaign      string   `mapstructure:"campaign"`
	CaseSensitive bool     `mapstructure:"case_sensitive"`
	Extensions    []string `mapstructure:"extensions"`
	Editor        string   `mapstructure:"editor"`
	Wrap          int      `mapstructure:"wrap"`
	ColorHeader   string   `mapstructure:"color_header"`
	ColorLink     string   `mapstructure:"color_link"`
	ColorDim      string   `mapstructure:"color_dim"`
	ColorBorder   string   `mapstructure:"color_border"`
	ColorCursor   string   `mapstructure:"color_cursor"`
	ColorSelected string   `mapstructure:"color_selected"`
	LogLevel      string   `mapstructure:"log_level"`
	LogFormat     string   `mapstructure:"log_format"`
}

// C is the global config instance
var C Config

const configName = "wikimd"

// Init initializes configuration with viper
func Init() error {
	SetDefaults()

	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", configName))
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("WIKIMD")
	viper.AutomaticEnv()

	// Try to read config, but don't fail if not found or malformed
	_ = viper.ReadInConfig()

	return viper.Unmarshal(&C)
}

// SetDefaults registers default values for every key
func SetDefaults() {
	viper.SetDefault("roots", []string{})
	viper.SetDefault("world", "")
	viper.SetDefault("campaign", "")
	viper.SetDefault("case_sensitive", false)
	viper.SetDefault("extensions", []string{".md", ".markdown"})
	viper.SetDefault("editor", os.Getenv("EDITOR"))
	viper.SetDefault("wrap", 100)
	viper.SetDefault("color_header", "36")    // Cyan
	viper.SetDefault("color_link", "34")      // Blue
	viper.SetDefault("color_dim", "241")      // Gray
	viper.SetDefault("color_border", "240")   // Dark gray
	viper.SetDefault("color_cursor", "212")   // Pink
	viper.SetDefault("color_selected", "236") // Selection background
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "text")
}

// GetRoots returns the scan roots in precedence order with tilde expansion.
// The legacy world and campaign keys follow the roots list, campaign last.
func GetRoots() []string {
	var roots []string
	seen := make(map[string]bool)
	add := func(path string) {
		path = expandTilde(path)
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		roots = append(roots, path)
	}
	for _, root := range viper.GetStringSlice("roots") {
		add(root)
	}
	add(viper.GetString("world"))
	add(viper.GetString("campaign"))
	return roots
}

// SetRoots replaces the roots list at runtime
func SetRoots(roots []string) {
	viper.Set("roots", roots)
	C.Roots = roots
}

// AddRoot appends a root unless it is already configured
func AddRoot(root string) bool {
	for _, existing := range viper.GetStringSlice("roots") {
		if existing == root {
			return false
		}
	}
	SetRoots(append(viper.GetStringSlice("roots"), root))
	return true
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetCaseSensitive returns whether keyword matching and search are case-sensitive
func GetCaseSensitive() bool {
	return viper.GetBool("case_sensitive")
}

// SetCaseSensitive sets the case mode at runtime
func SetCaseSensitive(on bool) {
	viper.Set("case_sensitive", on)
	C.CaseSensitive = on
}

// GetExtensions returns the indexed file extensions
func GetExtensions() []string {
	return viper.GetStringSlice("extensions")
}

// GetEditor returns the editor used to open files
func GetEditor() string {
	return viper.GetString("editor")
}

// GetWrap returns the body wrap width, 0 disables wrapping
func GetWrap() int {
	return viper.GetInt("wrap")
}

// GetColorHeader returns ANSI color code for headers
func GetColorHeader() string {
	return viper.GetString("color_header")
}

// GetColorLink returns ANSI color code for keyword links
func GetColorLink() string {
	return viper.GetString("color_link")
}

// GetColorDim returns the color for secondary text
func GetColorDim() string {
	return viper.GetString("color_dim")
}

// GetColorBorder returns the color for borders and dividers
func GetColorBorder() string {
	return viper.GetString("color_border")
}

// GetColorCursor returns the color for the cursor and focused link
func GetColorCursor() string {
	return viper.GetString("color_cursor")
}

// GetColorSelected returns the selection background color
func GetColorSelected() string {
	return viper.GetString("color_selected")
}

// GetLogLevel returns the log level name
func GetLogLevel() string {
	return viper.GetString("log_level")
}

// GetLogFormat returns the log format, text or json
func GetLogFormat() string {
	return viper.GetString("log_format")
}

// SetFile forces a specific config file instead of the search paths
func SetFile(path string) {
	viper.SetConfigFile(expandTilde(path))
}

// Path returns the config file in use, or the default location when none was read
func Path() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", configName, configName+".yaml")
	}
	return configName + ".yaml"
}

// Save persists the roots and case mode to the config file
func Save() error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config dir: %w", err)
	}

	out := viper.New()
	out.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		out.SetConfigFile(path)
		// Keep unrelated keys the user wrote by hand
		_ = out.ReadInConfig()
	}
	out.Set("roots", viper.GetStringSlice("roots"))
	out.Set("case_sensitive", viper.GetBool("case_sensitive"))

	if err := out.WriteConfigAs(path); err != nil {
		return fmt.Errorf("error writing config %s: %w", path, err)
	}
	return nil
}
