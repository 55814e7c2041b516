package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/contamio/recallctl/pkg/recall"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Configuration keys.
const (
	keyAPIKey          = "api_key"
	keyAPIKeyHeader    = "api_key_header"
	keyBaseURL         = "base_url"
	keyTimeout         = "timeout"
	keyRetryMax        = "retry_max"
	keyRetryWaitMin    = "retry_wait_min"
	keyRetryWaitMax    = "retry_wait_max"
	keyUserAgent       = "user_agent"
	keyOutput          = "output"
	keyVerbose         = "verbose"
	keyNoColor         = "no_color"
	keyCacheType       = "cache.type"
	keyCacheMaxSize    = "cache.max_size"
	keyNATSURL         = "nats.url"
	keyNATSBucket      = "nats.bucket"
	keyServeAddr       = "serve.addr"
	keyServeMaxSession = "serve.max_sessions"

	configDirName  = ".recallctl"
	configFileName = "config.yml"
	envPrefix      = "RECALLCTL"
	maskedValue    = "***"
)

// Config represents the persisted CLI configuration.
type Config struct {
	APIKey       string        `json:"api_key,omitempty"        yaml:"api_key,omitempty"`
	APIKeyHeader string        `json:"api_key_header,omitempty" yaml:"api_key_header,omitempty"`
	BaseURL      string        `json:"base_url,omitempty"       yaml:"base_url,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"        yaml:"timeout,omitempty"`
	RetryMax     int           `json:"retry_max"                yaml:"retry_max"`
	RetryWaitMin time.Duration `json:"retry_wait_min,omitempty" yaml:"retry_wait_min,omitempty"`
	RetryWaitMax time.Duration `json:"retry_wait_max,omitempty" yaml:"retry_wait_max,omitempty"`
	UserAgent    string        `json:"user_agent,omitempty"     yaml:"user_agent,omitempty"`
	Output       string        `json:"output"                   yaml:"output"`
	NoColor      bool          `json:"no_color"                 yaml:"no_color"`
	Cache        CacheConfig   `json:"cache"                    yaml:"cache"`
	NATS         NATSConfig    `json:"nats"                     yaml:"nats"`
	Serve        ServeConfig   `json:"serve"                    yaml:"serve"`
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	Type    string `json:"type"     yaml:"type"`
	MaxSize int    `json:"max_size" yaml:"max_size"`
}

// NATSConfig locates the NATS server backing the nats cache.
type NATSConfig struct {
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
	Bucket string `json:"bucket"        yaml:"bucket"`
}

// ServeConfig configures the dashboard server.
type ServeConfig struct {
	Addr        string `json:"addr"         yaml:"addr"`
	MaxSessions int    `json:"max_sessions" yaml:"max_sessions"`
}

// settableKeys lists the keys accepted by config set and unset.
var settableKeys = []string{
	keyAPIKey, keyAPIKeyHeader, keyBaseURL, keyTimeout, keyRetryMax,
	keyRetryWaitMin, keyRetryWaitMax, keyUserAgent, keyOutput, keyNoColor,
	keyCacheType, keyCacheMaxSize, keyNATSURL, keyNATSBucket,
	keyServeAddr, keyServeMaxSession,
}

// SetDefaults registers the default of every configuration key.
func SetDefaults() {
	viper.SetDefault(keyAPIKeyHeader, constants.DefaultAPIKeyHeader)
	viper.SetDefault(keyBaseURL, constants.DefaultBaseURL)
	viper.SetDefault(keyTimeout, constants.DefaultHTTPTimeout)
	viper.SetDefault(keyRetryMax, constants.DefaultRetryMax)
	viper.SetDefault(keyRetryWaitMin, constants.DefaultRetryWaitMin)
	viper.SetDefault(keyRetryWaitMax, constants.DefaultRetryWaitMax)
	viper.SetDefault(keyUserAgent, constants.DefaultUserAgent)
	viper.SetDefault(keyOutput, constants.OutputFormatTable)
	viper.SetDefault(keyCacheType, string(recall.CacheTypeMemory))
	viper.SetDefault(keyCacheMaxSize, constants.DefaultCacheSize)
	viper.SetDefault(keyNATSBucket, constants.DefaultNATSBucket)
	viper.SetDefault(keyServeAddr, constants.DefaultServeAddr)
	viper.SetDefault(keyServeMaxSession, constants.DefaultMaxSessions)
}

// InitConfig reads cfgFile, or $HOME/.recallctl/config.yml when empty, and
// binds the RECALLCTL_ environment. The API key is also read from the
// legacy BASE44_API_KEY variable.
func InitConfig(cfgFile string) error {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := configDir()
		if err != nil {
			return err
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv(keyAPIKey, envPrefix+"_API_KEY", constants.LegacyAPIKeyEnv)

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	if viper.GetBool(keyNoColor) {
		color.NoColor = true
	}

	return nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

// configFilePath is the file config set writes to.
func configFilePath() (string, error) {
	if used := viper.ConfigFileUsed(); used != "" {
		return used, nil
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, configFileName), nil
}

// loadConfig resolves the configuration from the file, the environment and
// the defaults.
func loadConfig() *Config {
	return &Config{
		APIKey:       viper.GetString(keyAPIKey),
		APIKeyHeader: viper.GetString(keyAPIKeyHeader),
		BaseURL:      viper.GetString(keyBaseURL),
		Timeout:      viper.GetDuration(keyTimeout),
		RetryMax:     viper.GetInt(keyRetryMax),
		RetryWaitMin: viper.GetDuration(keyRetryWaitMin),
		RetryWaitMax: viper.GetDuration(keyRetryWaitMax),
		UserAgent:    viper.GetString(keyUserAgent),
		Output:       viper.GetString(keyOutput),
		NoColor:      viper.GetBool(keyNoColor),
		Cache: CacheConfig{
			Type:    viper.GetString(keyCacheType),
			MaxSize: viper.GetInt(keyCacheMaxSize),
		},
		NATS: NATSConfig{
			URL:    viper.GetString(keyNATSURL),
			Bucket: viper.GetString(keyNATSBucket),
		},
		Serve: ServeConfig{
			Addr:        viper.GetString(keyServeAddr),
			MaxSessions: viper.GetInt(keyServeMaxSession),
		},
	}
}

// masked returns a copy safe to print.
func (c *Config) masked() *Config {
	clone := *c
	if clone.APIKey != "" {
		clone.APIKey = maskedValue
	}

	return &clone
}

// readConfigFile reads the raw key tree of the config file. A missing file
// is an empty tree.
func readConfigFile(path string) (map[string]interface{}, error) {
	// path is the CLI's own config file
	// #nosec G304
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]interface{}{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	tree := map[string]interface{}{}

	err = yaml.Unmarshal(data, &tree)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if tree == nil {
		tree = map[string]interface{}{}
	}

	return tree, nil
}

func writeConfigFile(path string, tree map[string]interface{}) error {
	err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// parseConfigValue converts value to the type stored under key.
func parseConfigValue(key, value string) (interface{}, error) {
	switch key {
	case keyTimeout, keyRetryWaitMin, keyRetryWaitMax:
		duration, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid duration for %s: %w", key, err)
		}

		return duration.String(), nil
	case keyRetryMax, keyCacheMaxSize, keyServeMaxSession:
		number, err := strconv.Atoi(value)
		if err != nil || number < 0 {
			return nil, fmt.Errorf("invalid number for %s: %q", key, value)
		}

		return number, nil
	case keyNoColor:
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean for %s: %w", key, err)
		}

		return enabled, nil
	case keyOutput:
		if !slices.Contains([]string{constants.OutputFormatTable, constants.OutputFormatJSON, constants.OutputFormatYAML}, value) {
			return nil, fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, value)
		}

		return value, nil
	case keyCacheType:
		switch recall.CacheType(value) {
		case recall.CacheTypeMemory, recall.CacheTypeNATS, recall.CacheTypeNone:
			return value, nil
		default:
			return nil, fmt.Errorf("%w: %s", recall.ErrUnsupportedCacheType, value)
		}
	default:
		return value, nil
	}
}

// setPath stores value under a dotted key, creating sections as needed.
func setPath(tree map[string]interface{}, key string, value interface{}) {
	parts := strings.Split(key, ".")
	node := tree

	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			node[part] = child
		}

		node = child
	}

	node[parts[len(parts)-1]] = value
}

// unsetPath removes a dotted key and drops sections left empty.
func unsetPath(tree map[string]interface{}, key string) {
	parts := strings.Split(key, ".")
	if len(parts) == 1 {
		delete(tree, key)

		return
	}

	child, ok := tree[parts[0]].(map[string]interface{})
	if !ok {
		return
	}

	unsetPath(child, strings.Join(parts[1:], "."))

	if len(child) == 0 {
		delete(tree, parts[0])
	}
}

func setConfigValue(key string, value interface{}) error {
	if !slices.Contains(settableKeys, key) {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	path, err := configFilePath()
	if err != nil {
		return err
	}

	tree, err := readConfigFile(path)
	if err != nil {
		return err
	}

	setPath(tree, key, value)

	err = writeConfigFile(path, tree)
	if err != nil {
		return err
	}

	viper.Set(key, value)

	return nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the recallctl configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigSetKeyCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the resolved configuration. The API key is masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig().masked()

			return render(cmd.OutOrStdout(), config, func() error {
				return displayConfigTable(cmd.OutOrStdout(), config)
			})
		},
	}
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	rows := [][]string{
		{keyAPIKey, orNotSet(config.APIKey)},
		{keyAPIKeyHeader, config.APIKeyHeader},
		{keyBaseURL, config.BaseURL},
		{keyTimeout, config.Timeout.String()},
		{keyRetryMax, strconv.Itoa(config.RetryMax)},
		{keyRetryWaitMin, config.RetryWaitMin.String()},
		{keyRetryWaitMax, config.RetryWaitMax.String()},
		{keyUserAgent, config.UserAgent},
		{keyOutput, config.Output},
		{keyNoColor, strconv.FormatBool(config.NoColor)},
		{keyCacheType, config.Cache.Type},
		{keyCacheMaxSize, strconv.Itoa(config.Cache.MaxSize)},
		{keyNATSURL, orNotSet(config.NATS.URL)},
		{keyNATSBucket, config.NATS.Bucket},
		{keyServeAddr, config.Serve.Addr},
		{keyServeMaxSession, strconv.Itoa(config.Serve.MaxSessions)},
	}

	for _, row := range rows {
		_ = table.Append(row)
	}

	if used := viper.ConfigFileUsed(); used != "" {
		_, _ = fmt.Fprintf(w, "Config file: %s\n", used)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func orNotSet(value string) string {
	if value == "" {
		return "(not set)"
	}

	return value
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value in the config file. Keys: " + strings.Join(settableKeys, ", "),
		Args:  cobra.ExactArgs(2), //nolint:mnd // KEY and VALUE
		RunE: func(cmd *cobra.Command, args []string) error {
			key, raw := args[0], args[1]

			value, err := parseConfigValue(key, raw)
			if err != nil {
				return err
			}

			err = setConfigValue(key, value)
			if err != nil {
				return err
			}

			shown := raw
			if key == keyAPIKey {
				shown = maskedValue
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, shown)

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a value from the config file so its default applies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !slices.Contains(settableKeys, key) {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			path, err := configFilePath()
			if err != nil {
				return err
			}

			tree, err := readConfigFile(path)
			if err != nil {
				return err
			}

			unsetPath(tree, key)

			err = writeConfigFile(path, tree)
			if err != nil {
				return err
			}

			viper.Set(key, nil)

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", key)

			return nil
		},
	}
}

func newConfigSetKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key",
		Short: "Store the API key",
		Long:  "Prompt for the API key without echoing it and store it in the config file. A piped key is read from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey, err := readAPIKey(cmd)
			if err != nil {
				return err
			}

			err = setConfigValue(keyAPIKey, apiKey)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "API key saved")

			return nil
		},
	}
}

// readAPIKey prompts on a terminal, otherwise reads the first line of stdin.
func readAPIKey(cmd *cobra.Command) (string, error) {
	var apiKey string

	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(syscall.Stdin)) { //nolint:unconvert // Stdin is an int only on unix
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "API key: ")

		secret, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // Stdin is an int only on unix
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}

		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		apiKey = string(secret)
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}

		apiKey = line
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", constants.ErrEmptyAPIKey
	}

	return apiKey, nil
}
