// Package config loads layered configuration for azurekit: environment
// variables shadow file-sourced values for the same dotted key.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/datakraft/azurekit/pkg/errs"
)

// Well-known configuration keys.
const (
	AzureSubscriptionID           = "azure.subscription_id"
	AzureTenantID                 = "azure.tenant_id"
	AzureClientID                 = "azure.client_id"
	AzureClientSecret             = "azure.client_secret"
	AzureStorageAccountName       = "azure.storage.account_name"
	AzureDataFactoryResourceGroup = "azure.data_factory.resource_group"
	AzureDataFactoryName          = "azure.data_factory.factory_name"
	AzureSQLServer                = "azure.sql.server"
	AzureSQLDatabase              = "azure.sql.database"
	AzureSQLUsername              = "azure.sql.username"
	AzureSQLPassword              = "azure.sql.password"
	AzureDatabricksWorkspaceURL   = "azure.databricks.workspace_url"
	AzureDatabricksToken          = "azure.databricks.token"
	AzureEventHubNamespace        = "azure.eventhub.namespace"
	AzureEventHubName             = "azure.eventhub.name"
	AzureEventHubConnectionString = "azure.eventhub.connection_string"
	PowerBIClientID               = "powerbi.client_id"
	PowerBIClientSecret           = "powerbi.client_secret"
	PowerBITenantID               = "powerbi.tenant_id"
	PowerBIUsername               = "powerbi.username"
	PowerBIPassword               = "powerbi.password"
)

var envReplacer = strings.NewReplacer(".", "_", "-", "_")

// Manager owns an explicitly constructed viper instance. It is passed by
// reference to whichever components need it; there is no process-wide
// configuration state.
type Manager struct {
	v   *viper.Viper
	log log.FieldLogger
}

type Option func(*settings)

type settings struct {
	configFile string
	envFile    string
	logger     log.FieldLogger
}

func WithConfigFile(path string) Option {
	return func(s *settings) { s.configFile = path }
}

func WithEnvFile(path string) Option {
	return func(s *settings) { s.envFile = path }
}

func WithLogger(logger log.FieldLogger) Option {
	return func(s *settings) { s.logger = logger }
}

func New(opts ...Option) (*Manager, error) {
	s := settings{logger: log.StandardLogger()}
	for _, opt := range opts {
		opt(&s)
	}

	if s.envFile != "" {
		if err := godotenv.Load(s.envFile); err != nil {
			return nil, errs.E(errs.KindConfiguration, "config.new", fmt.Errorf("loading env file %s: %w", s.envFile, err))
		}
		s.logger.Infof("loaded environment from: %s", s.envFile)
	} else {
		// Default .env in the working directory, if present.
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envReplacer)

	if s.configFile != "" {
		v.SetConfigFile(s.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.E(errs.KindConfiguration, "config.new", fmt.Errorf("reading config file %s: %w", s.configFile, err))
		}
		s.logger.Infof("loaded configuration from: %s", s.configFile)
	}

	return &Manager{v: v, log: s.logger}, nil
}

// BindFlags overlays command-line flags on top of the loaded
// configuration. A flag set on the command line shadows both environment
// and file values for the same key.
func (m *Manager) BindFlags(flags *pflag.FlagSet) error {
	if err := m.v.BindPFlags(flags); err != nil {
		return errs.E(errs.KindConfiguration, "config.bind_flags", err)
	}
	return nil
}

// Get returns the value for a dotted key, or nil when absent. Environment
// variables (key upper-cased, dots replaced with underscores) always take
// precedence over file-sourced values.
func (m *Manager) Get(key string) any {
	return m.v.Get(key)
}

func (m *Manager) GetString(key string) string {
	return m.v.GetString(key)
}

// GetOr returns the value for key, falling back to def when absent.
func (m *Manager) GetOr(key string, def any) any {
	if val := m.v.Get(key); val != nil {
		return val
	}
	return def
}

// Require returns the value for key, failing with a configuration error
// when it is absent or empty.
func (m *Manager) Require(key string) (string, error) {
	val := m.v.GetString(key)
	if val == "" {
		return "", errs.Errorf(errs.KindConfiguration, "config.require", "required configuration key not found: %s", key)
	}
	return val, nil
}

// Set writes a value under a dotted key, creating intermediate levels as
// needed. No value-type validation is performed.
func (m *Manager) Set(key string, value any) {
	m.v.Set(key, value)
	m.log.Debugf("set config: %s", key)
}

// Save writes the current configuration to a YAML or JSON file, selected
// by extension.
func (m *Manager) Save(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml", ".json":
	default:
		return errs.Errorf(errs.KindConfiguration, "config.save", "unsupported config file format: %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.E(errs.KindConfiguration, "config.save", err)
		}
	}

	if err := m.v.WriteConfigAs(path); err != nil {
		return errs.E(errs.KindConfiguration, "config.save", err)
	}
	m.log.Infof("saved configuration to: %s", path)
	return nil
}

// Unmarshal decodes the subtree under key into out, using json struct
// tags.
func (m *Manager) Unmarshal(key string, out any) error {
	if err := m.v.UnmarshalKey(key, out, decoderHook); err != nil {
		return errs.E(errs.KindConfiguration, "config.unmarshal", err)
	}
	return nil
}

func decoderHook(dc *mapstructure.DecoderConfig) {
	dc.TagName = "json"
}

func envKey(key string) string {
	return strings.ToUpper(envReplacer.Replace(key))
}
