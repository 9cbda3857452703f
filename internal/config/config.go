// Package config loads deploykit settings from deploykit.yaml, DEPLOYKIT_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/deploykit/internal/runtime"
	"github.com/aretw0/deploykit/pkg/adapters/aelf"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. DEPLOYKIT_NODE_ENDPOINT.
const EnvPrefix = "DEPLOYKIT"

// FileName is the config file searched in ., ./configs and $HOME/.deploykit.
const FileName = "deploykit"

// Config holds application configuration.
type Config struct {
	Node     NodeConfig     `mapstructure:"node" yaml:"node"`
	Explorer ExplorerConfig `mapstructure:"explorer" yaml:"explorer"`
	Faucet   FaucetConfig   `mapstructure:"faucet" yaml:"faucet"`
	Deploy   DeployConfig   `mapstructure:"deploy" yaml:"deploy"`
	Wallet   WalletConfig   `mapstructure:"wallet" yaml:"wallet"`
	Lock     LockConfig     `mapstructure:"lock" yaml:"lock"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type NodeConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

type ExplorerConfig struct {
	URL         string `mapstructure:"url" yaml:"url"`
	Cluster     string `mapstructure:"cluster" yaml:"cluster"`
	BalancePath string `mapstructure:"balance_path" yaml:"balance_path"`
}

// FaucetConfig locates the test token faucet. Amount, in base units, is what a
// simulated chain grants per claim.
type FaucetConfig struct {
	URL    string `mapstructure:"url" yaml:"url"`
	Amount int64  `mapstructure:"amount" yaml:"amount"`
}

type DeployConfig struct {
	Artifact        string        `mapstructure:"artifact" yaml:"artifact"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	ProgressStep    float64       `mapstructure:"progress_step" yaml:"progress_step"`
	ProgressCap     float64       `mapstructure:"progress_cap" yaml:"progress_cap"`
	RequireProposal bool          `mapstructure:"require_proposal" yaml:"require_proposal"`
	MaxWait         time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
	ChunkSize       int           `mapstructure:"chunk_size" yaml:"chunk_size"`
	IssueURL        string        `mapstructure:"issue_url" yaml:"issue_url"`
}

type WalletConfig struct {
	Address     string `mapstructure:"address" yaml:"address"`
	SignCommand string `mapstructure:"sign_command" yaml:"sign_command"`
}

// LockConfig enables the Redis guard when RedisAddr is set.
type LockConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password,omitempty"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	Key           string        `mapstructure:"key" yaml:"key"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

func setDefaults(v *viper.Viper) {
	rt := runtime.DefaultConfig()

	v.SetDefault("node.endpoint", aelf.DefaultNodeURL)
	v.SetDefault("explorer.url", aelf.DefaultExplorerURL)
	v.SetDefault("explorer.cluster", aelf.DefaultCluster)
	v.SetDefault("explorer.balance_path", aelf.DefaultBalancePath)
	v.SetDefault("faucet.url", aelf.DefaultFaucetURL)
	v.SetDefault("faucet.amount", int64(100)*1e8)
	v.SetDefault("deploy.artifact", "build/contract.dll")
	v.SetDefault("deploy.poll_interval", rt.PollInterval)
	v.SetDefault("deploy.progress_step", rt.ProgressStep)
	v.SetDefault("deploy.progress_cap", rt.ProgressCap)
	v.SetDefault("deploy.require_proposal", rt.RequireProposal)
	v.SetDefault("deploy.max_wait", time.Duration(0))
	v.SetDefault("deploy.chunk_size", 0)
	v.SetDefault("deploy.issue_url", "")
	v.SetDefault("wallet.address", "")
	v.SetDefault("wallet.sign_command", "")
	v.SetDefault("lock.redis_addr", "")
	v.SetDefault("lock.redis_password", "")
	v.SetDefault("lock.redis_db", 0)
	v.SetDefault("lock.key", "")
	v.SetDefault("lock.ttl", 10*time.Minute)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// New returns a viper instance with defaults, search paths and environment binding.
// A non-empty file replaces the search.
func New(file string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".deploykit"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds each config key to the named flag of fs. Unknown flags are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file when present and decodes the effective configuration.
// A missing file is not an error; a malformed one is.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// File returns the config file in use, empty when running on defaults.
func File(v *viper.Viper) string {
	return v.ConfigFileUsed()
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Deploy.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("deploy.poll_interval must be positive, got %s", c.Deploy.PollInterval))
	}
	if c.Deploy.ProgressStep <= 0 {
		errs = append(errs, fmt.Errorf("deploy.progress_step must be positive, got %v", c.Deploy.ProgressStep))
	}
	if c.Deploy.ProgressCap <= 0 || c.Deploy.ProgressCap > 1 {
		errs = append(errs, fmt.Errorf("deploy.progress_cap must be in (0, 1], got %v", c.Deploy.ProgressCap))
	}
	if c.Deploy.MaxWait < 0 {
		errs = append(errs, fmt.Errorf("deploy.max_wait must not be negative, got %s", c.Deploy.MaxWait))
	}
	if c.Deploy.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("deploy.chunk_size must not be negative, got %d", c.Deploy.ChunkSize))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// Runtime converts the deploy section into the pipeline configuration.
func (c Config) Runtime() runtime.Config {
	rt := runtime.DefaultConfig()
	rt.PollInterval = c.Deploy.PollInterval
	rt.ProgressStep = c.Deploy.ProgressStep
	rt.ProgressCap = c.Deploy.ProgressCap
	rt.RequireProposal = c.Deploy.RequireProposal
	rt.MaxWait = c.Deploy.MaxWait
	rt.ChunkSize = c.Deploy.ChunkSize
	rt.Key = c.LockKey()
	return rt
}

// LockKey names the deployment slot: lock.key, else the wallet address, else "default".
func (c Config) LockKey() string {
	switch {
	case c.Lock.Key != "":
		return c.Lock.Key
	case c.Wallet.Address != "":
		return c.Wallet.Address
	}
	return "default"
}

// YAML renders the configuration, omitting secrets.
func (c Config) YAML() ([]byte, error) {
	c.Lock.RedisPassword = ""
	return yaml.Marshal(c)
}
