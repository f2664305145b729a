// Package config holds the configuration keys of a fluffy bot along with helpers to load a
// configuration layered over the defaults
package config

import (
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"strings"
	"time"
)

const (
	// TokenKey is the slack bot token
	TokenKey = "token"
	// DebugKey turns on debug logging (ours and the slack library's)
	DebugKey = "debug"
	// UsernameKey overrides the bot name (the connected identity's name is used otherwise)
	UsernameKey = "username"
	// AdminsKey is the list of admin user names (list or comma-separated string)
	AdminsKey = "admins"
	// PollIntervalKey is how often pending events are drained
	PollIntervalKey = "pollInterval"
	// KeepAliveIntervalKey is how often the session is pinged
	KeepAliveIntervalKey = "keepAliveInterval"
	// ConnectTimeoutKey bounds the initial connection handshake
	ConnectTimeoutKey = "connectTimeout"
	// DirectoryCacheSizeKey is the size of the user and channel caches (0 disables caching)
	DirectoryCacheSizeKey = "directoryCacheSize"
	// UploadFilenameKey is the name given to uploaded replies
	UploadFilenameKey = "uploadFilename"
	// DispatchPolicyKey is one of unbounded, bounded or perUser
	DispatchPolicyKey = "dispatch.policy"
	// DispatchMaxWorkersKey is the number of concurrent handlers of the bounded policy
	DispatchMaxWorkersKey = "dispatch.maxWorkers"
	// DispatchPartitionCountKey is the number of partitions of the perUser policy (power of two)
	DispatchPartitionCountKey = "dispatch.partitionCount"
	// DispatchPartitionBufferSizeKey is the queue size of each partition of the perUser policy
	DispatchPartitionBufferSizeKey = "dispatch.partitionBufferSize"
	// LogFileKey is an optional log file path ('~' is expanded)
	LogFileKey = "logFile"
)

const (
	envPrefix = "FLUFFY"

	defaultPollInterval                = 500 * time.Millisecond
	defaultKeepAliveInterval           = 30 * time.Minute
	defaultConnectTimeout              = 30 * time.Second
	defaultDirectoryCacheSize          = 10000
	defaultUploadFilename              = "fluffy.txt"
	defaultDispatchPolicy              = "unbounded"
	defaultDispatchMaxWorkers          = 16
	defaultDispatchPartitionCount      = 16
	defaultDispatchPartitionBufferSize = 10
)

// NewViperWithDefaults creates a new viper instance with all default values
func NewViperWithDefaults() (v *viper.Viper) {
	v = viper.New()
	setDefaults(v)

	return v
}

// LayerConfigWithDefaults sets the defaults underneath the values already set on v. Values set
// on v are kept
func LayerConfigWithDefaults(v *viper.Viper) (lv *viper.Viper) {
	setDefaults(v)

	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(DebugKey, false)
	v.SetDefault(UsernameKey, "")
	v.SetDefault(AdminsKey, []string{})
	v.SetDefault(PollIntervalKey, defaultPollInterval)
	v.SetDefault(KeepAliveIntervalKey, defaultKeepAliveInterval)
	v.SetDefault(ConnectTimeoutKey, defaultConnectTimeout)
	v.SetDefault(DirectoryCacheSizeKey, defaultDirectoryCacheSize)
	v.SetDefault(UploadFilenameKey, defaultUploadFilename)
	v.SetDefault(DispatchPolicyKey, defaultDispatchPolicy)
	v.SetDefault(DispatchMaxWorkersKey, defaultDispatchMaxWorkers)
	v.SetDefault(DispatchPartitionCountKey, defaultDispatchPartitionCount)
	v.SetDefault(DispatchPartitionBufferSizeKey, defaultDispatchPartitionBufferSize)
	v.SetDefault(LogFileKey, "")
}

// Load reads the configuration file at path ('~' is expanded) layered over the defaults.
// Environment variables prefixed with FLUFFY_ override file values (dots become underscores)
func Load(path string) (v *viper.Viper, err error) {
	v = NewViperWithDefaults()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		return v, nil
	}

	fullPath, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to expand configuration path [%s]", path)
	}

	v.SetConfigFile(fullPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration [%s]", fullPath)
	}

	return v, nil
}

// GetAdmins returns the configured admin names. The value can be a list or a comma-separated
// string. Blank entries are dropped
func GetAdmins(v *viper.Viper) (admins []string) {
	raw := v.Get(AdminsKey)

	var values []string
	if s, ok := raw.(string); ok {
		values = strings.Split(s, ",")
	} else {
		values = cast.ToStringSlice(raw)
	}

	admins = make([]string, 0, len(values))
	for _, a := range values {
		if a = strings.TrimSpace(a); a != "" {
			admins = append(admins, a)
		}
	}

	return admins
}

// Validate returns an error if the configuration can't be used to run a bot
func Validate(v *viper.Viper) (err error) {
	if v.GetString(TokenKey) == "" {
		return errors.Errorf("missing required configuration [%s]", TokenKey)
	}

	return ValidateSettings(v)
}

// ValidateSettings is like Validate but doesn't require a token. It's meant for bots given their
// own client
func ValidateSettings(v *viper.Viper) (err error) {
	if v.GetDuration(PollIntervalKey) <= 0 {
		return errors.Errorf("[%s] must be a positive duration but was [%s]", PollIntervalKey, v.GetString(PollIntervalKey))
	}

	if v.GetDuration(KeepAliveIntervalKey) <= 0 {
		return errors.Errorf("[%s] must be a positive duration but was [%s]", KeepAliveIntervalKey, v.GetString(KeepAliveIntervalKey))
	}

	if v.GetDuration(ConnectTimeoutKey) <= 0 {
		return errors.Errorf("[%s] must be a positive duration but was [%s]", ConnectTimeoutKey, v.GetString(ConnectTimeoutKey))
	}

	if v.GetInt(DirectoryCacheSizeKey) < 0 {
		return errors.Errorf("[%s] must not be negative but was [%d]", DirectoryCacheSizeKey, v.GetInt(DirectoryCacheSizeKey))
	}

	return nil
}
