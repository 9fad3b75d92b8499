package login

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is stripped from environment variables before they are
// matched against config keys, LOGIN_MAIL_HOST sets mail_host.
const DefaultEnvPrefix = "LOGIN_"

type loaderOptions struct {
	path      string
	envPrefix string
	overrides map[string]any
}

// LoaderOption configures LoadConfig
type LoaderOption func(*loaderOptions)

// WithConfigFile reads a YAML file on top of the defaults
func WithConfigFile(path string) LoaderOption {
	return func(o *loaderOptions) {
		o.path = path
	}
}

// WithEnvPrefix changes the environment prefix. An empty prefix disables
// environment loading.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(o *loaderOptions) {
		o.envPrefix = prefix
	}
}

// WithOverrides applies values after every other source
func WithOverrides(values map[string]any) LoaderOption {
	return func(o *loaderOptions) {
		o.overrides = values
	}
}

// LoadConfig merges defaults, an optional YAML file, environment variables
// and overrides, in that order, and validates the result.
func LoadConfig(opts ...LoaderOption) (Config, error) {
	o := &loaderOptions{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultConfigMap(), "."), nil); err != nil {
		return Config{}, configLoadError(err, "defaults")
	}

	if o.path != "" {
		if err := k.Load(file.Provider(o.path), yaml.Parser()); err != nil {
			return Config{}, configLoadError(err, o.path)
		}
	}

	if o.envPrefix != "" {
		prefix := o.envPrefix
		err := k.Load(env.Provider(prefix, ".", func(s string) string {
			return strings.ToLower(strings.TrimPrefix(s, prefix))
		}), nil)
		if err != nil {
			return Config{}, configLoadError(err, "env")
		}
	}

	if len(o.overrides) > 0 {
		if err := k.Load(confmap.Provider(o.overrides, "."), nil); err != nil {
			return Config{}, configLoadError(err, "overrides")
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, configLoadError(err, "unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func defaultConfigMap() map[string]any {
	d := DefaultConfig()
	return map[string]any{
		"mail_port":                  d.MailPort,
		"mail_secure":                d.MailSecure,
		"mail_provider":              d.MailProvider,
		"mail_timeout_seconds":       d.MailTimeoutSeconds,
		"store_timeout_seconds":      d.StoreTimeoutSeconds,
		"password_length":            d.PasswordLength,
		"session_expiration_seconds": d.SessionExpirationSeconds,
		"reset_expiration_seconds":   d.ResetExpirationSeconds,
		"session_cookie_name":        d.SessionCookieName,
		"session_cookie_secure":      d.SessionCookieSecure,
		"auth_scheme":                d.AuthScheme,
	}
}

func configLoadError(err error, source string) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, ErrConfig.Message).
		WithTextCode(TextCodeConfig).
		WithMetadata(map[string]any{
			"source": source,
		})
}
