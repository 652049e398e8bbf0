package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
	// that embeds EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a required environment variable is not set and has no default.
	ErrVarNotSet = errors.New("env var not set")

	// ErrUnsupportedVarType is returned when trying to parse an environment variable
	// into an unsupported Go type.
	ErrUnsupportedVarType = errors.New("unsupported env var type")
)

//nolint:gochecknoglobals
var durationType = reflect.TypeOf(time.Duration(0))

// EnvConfig is a base type that must be embedded in configuration structs
// to enable environment variable parsing.
type EnvConfig struct {
	namespace string
}

// Namespace returns the prefix the configuration was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

//nolint:varnamelen
func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)

	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		//nolint:exhaustruct,forcetypeassert
		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			if ev := v.Field(i); ev.CanAddr() {
				return ev.Addr().Interface().(*EnvConfig), nil
			}
		}
	}

	return nil, ErrInvalidConfig
}

// Parse loads configuration values from environment variables into the provided struct.
// The struct must embed EnvConfig and use `env` tags to specify variable names.
// Nested structs contribute their `envPrefix` tag to the names of their fields.
//
// The namespace is split on underscores and tried from the most to the least
// specific form, so with namespace "BLOBRELAY_RELAYSVC" the field tagged
// `env:"CALL_TIMEOUT"` is looked up as BLOBRELAY_RELAYSVC_CALL_TIMEOUT,
// then BLOBRELAY_CALL_TIMEOUT.
//
// Supports string, signed and unsigned integer, bool and time.Duration fields.
func Parse(ctx context.Context, cfg any, namespace string) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	return parse(namespace, "", cfg)
}

func parse(namespace, prefix string, c any) error {
	t := reflect.TypeOf(c).Elem()
	v := reflect.ValueOf(c).Elem()

	for i := range t.NumField() {
		field := t.Field(i)
		structField := v.Field(i)

		if field.Type.Kind() == reflect.Struct {
			envPrefix := field.Tag.Get("envPrefix")

			if err := parse(namespace, prefix+envPrefix, structField.Addr().Interface()); err != nil {
				return err
			}

			continue
		}

		if err := parseField(namespace, prefix, field, structField); err != nil {
			return fmt.Errorf("parse field: %w", err)
		}
	}

	return nil
}

func lookupEnv(namespace, name string) (string, bool) {
	nsParts := strings.Split(namespace, "_")

	for i := len(nsParts); i > 0; i-- {
		envName := strings.Join(nsParts[:i], "_")
		if envName != "" {
			envName += "_"
		}

		if value, ok := os.LookupEnv(envName + name); ok {
			return value, true
		}
	}

	return "", false
}

//nolint:cyclop
func parseField(
	namespace string,
	prefix string,
	field reflect.StructField,
	structField reflect.Value,
) error {
	envTag := field.Tag.Get("env")
	if envTag == "" {
		return nil
	}

	defaultValue, hasDefault := field.Tag.Lookup("default")

	envValue, ok := lookupEnv(namespace, prefix+envTag)
	if !ok {
		if !hasDefault {
			return fmt.Errorf("%w: %s", ErrVarNotSet, prefix+envTag)
		}

		envValue = defaultValue
	}

	// time.Duration is an int64 underneath, so it must be matched before the kind switch.
	if field.Type == durationType {
		d, err := time.ParseDuration(envValue)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", envTag, err)
		}

		structField.SetInt(int64(d))

		return nil
	}

	//nolint:exhaustive
	switch field.Type.Kind() {
	case reflect.String:
		structField.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(envValue, 10, field.Type.Bits())
		if err != nil {
			return fmt.Errorf("invalid type for %s: %w", envTag, err)
		}

		structField.SetInt(intValue)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		uintValue, err := strconv.ParseUint(envValue, 10, field.Type.Bits())
		if err != nil {
			return fmt.Errorf("invalid type for %s: %w", envTag, err)
		}

		structField.SetUint(uintValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(envValue)
		if err != nil {
			return fmt.Errorf("invalid type for %s: %w", envTag, err)
		}

		structField.SetBool(boolValue)
	default:
		return fmt.Errorf("%w: %s (%v)", ErrUnsupportedVarType, envTag, field.Type.Kind())
	}

	return nil
}
