package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/scan-io-git/ghasmell/internal/findings"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Rule identifiers are matched case-insensitively.
	_ = v.RegisterValidation("ruleid", func(fl validator.FieldLevel) bool {
		return findings.RuleID(strings.ToUpper(fl.Field().String())).Valid()
	})
	return v
}

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}

	sections := []struct {
		directive string
		value     interface{}
	}{
		{"logger", &cfg.Logger},
		{"scan", &cfg.Scan},
		{"rules", &cfg.Rules},
		{"report", &cfg.Report},
	}
	for _, s := range sections {
		if err := validate.Struct(s.value); err != nil {
			return fmt.Errorf("YAML global config: %s directive is invalid: %w", s.directive, describe(err))
		}
	}

	if err := validateExtensions(cfg.Scan.Extensions); err != nil {
		return fmt.Errorf("YAML global config: scan directive is invalid: %w", err)
	}
	return nil
}

// validateExtensions rejects extensions that carry a path separator.
func validateExtensions(exts []string) error {
	for _, ext := range exts {
		if strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("extension %q must not contain a path separator", ext)
		}
	}
	return nil
}

// describe flattens validator errors into a single readable message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %q (%s)", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
