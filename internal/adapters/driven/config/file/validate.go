package file

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/slackrag/internal/core/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their config key rather than the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks settings against their struct constraints.
func Validate(s *domain.Settings) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

// describe renders one failure as "key: reason".
func describe(fe validator.FieldError) string {
	key := strings.TrimPrefix(fe.Namespace(), "Settings.")
	switch fe.Tag() {
	case "required", "required_if":
		return key + ": is required"
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s], got %v", key, fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s: %q is not a valid URL", key, fe.Value())
	default:
		return fmt.Sprintf("%s: must satisfy %s=%s, got %v", key, fe.Tag(), fe.Param(), fe.Value())
	}
}

// RequireSlack checks the secrets a command needs before it touches Slack.
// The signing secret is only needed by the events server.
func RequireSlack(s *domain.Settings, signingSecret bool) error {
	if s.Slack.BotToken == "" {
		return fmt.Errorf("%w: SLACK_BOT_TOKEN is not set", domain.ErrMissingConfig)
	}
	if signingSecret && s.Slack.SigningSecret == "" {
		return fmt.Errorf("%w: SLACK_SIGNING_SECRET is not set", domain.ErrMissingConfig)
	}
	return nil
}
