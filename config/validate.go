package config

import (
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/asyncseq/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks cfg against its `validate` struct tags and reports every
// failing field in a single INVALID_CONFIG error.
func Validate(cfg interface{}) error {
	err := structValidator().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.InvalidConfig(err.Error()).WithCause(err)
	}

	messages := make([]string, len(verrs))
	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fe.Namespace()
		if fe.Param() != "" {
			messages[i] = fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
		} else {
			messages[i] = fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag())
		}
	}
	return errors.InvalidConfig(strings.Join(messages, "; ")).
		WithDetail("fields", fields).
		WithCause(err)
}
