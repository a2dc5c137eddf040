// pkg/task/validate.go
package task

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a Classification against its declared constraints.
func (c *Classification) Validate() error {
	return validate.Struct(c)
}

// Validate checks extracted Parameters against their declared constraints.
func (p *Parameters) Validate() error {
	return validate.Struct(p)
}
