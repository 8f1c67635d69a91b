package api

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
	"github.com/rohankatakam/relfinder/internal/sparql"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// registerValidators adds the "iri" tag to gin's shared validator
func registerValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = apperrors.InternalErrorf("unexpected binding validator engine %T", binding.Validator.Engine())
			return
		}
		registerErr = registerIRI(v)
	})
	return registerErr
}

func registerIRI(v *validator.Validate) error {
	if err := v.RegisterValidation("iri", validateIRI); err != nil {
		return apperrors.WrapInternal(err, "failed to register iri validation")
	}
	return nil
}

// validateIRI accepts absolute IRIs that can be embedded in a query
func validateIRI(fl validator.FieldLevel) bool {
	return sparql.ValidateIRI(fl.Field().String()) == nil
}

// queryRequest is the body of POST /query
type queryRequest struct {
	Entities    []string `json:"entities" binding:"required,len=2,dive,iri"`
	MaxDistance int      `json:"maxDistance" binding:"required,min=1"`
}

// propertiesRequest is the body of POST /entities/properties
type propertiesRequest struct {
	IRI string `json:"iri" binding:"required,iri"`
}
