package http

import (
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pkg/errors"
	"github.com/swaggo/swag"
)

//go:embed openapi.yaml
var openapiYAML []byte

var (
	swaggerOnce sync.Once
	swaggerDoc  *openapi3.T
	swaggerJSON []byte
	swaggerErr  error
)

// GetSwagger returns the parsed and validated API description.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(openapiYAML)
		if err != nil {
			swaggerErr = errors.Wrap(err, "load openapi document")
			return
		}
		if err = doc.Validate(loader.Context); err != nil {
			swaggerErr = errors.Wrap(err, "validate openapi document")
			return
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			swaggerErr = errors.Wrap(err, "encode openapi document")
			return
		}
		swaggerDoc, swaggerJSON = doc, raw
	})
	return swaggerDoc, swaggerErr
}

type swaggerSpec struct{}

func (swaggerSpec) ReadDoc() string {
	if _, err := GetSwagger(); err != nil {
		return "{}"
	}
	return string(swaggerJSON)
}

// registerSwagger makes the document available to the Swagger UI handler.
func registerSwagger() {
	if swag.GetSwagger(swag.Name) == nil {
		swag.Register(swag.Name, swaggerSpec{})
	}
}
