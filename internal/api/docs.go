package api

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/swaggo/swag"
)

//go:embed openapi.yaml
var rawDocument []byte

var (
	loadOnce sync.Once
	document *openapi3.T
	loadErr  error
)

// Document parses and validates the embedded OpenAPI document. The parsed
// document is shared and must not be modified.
func Document() (*openapi3.T, error) {
	loadOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(rawDocument)
		if err != nil {
			loadErr = fmt.Errorf("load openapi document: %w", err)
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			loadErr = fmt.Errorf("invalid openapi document: %w", err)
			return
		}
		document = doc
	})
	return document, loadErr
}

// swaggerDoc publishes the document through swag's registry so tooling that
// reads swag.ReadDoc sees the same contract the router validates against.
type swaggerDoc struct{}

func (swaggerDoc) ReadDoc() string {
	doc, err := Document()
	if err != nil {
		return "{}"
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func init() {
	swag.Register(swag.Name, swaggerDoc{})
}

// RegisterDocsRoutes serves the API document as JSON and as the source YAML.
func RegisterDocsRoutes(r chi.Router) {
	r.Get("/docs/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})
	r.Get("/docs/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(rawDocument)
	})
}
