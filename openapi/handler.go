package openapi

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/vitalvas/oaspec/mux"
)

// DocsUI selects which interactive documentation UI to serve.
type DocsUI int

const (
	DocsSwaggerUI DocsUI = iota
	DocsRapiDoc
	DocsRedoc
)

// HandleConfig configures the endpoints registered by Handle.
type HandleConfig struct {
	// UI selects the interactive docs UI (default: DocsSwaggerUI).
	UI DocsUI

	// Title overrides the HTML page title (default: info title).
	Title string

	// JSONFilename is the path for the JSON document endpoint
	// (default: "schema.json"). Set to "-" to disable.
	//
	// Relative paths are joined with the base path:
	//
	//	"schema.json"       -> <basePath>/schema.json
	//	"data/openapi.json" -> <basePath>/data/openapi.json
	//
	// Absolute paths (starting with "/") are used as-is:
	//
	//	"/api/v1/swagger.json" -> /api/v1/swagger.json
	JSONFilename string

	// YAMLFilename is the path for the YAML document endpoint
	// (default: "schema.yaml"). Set to "-" to disable.
	// Follows the same absolute/relative rules as JSONFilename.
	YAMLFilename string

	// DisableDocs disables the interactive HTML docs UI endpoint.
	DisableDocs bool

	// CompactJSON serves the JSON document without indentation.
	CompactJSON bool

	// SwaggerUIConfig provides additional SwaggerUIBundle configuration options.
	// These are rendered as JavaScript object properties alongside the url and
	// dom_id defaults. For example, {"docExpansion": "none"} produces:
	//
	//	SwaggerUIBundle({url: "...", dom_id: "#swagger-ui", "docExpansion": "none"});
	//
	// Only used when UI is DocsSwaggerUI (the default).
	//
	// See: https://swagger.io/docs/open-source-tools/swagger-ui/usage/configuration/
	SwaggerUIConfig map[string]any
}

// jsonFilename returns the configured JSON document filename, defaulting to "schema.json".
func (cfg HandleConfig) jsonFilename() string {
	if cfg.JSONFilename == "" {
		return "schema.json"
	}
	return cfg.JSONFilename
}

// yamlFilename returns the configured YAML document filename, defaulting to "schema.yaml".
func (cfg HandleConfig) yamlFilename() string {
	if cfg.YAMLFilename == "" {
		return "schema.yaml"
	}
	return cfg.YAMLFilename
}

// resolvePath returns the full route path for a filename.
// Absolute filenames (starting with "/") are returned as-is.
// Relative filenames are joined under basePath.
func resolvePath(basePath, filename string) string {
	if strings.HasPrefix(filename, "/") {
		return filename
	}
	if basePath == "" {
		return "/" + filename
	}
	return basePath + "/" + filename
}

// Handle registers document endpoints under the given base path on the
// router. Depending on config, the following routes are registered:
//
//	<basePath>/            - interactive HTML docs (unless DisableDocs)
//	<JSONFilename path>    - document as JSON  (unless JSONFilename is "-")
//	<YAMLFilename path>    - document as YAML  (unless YAMLFilename is "-")
//
// The config parameter is optional; pass nil for defaults:
//
//	doc.Handle(r, "/docs", nil)
//
// Routes are added to the document through AddRouter or AddRoute before
// serving starts. Each endpoint serializes the document once, on its
// first request, and serves the cached bytes afterwards.
func (d *Document) Handle(r *mux.Router, basePath string, cfg *HandleConfig) {
	if cfg == nil {
		cfg = &HandleConfig{}
	}
	basePath = strings.TrimRight(basePath, "/")

	jsonFile := cfg.jsonFilename()
	yamlFile := cfg.yamlFilename()

	var jsonPath, yamlPath string

	if jsonFile != "-" {
		jsonPath = resolvePath(basePath, jsonFile)
		flags := JSONPretty
		if cfg.CompactJSON {
			flags = 0
		}
		d.registerDocument(r, jsonPath, "application/json", func() ([]byte, error) {
			return d.ToJSON(flags)
		})
	}

	if yamlFile != "-" {
		yamlPath = resolvePath(basePath, yamlFile)
		d.registerDocument(r, yamlPath, "application/x-yaml", d.ToYAML)
	}

	if !cfg.DisableDocs {
		docURL := jsonPath
		if docURL == "" {
			docURL = yamlPath
		}

		if docURL != "" {
			d.registerDocs(r, basePath, cfg, docURL)
		}
	}
}

// registerDocument registers a GET handler serving the serialized document.
func (d *Document) registerDocument(r *mux.Router, path, contentType string, encode func() ([]byte, error)) {
	var (
		once     sync.Once
		data     []byte
		buildErr error
	)
	r.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		once.Do(func() {
			defer func() {
				if rv := recover(); rv != nil {
					buildErr = fmt.Errorf("%v", rv)
				}
			}()
			data, buildErr = encode()
		})
		if buildErr != nil {
			http.Error(w, "failed to serialize OpenAPI document", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}).Methods(http.MethodGet, http.MethodHead)
}

// registerDocs registers a handler that serves the interactive HTML documentation UI.
func (d *Document) registerDocs(r *mux.Router, basePath string, cfg *HandleConfig, docURL string) {
	title := cfg.Title
	if title == "" {
		title = d.info.Title
	}

	var page string
	switch cfg.UI {
	case DocsRapiDoc:
		page = rapidocTemplate(title, docURL)
	case DocsRedoc:
		page = redocTemplate(title, docURL)
	default:
		page = swaggerUITemplate(title, docURL, cfg.SwaggerUIConfig)
	}
	data := []byte(page)

	handler := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}

	if basePath == "" {
		r.HandleFunc("/", handler).Methods(http.MethodGet, http.MethodHead)
		return
	}
	r.HandleFunc(basePath, handler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(basePath+"/", handler).Methods(http.MethodGet, http.MethodHead)
}

func swaggerUITemplate(title, docPath string, config map[string]any) string {
	var extra string
	if len(config) > 0 {
		keys := make([]string, 0, len(config))
		for k := range config {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf strings.Builder
		for _, k := range keys {
			v, err := json.Marshal(config[k])
			if err != nil {
				continue
			}
			fmt.Fprintf(&buf, ", %s: %s", k, v)
		}
		extra = buf.String()
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: %q, dom_id: "#swagger-ui"%s});
</script>
</body>
</html>`, html.EscapeString(title), docPath, extra)
}

func rapidocTemplate(title, docPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<script type="module" src="https://unpkg.com/rapidoc/dist/rapidoc-min.js"></script>
</head>
<body>
<rapi-doc spec-url=%q></rapi-doc>
</body>
</html>`, html.EscapeString(title), docPath)
}

func redocTemplate(title, docPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
</head>
<body>
<redoc spec-url=%q></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`, html.EscapeString(title), docPath)
}
