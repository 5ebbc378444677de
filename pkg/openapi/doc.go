// Package openapi describes the report API as an OpenAPI 3 document. Every
// template contributes a value store schema and its own validate, preview and
// export operations.
package openapi
