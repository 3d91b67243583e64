// Package api holds the HTTP contract: the OpenAPI document, the chi server
// generated from it and the routes that publish it.
package api

//go:generate go tool oapi-codegen -config oapi-codegen.yaml openapi.yaml
