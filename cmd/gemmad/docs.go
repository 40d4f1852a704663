package main

// General API documentation for swaggo. Regenerate internal/httpapi/apidocs
// with `swag init -g cmd/gemmad/docs.go -o internal/httpapi/apidocs`.
//
// @title           gemmad API
// @version         1.0
// @description     Method-channel bridge to an on-device language model.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
