package main

// General API documentation for swaggo. Regenerate with `swag init -g cmd/deephelper/docs.go`.
//
// @title           DeepHelper API
// @version         1.0
// @description     HTTP API of the DeepHelper chat assistant.
//
// @contact.name   DeepHelper maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
