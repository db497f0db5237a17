// Package docs registers the DeepHelper OpenAPI document with swag. It is
// imported by the swagger build of internal/httpapi. Regenerate with
// `swag init -g cmd/deephelper/docs.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/chat": {
            "post": {
                "description": "Generates a reply to the message. The model is loaded on first use.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Chat with the assistant",
                "parameters": [
                    {
                        "description": "Chat message",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.ChatRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ChatResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Recent model lifecycle events",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.EventsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "List local models",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Service status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ChatRequest": {
            "type": "object",
            "properties": {
                "message": {"description": "User message to answer. Required, must not be empty.", "type": "string", "example": "2+2=?"}
            }
        },
        "types.ChatResponse": {
            "type": "object",
            "properties": {
                "response": {"description": "Generated assistant reply.", "type": "string", "example": "2+2 equals 4."},
                "status": {"description": "Always \"success\" for a 200 response.", "type": "string", "example": "success"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"description": "HTTP status code.", "type": "integer", "example": 400},
                "error": {"description": "Error message.", "type": "string", "example": "empty message"}
            }
        },
        "types.Model": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "DialoGPT-medium.Q8_0.gguf"},
                "name": {"type": "string", "example": "DialoGPT-medium.Q8_0"},
                "path": {"type": "string", "example": "/home/user/models/llm/DialoGPT-medium.Q8_0.gguf"},
                "quant": {"type": "string", "example": "Q8_0"},
                "size_bytes": {"type": "integer", "example": 380000000}
            }
        },
        "types.EventsResponse": {
            "type": "object",
            "properties": {
                "events": {"type": "array", "items": {"$ref": "#/definitions/types.LoadEvent"}}
            }
        },
        "types.LoadEvent": {
            "type": "object",
            "properties": {
                "error": {"description": "Error text for load_error events.", "type": "string"},
                "load_id": {"description": "Identifier shared by the events of one load attempt.", "type": "string"},
                "model_id": {"type": "string", "example": "microsoft/DialoGPT-medium"},
                "name": {"description": "Event name: load_start, load_ready or load_error.", "type": "string", "example": "load_ready"},
                "time": {"description": "RFC 3339 timestamp.", "type": "string"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.Model"}}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "model": {"description": "Identifier of the configured model.", "type": "string", "example": "microsoft/DialoGPT-medium"},
                "model_loaded": {"description": "Whether the model has been loaded.", "type": "boolean", "example": true},
                "name": {"description": "Display name of the assistant.", "type": "string", "example": "DeepHelper AI"},
                "status": {"description": "Always \"online\" while the server answers.", "type": "string", "example": "online"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "DeepHelper API",
	Description:      "Chat with a pretrained language model and report its load status.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
