//go:build swagger

// Package apidocs registers the OpenAPI document served by the swagger UI.
package apidocs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/channels/{channel}/invoke": {
            "post": {
                "summary": "Invoke one channel method",
                "description": "Returns a JSON reply, or NDJSON frames when the call emits events.",
                "consumes": ["application/json"],
                "produces": ["application/json", "application/x-ndjson"],
                "parameters": [
                    {"type": "string", "name": "channel", "in": "path", "required": true},
                    {"name": "call", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.MethodCall"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.MethodReply"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.MethodReply"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.MethodReply"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.MethodReply"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.MethodReply"}},
                    "501": {"description": "Not Implemented", "schema": {"$ref": "#/definitions/types.MethodReply"}}
                }
            }
        },
        "/status": {
            "get": {
                "summary": "Handler and session status",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/healthz": {"get": {"summary": "Liveness", "responses": {"200": {"description": "ok"}}}},
        "/readyz": {"get": {"summary": "Readiness", "responses": {"200": {"description": "ready"}, "503": {"description": "not ready"}}}}
    },
    "definitions": {
        "types.MethodCall": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "7"},
                "method": {"type": "string", "example": "generateText"},
                "args": {"type": "object", "additionalProperties": true}
            }
        },
        "types.CallError": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "NOT_INITIALIZED"},
                "message": {"type": "string", "example": "Model not initialized"},
                "details": {}
            }
        },
        "types.MethodReply": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "7"},
                "result": {},
                "error": {"$ref": "#/definitions/types.CallError"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "channel": {"type": "string"},
                "mode": {"type": "string"},
                "state": {"type": "string"},
                "model_path": {"type": "string"},
                "ready": {"type": "boolean"},
                "last_error": {"type": "string"},
                "loaded_at_unix": {"type": "integer"},
                "loads_total": {"type": "integer"},
                "generations_total": {"type": "integer"},
                "inflight": {"type": "integer"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
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
	Title:            "gemmad API",
	Description:      "Method-channel bridge to an on-device language model.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
