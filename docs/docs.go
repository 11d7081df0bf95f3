// Package docs registers the Swagger document of the API. Regenerate the
// full document from the handler annotations with
// `swag init -g cmd/server/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@one-green.io"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/health": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/sessions": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["sessions"],
                "summary": "Open an editing session",
                "parameters": [{
                    "in": "body",
                    "name": "request",
                    "schema": {"$ref": "#/definitions/models.OpenSessionRequest"}
                }],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/v1/sessions/{id}/wizard/generate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["wizard"],
                "summary": "Submit the campaign for generation",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Conflict"},
                    "502": {"description": "Bad Gateway"}
                }
            }
        }
    },
    "definitions": {
        "models.OpenSessionRequest": {
            "type": "object",
            "properties": {
                "organization_id": {"type": "string"},
                "session_id": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Enter ` + "`" + `Bearer ` + "`" + ` followed by your JWT token",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Campaign Builder API",
	Description:      "Multi-tenant campaign canvas, wizard and generation gateway",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
