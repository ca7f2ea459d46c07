// Package docs registers the OpenAPI description served on /swagger/*.
// It follows the layout swag init produces for the annotations in
// internal/api/handler.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/users/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List accounts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.accountListResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/users/change-password": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Change password",
                "parameters": [
                    {"type": "string", "description": "Old password", "name": "old_password", "in": "query"},
                    {"type": "string", "description": "New password", "name": "new_password", "in": "query"},
                    {"description": "Old and new password", "name": "body", "in": "body",
                     "schema": {"$ref": "#/definitions/handler.changePasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/users/create": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Create an account",
                "parameters": [
                    {"type": "string", "description": "Role", "name": "role", "in": "query"},
                    {"type": "string", "description": "Login", "name": "login", "in": "query"},
                    {"type": "string", "description": "Password", "name": "password", "in": "query"},
                    {"description": "Role, login and password", "name": "body", "in": "body",
                     "schema": {"$ref": "#/definitions/handler.createAccountRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/users/delete": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Delete an account",
                "parameters": [
                    {"type": "string", "description": "Login to delete", "name": "login", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/users/token": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Issue an access token",
                "parameters": [
                    {"type": "string", "description": "Login", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.tokenResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/users/{login}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get an account",
                "parameters": [
                    {"type": "string", "description": "Login", "name": "login", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.accountResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.accountListResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/handler.accountSummary"}}
            }
        },
        "handler.accountProfile": {
            "type": "object",
            "properties": {"login": {"type": "string"}, "role": {"type": "string"}}
        },
        "handler.accountResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "data": {"$ref": "#/definitions/handler.accountProfile"}
            }
        },
        "handler.accountSummary": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "login": {"type": "string"}, "role": {"type": "string"}}
        },
        "handler.changePasswordRequest": {
            "type": "object",
            "required": ["old_password"],
            "properties": {"new_password": {"type": "string"}, "old_password": {"type": "string"}}
        },
        "handler.createAccountRequest": {
            "type": "object",
            "properties": {"login": {"type": "string"}, "password": {"type": "string"}, "role": {"type": "string", "enum": ["admin", "user"]}}
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.messageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "status": {"type": "string"}}
        },
        "handler.tokenResponse": {
            "type": "object",
            "properties": {"access_token": {"type": "string"}, "token_type": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Accounts API",
	Description:      "User accounts, password credentials and bearer tokens.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
