// Package docs holds the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g internal/api/http/router.go -o api/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"system"
				],
				"summary": "API root",
				"description": "Welcome message plus links to the docs and health endpoints",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/apisdk.RootResponse"
						}
					}
				}
			}
		},
		"/health": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"system"
				],
				"summary": "Health check",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/apisdk.HealthResponse"
						}
					}
				}
			}
		},
		"/readyz": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"system"
				],
				"summary": "Readiness check",
				"description": "Pings the database",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/apisdk.ReadyResponse"
						}
					},
					"503": {
						"description": "Service Unavailable",
						"schema": {
							"$ref": "#/definitions/apisdk.ReadyResponse"
						}
					}
				}
			}
		},
		"/api/v1/auth/token": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Log in",
				"description": "Exchanges a username or email and password for a token pair",
				"parameters": [
					{
						"description": "Credentials",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/apisdk.TokenRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/apisdk.TokenResponse"
						}
					},
					"400": {
						"description": "Validation error or inactive user",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Invalid credentials",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"429": {
						"description": "Rate limited",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/auth/refresh": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Refresh tokens",
				"description": "Rotates a refresh token and issues a new pair",
				"parameters": [
					{
						"description": "Refresh token",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/apisdk.RefreshRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/apisdk.TokenResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Invalid refresh token",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/auth/revoke": {
			"post": {
				"consumes": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Revoke a refresh token",
				"parameters": [
					{
						"description": "Refresh token",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/apisdk.RefreshRequest"
						}
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/users": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Register a user",
				"parameters": [
					{
						"description": "New user",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/apisdk.UserCreate"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/apisdk.UserResponse"
						}
					},
					"400": {
						"description": "Validation error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"409": {
						"description": "Email or username taken",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"429": {
						"description": "Rate limited",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "List users",
				"description": "Superuser only",
				"parameters": [
					{
						"type": "integer",
						"default": 1,
						"description": "Page number (from 1)",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"default": 20,
						"description": "Items per page",
						"name": "per_page",
						"in": "query"
					},
					{
						"type": "boolean",
						"default": false,
						"description": "Only active users",
						"name": "active_only",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/apisdk.UserList"
						}
					},
					"400": {
						"description": "Bad pagination",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/users/me": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Current user",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/apisdk.UserResponse"
						}
					},
					"400": {
						"description": "Inactive user",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/users/{id}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Get a user",
				"description": "Self or superuser",
				"parameters": [
					{
						"type": "integer",
						"description": "User id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/apisdk.UserResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Update a user",
				"description": "Self or superuser. Changing is_active needs a superuser.",
				"parameters": [
					{
						"type": "integer",
						"description": "User id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Fields to change",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/apisdk.UserUpdate"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/apisdk.UserResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Delete a user",
				"description": "Superuser only",
				"parameters": [
					{
						"type": "integer",
						"description": "User id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/apisdk.UserResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/users/{id}/password": {
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Change password",
				"description": "Own account only. Revokes every refresh token of the user.",
				"parameters": [
					{
						"type": "integer",
						"description": "User id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Current and new password",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/apisdk.UserPasswordUpdate"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/apisdk.UserResponse"
						}
					},
					"400": {
						"description": "Validation error or wrong current password",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apisdk.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"apisdk.UserCreate": {
			"type": "object",
			"required": [
				"email",
				"password",
				"username"
			],
			"properties": {
				"email": {
					"type": "string",
					"maxLength": 255,
					"example": "user@example.com"
				},
				"username": {
					"type": "string",
					"maxLength": 50,
					"minLength": 3,
					"example": "johndoe"
				},
				"password": {
					"type": "string",
					"maxLength": 100,
					"minLength": 8,
					"example": "securepassword123"
				},
				"full_name": {
					"type": "string",
					"maxLength": 100,
					"example": "John Doe"
				},
				"bio": {
					"type": "string",
					"maxLength": 1000
				},
				"avatar_url": {
					"type": "string",
					"maxLength": 500,
					"example": "https://example.com/avatar.jpg"
				}
			}
		},
		"apisdk.UserUpdate": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string",
					"maxLength": 255
				},
				"username": {
					"type": "string",
					"maxLength": 50,
					"minLength": 3
				},
				"full_name": {
					"type": "string",
					"maxLength": 100
				},
				"bio": {
					"type": "string",
					"maxLength": 1000
				},
				"avatar_url": {
					"type": "string",
					"maxLength": 500
				},
				"is_active": {
					"type": "boolean"
				}
			}
		},
		"apisdk.UserPasswordUpdate": {
			"type": "object",
			"required": [
				"current_password",
				"new_password"
			],
			"properties": {
				"current_password": {
					"type": "string"
				},
				"new_password": {
					"type": "string",
					"maxLength": 100,
					"minLength": 8
				}
			}
		},
		"apisdk.UserResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer",
					"example": 1
				},
				"email": {
					"type": "string",
					"example": "user@example.com"
				},
				"username": {
					"type": "string",
					"example": "johndoe"
				},
				"full_name": {
					"type": "string"
				},
				"bio": {
					"type": "string"
				},
				"avatar_url": {
					"type": "string"
				},
				"is_active": {
					"type": "boolean"
				},
				"is_superuser": {
					"type": "boolean"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"apisdk.UserList": {
			"type": "object",
			"properties": {
				"users": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/apisdk.UserResponse"
					}
				},
				"total": {
					"type": "integer",
					"example": 100
				},
				"page": {
					"type": "integer",
					"example": 1
				},
				"per_page": {
					"type": "integer",
					"example": 20
				},
				"pages": {
					"type": "integer",
					"example": 5
				}
			}
		},
		"apisdk.TokenRequest": {
			"type": "object",
			"required": [
				"password",
				"username"
			],
			"properties": {
				"username": {
					"type": "string",
					"maxLength": 255,
					"example": "johndoe"
				},
				"password": {
					"type": "string",
					"maxLength": 100
				}
			}
		},
		"apisdk.RefreshRequest": {
			"type": "object",
			"required": [
				"refresh_token"
			],
			"properties": {
				"refresh_token": {
					"type": "string",
					"maxLength": 128
				}
			}
		},
		"apisdk.TokenResponse": {
			"type": "object",
			"properties": {
				"access_token": {
					"type": "string"
				},
				"refresh_token": {
					"type": "string"
				},
				"token_type": {
					"type": "string",
					"example": "Bearer"
				},
				"expires_in": {
					"type": "integer",
					"example": 1800
				}
			}
		},
		"apisdk.HealthResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string",
					"example": "healthy"
				},
				"environment": {
					"type": "string",
					"example": "development"
				},
				"version": {
					"type": "string",
					"example": "1.0.0"
				}
			}
		},
		"apisdk.ReadyResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string",
					"example": "ok"
				},
				"error": {
					"type": "string"
				}
			}
		},
		"apisdk.RootResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				},
				"version": {
					"type": "string"
				},
				"docs": {
					"type": "string"
				},
				"health": {
					"type": "string"
				}
			}
		},
		"apisdk.ErrorResponse": {
			"type": "object",
			"properties": {
				"detail": {
					"type": "string"
				},
				"error_code": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "JWT access token. Format: \"Bearer {token}\".",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "User API",
	Description:      "User management REST API: registration, authentication and profile management.\n\nAccess tokens are HMAC-signed JWTs. Refresh tokens are opaque and rotate on every use.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
