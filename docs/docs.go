// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g internal/cli/serve.go -o docs
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
        "/draw": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Draw"],
                "summary": "Assignment job status",
                "operationId": "drawStatus",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SchedulerStatus"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/me": {
            "get": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["Me"],
                "summary": "Get own profile",
                "operationId": "getProfile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ProfileResponse"}},
                    "401": {"description": "Missing or invalid session", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Participant not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/me/assignment": {
            "get": {
                "security": [{"SessionToken": []}],
                "description": "Returns who the caller gifts to. Before the draw, assigned is false and the deadline is returned.",
                "produces": ["application/json"],
                "tags": ["Me"],
                "summary": "Get own assignment",
                "operationId": "getAssignment",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AssignmentResponse"}},
                    "401": {"description": "Missing or invalid session", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Participant not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/me/contact": {
            "put": {
                "security": [{"SessionToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Me"],
                "summary": "Replace own contact details",
                "operationId": "updateContact",
                "parameters": [
                    {"description": "New contact details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateContactRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "400": {"description": "Missing field or text too long", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Missing or invalid session", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Participant not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/me/wishes": {
            "put": {
                "security": [{"SessionToken": []}],
                "description": "Overwrites the wish list. Assignments already drawn keep the wishes captured at draw time.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Me"],
                "summary": "Replace own wish list",
                "operationId": "updateWishes",
                "parameters": [
                    {"description": "New wish list", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateWishesRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "400": {"description": "Missing field or text too long", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Missing or invalid session", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Participant not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/participants": {
            "post": {
                "description": "Creates a participant with an empty wish list and contact details.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Participants"],
                "summary": "Register a participant",
                "operationId": "registerParticipant",
                "parameters": [
                    {"description": "Identity and credential", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.ParticipantResponse"}},
                    "400": {"description": "Invalid identity or credential", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Identity already registered", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Too many attempts", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions": {
            "post": {
                "description": "Verifies the credential and issues a session token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Log in",
                "operationId": "login",
                "parameters": [
                    {"description": "Identity and credential", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/handlers.SessionResponse"},
                        "headers": {"Set-Cookie": {"type": "string", "description": "session=<token>; HttpOnly"}}
                    },
                    "400": {"description": "Malformed body", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Invalid identity or credential", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Too many attempts", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/current": {
            "delete": {
                "security": [{"SessionToken": []}],
                "description": "Revokes the current session and clears the cookie.",
                "tags": ["Sessions"],
                "summary": "Log out",
                "operationId": "logout",
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "401": {"description": "Missing or invalid session", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.AssignmentResponse": {
            "type": "object",
            "properties": {
                "assigned": {"type": "boolean"},
                "assignment": {"type": "string", "example": "You are gifting to: bob\nContact: (none)\nWishes: tea"},
                "deadline": {"type": "string"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "bad_request"},
                "message": {"type": "string", "example": "invalid request"},
                "request_id": {"type": "string", "example": "e1b9be03-4999-4289-9f03-999b042d65d6"}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["credential", "identity"],
            "properties": {
                "credential": {"type": "string", "example": "correct horse"},
                "identity": {"type": "string", "example": "ann"}
            }
        },
        "handlers.ParticipantResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "identity": {"type": "string", "example": "ann"}
            }
        },
        "handlers.ProfileResponse": {
            "type": "object",
            "properties": {
                "assigned": {"type": "boolean"},
                "contact_info": {"type": "string", "example": "ann@example.com"},
                "created_at": {"type": "string"},
                "identity": {"type": "string", "example": "ann"},
                "updated_at": {"type": "string"},
                "wishes": {"type": "string", "example": "wool socks"}
            }
        },
        "handlers.RegisterRequest": {
            "type": "object",
            "required": ["credential", "identity"],
            "properties": {
                "credential": {"type": "string", "example": "correct horse"},
                "identity": {"type": "string", "example": "ann"}
            }
        },
        "handlers.SessionResponse": {
            "type": "object",
            "properties": {
                "expires_at": {"type": "string"},
                "identity": {"type": "string", "example": "ann"},
                "token": {"type": "string", "example": "q0lVfR1t2Yx0m8p5rC4aZb6nK3dE7gH9jW2sL1uV0oQ"}
            }
        },
        "handlers.UpdateContactRequest": {
            "type": "object",
            "required": ["contact_info"],
            "properties": {
                "contact_info": {"type": "string", "example": "ann@example.com"}
            }
        },
        "handlers.UpdateWishesRequest": {
            "type": "object",
            "required": ["wishes"],
            "properties": {
                "wishes": {"type": "string", "example": "wool socks, a good novel"}
            }
        },
        "services.SchedulerStatus": {
            "type": "object",
            "properties": {
                "attempts": {"type": "integer"},
                "deadline": {"type": "string"},
                "has_run": {"type": "boolean"},
                "participant_count": {"type": "integer"},
                "ran_at": {"type": "string"},
                "registered": {"type": "integer"},
                "state": {"type": "string", "enum": ["armed", "running", "complete"]}
            }
        }
    },
    "securityDefinitions": {
        "SessionToken": {
            "description": "Bearer token from POST /sessions, e.g. \"Bearer q0lV...\". The session cookie is accepted too.",
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Gift Exchange API",
	Description:      "Register, post wishes and contact details, and read your secret gift assignment once it is drawn at the deadline.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
