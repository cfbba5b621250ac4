package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "School timetabling administration: teaching bindings, capacity validation and schedule preferences",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Bindings", "description": "Teaching binding roster"},
        {"name": "Preferences", "description": "Per-slot scheduling preferences"},
        {"name": "Capacity", "description": "Capacity and workload figures"},
        {"name": "Generator", "description": "AI timetable proposals"},
        {"name": "Exports", "description": "Roster exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Authenticated user claims",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bindings": {
            "get": {
                "tags": ["Bindings"],
                "summary": "List teaching bindings",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "organization_id", "in": "query", "type": "string"},
                    {"name": "teacher_id", "in": "query", "type": "string"},
                    {"name": "room_id", "in": "query", "type": "string"},
                    {"name": "class_id", "in": "query", "type": "string"},
                    {"name": "class_band_id", "in": "query", "type": "string"},
                    {"name": "plan_settings_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Bindings"],
                "summary": "Create teaching binding",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BindingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate assignment"},
                    "422": {"description": "Capacity exceeded"}
                }
            }
        },
        "/bindings/{uuid}": {
            "get": {
                "tags": ["Bindings"],
                "summary": "Get teaching binding",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "uuid", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Bindings"],
                "summary": "Update teaching binding",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "uuid", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BindingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate assignment"},
                    "422": {"description": "Capacity exceeded"}
                }
            },
            "delete": {
                "tags": ["Bindings"],
                "summary": "Delete teaching binding",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "uuid", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/preferences/{ownerKind}/{ownerId}": {
            "get": {
                "tags": ["Preferences"],
                "summary": "List active preferences for an owner",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "ownerKind", "in": "path", "required": true, "type": "string", "enum": ["teacher", "room", "class", "rule"]},
                    {"name": "ownerId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Preferences"],
                "summary": "Set one preference flag on a slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "ownerKind", "in": "path", "required": true, "type": "string", "enum": ["teacher", "room", "class", "rule"]},
                    {"name": "ownerId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertPreferenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/preferences/{ownerKind}/{ownerId}/slot": {
            "get": {
                "tags": ["Preferences"],
                "summary": "Get the preference record for one slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "ownerKind", "in": "path", "required": true, "type": "string"},
                    {"name": "ownerId", "in": "path", "required": true, "type": "string"},
                    {"name": "period_id", "in": "query", "required": true, "type": "string"},
                    {"name": "day_of_week", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Preferences"],
                "summary": "Clear the preference record for one slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "ownerKind", "in": "path", "required": true, "type": "string"},
                    {"name": "ownerId", "in": "path", "required": true, "type": "string"},
                    {"name": "period_id", "in": "query", "required": true, "type": "string"},
                    {"name": "day_of_week", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Cleared"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/preferences/{ownerKind}/{ownerId}/defaults": {
            "post": {
                "tags": ["Preferences"],
                "summary": "Seed default availability records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "ownerKind", "in": "path", "required": true, "type": "string"},
                    {"name": "ownerId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/capacity/organizations/{id}": {
            "get": {
                "tags": ["Capacity"],
                "summary": "Weekly teaching capacity for an organization",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/capacity/plan-settings/{id}": {
            "get": {
                "tags": ["Capacity"],
                "summary": "Total weekly slots under a plan setting",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workloads/{kind}/{id}": {
            "get": {
                "tags": ["Capacity"],
                "summary": "Committed weekly periods for a scope",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["teacher", "room", "class", "class_band"]},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "plan_settings_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/proposals": {
            "post": {
                "tags": ["Generator"],
                "summary": "Generate a timetable proposal",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/proposals/{id}": {
            "get": {
                "tags": ["Generator"],
                "summary": "Get a previously generated proposal",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or expired"}
                }
            }
        },
        "/exports/bindings": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the binding roster",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "organization_id", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "BindingRequest": {
            "type": "object",
            "required": ["organization_uuid", "periods_per_week"],
            "properties": {
                "organization_uuid": {"type": "string"},
                "teacher_uuid": {"type": "string"},
                "subject_uuid": {"type": "string"},
                "room_uuid": {"type": "string"},
                "class_uuid": {"type": "string"},
                "class_band_uuid": {"type": "string"},
                "plan_settings_id": {"type": "string"},
                "periods_per_week": {"type": "integer"},
                "is_fixed": {"type": "boolean"},
                "priority": {"type": "integer"}
            }
        },
        "UpsertPreferenceRequest": {
            "type": "object",
            "required": ["organization_id", "period_id", "day_of_week", "flag"],
            "properties": {
                "organization_id": {"type": "string"},
                "plan_settings_id": {"type": "string"},
                "period_id": {"type": "string"},
                "day_of_week": {"type": "integer", "minimum": 1, "maximum": 7},
                "flag": {"type": "string"},
                "value": {"type": "boolean"},
                "modified_by": {"type": "string"}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "required": ["organization_uuid"],
            "properties": {
                "organization_uuid": {"type": "string"},
                "plan_settings_id": {"type": "string"},
                "instructions": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
