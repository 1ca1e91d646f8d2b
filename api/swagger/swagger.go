package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timeslots API",
        "description": "Slot generation and availability tracking over time ranges",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Slots", "description": "Stateless partition and overlap checks"},
        {"name": "SlotStores", "description": "In-memory slot stores with mutable unavailable intervals"},
        {"name": "System", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {"tags": ["System"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {"tags": ["System"], "summary": "Readiness check", "responses": {"200": {"description": "Ready"}}}
        },
        "/metrics": {
            "get": {"tags": ["System"], "summary": "Prometheus metrics", "produces": ["text/plain"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/system/metrics": {
            "get": {"tags": ["System"], "summary": "Service counters", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/slots/partition": {
            "post": {
                "tags": ["Slots"],
                "summary": "Preview the slots of a range",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PartitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid interval or configuration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/intervals/overlap": {
            "post": {
                "tags": ["Slots"],
                "summary": "Check an interval against candidates",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OverlapRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/slot-stores": {
            "post": {
                "tags": ["SlotStores"],
                "summary": "Create a slot store",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSlotStoreRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Store limit reached", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/slot-stores/{id}": {
            "get": {
                "tags": ["SlotStores"],
                "summary": "Get a slot store snapshot",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown store", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["SlotStores"],
                "summary": "Discard a slot store",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/api/v1/slot-stores/{id}/slots": {
            "get": {
                "tags": ["SlotStores"],
                "summary": "List slots",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "available", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["SlotStores"],
                "summary": "Patch one slot; unknown slot ids are ignored",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PatchSlotRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/slot-stores/{id}/unavailable": {
            "put": {
                "tags": ["SlotStores"],
                "summary": "Replace unavailable intervals",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UnavailableRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["SlotStores"],
                "summary": "Append unavailable intervals",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UnavailableRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/slot-stores/{id}/conflicts": {
            "get": {
                "tags": ["SlotStores"],
                "summary": "Unavailable intervals overlapping a slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "slotId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/slot-stores/{id}/export": {
            "get": {
                "tags": ["SlotStores"],
                "summary": "Download slots as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        }
    },
    "definitions": {
        "Instant": {
            "description": "RFC 3339 string or epoch milliseconds",
            "type": "string",
            "example": "2024-01-01T09:00:00Z"
        },
        "Interval": {
            "type": "object",
            "required": ["startTime", "endTime"],
            "properties": {
                "startTime": {"$ref": "#/definitions/Instant"},
                "endTime": {"$ref": "#/definitions/Instant"}
            }
        },
        "Slot": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "2024-01-01T09:00:00.000Z/2024-01-01T11:00:00.000Z#0"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "length": {"type": "integer"},
                "is_available": {"type": "boolean"},
                "metadata": {"type": "object"}
            }
        },
        "PartitionRequest": {
            "type": "object",
            "required": ["startTime", "endTime"],
            "properties": {
                "startTime": {"$ref": "#/definitions/Instant"},
                "endTime": {"$ref": "#/definitions/Instant"},
                "slotLength": {"type": "integer", "description": "seconds, defaults to 1800"},
                "unavailable": {"type": "array", "items": {"$ref": "#/definitions/Interval"}},
                "inclusive": {"type": "boolean"}
            }
        },
        "CreateSlotStoreRequest": {
            "type": "object",
            "required": ["startTime", "endTime"],
            "properties": {
                "startTime": {"$ref": "#/definitions/Instant"},
                "endTime": {"$ref": "#/definitions/Instant"},
                "slotLength": {"type": "integer"},
                "unavailable": {"type": "array", "items": {"$ref": "#/definitions/Interval"}},
                "inclusive": {"type": "boolean"},
                "patchMode": {"type": "string", "enum": ["explicit", "ignore_falsy"]}
            }
        },
        "OverlapRequest": {
            "type": "object",
            "required": ["interval", "candidates"],
            "properties": {
                "interval": {"$ref": "#/definitions/Interval"},
                "candidates": {"type": "array", "items": {"$ref": "#/definitions/Interval"}},
                "inclusive": {"type": "boolean"}
            }
        },
        "UnavailableRequest": {
            "type": "object",
            "properties": {
                "intervals": {"type": "array", "items": {"$ref": "#/definitions/Interval"}}
            }
        },
        "SlotPatch": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "length": {"type": "integer"},
                "is_available": {"type": "boolean"},
                "metadata": {"type": "object"}
            }
        },
        "PatchSlotRequest": {
            "type": "object",
            "required": ["slotId"],
            "properties": {
                "slotId": {"type": "string"},
                "fields": {"$ref": "#/definitions/SlotPatch"}
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
