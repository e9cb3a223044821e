package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Wedding Snap API",
        "description": "Photo sharing for weddings: guest uploads, album sharing and bulk downloads",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Albums", "description": "Owner album management"},
        {"name": "Media", "description": "Owner media management"},
        {"name": "Exports", "description": "Bulk download jobs and archive retrieval"},
        {"name": "Guest", "description": "Public share page and guest uploads"}
    ],
    "paths": {
        "/albums": {
            "get": {
                "tags": ["Albums"],
                "summary": "List owned albums",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Albums"],
                "summary": "Create album",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAlbumRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/albums/{id}": {
            "get": {
                "tags": ["Albums"],
                "summary": "Get one owned album",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/albums/{id}/media": {
            "get": {
                "tags": ["Albums"],
                "summary": "List media in one owned album",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/albums/{id}/media/{mediaId}": {
            "delete": {
                "tags": ["Media"],
                "summary": "Delete one media item",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "mediaId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/albums/{id}/share-card": {
            "get": {
                "tags": ["Albums"],
                "summary": "Printable QR share card",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF share card"}
                }
            }
        },
        "/albums/{id}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Start a bulk download job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Quota exceeded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/albums/{id}/export/latest": {
            "get": {
                "tags": ["Exports"],
                "summary": "Latest export job of an album",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}/{index}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download one archive part",
                "produces": ["application/zip"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"},
                    {"name": "index", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "ZIP archive"},
                    "404": {"description": "Unknown token"},
                    "409": {"description": "Export not ready"},
                    "410": {"description": "Download window expired"},
                    "400": {"description": "Part index out of range"}
                }
            }
        },
        "/public/albums/{slug}": {
            "get": {
                "tags": ["Guest"],
                "summary": "Guest share page payload",
                "parameters": [
                    {"name": "slug", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Album expired"}
                }
            }
        },
        "/public/albums/{slug}/media": {
            "post": {
                "tags": ["Guest"],
                "summary": "Register a guest upload",
                "parameters": [
                    {"name": "slug", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterMediaRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateAlbumRequest": {
            "type": "object",
            "required": ["albumName", "eventDate"],
            "properties": {
                "albumName": {"type": "string"},
                "eventDate": {"type": "string", "example": "2026-10-10"},
                "planType": {"type": "integer", "enum": [0, 1]}
            }
        },
        "RegisterMediaRequest": {
            "type": "object",
            "required": ["fileName", "mimeType", "fileSize"],
            "properties": {
                "fileName": {"type": "string"},
                "mimeType": {"type": "string"},
                "fileSize": {"type": "integer"},
                "uploadUserName": {"type": "string"}
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
