// Package docs registers the OpenAPI document served under /swagger/.
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
        "/v1/proposals": {
            "get": {
                "produces": ["application/json"],
                "tags": ["proposals"],
                "summary": "List proposals",
                "parameters": [
                    {"type": "string", "description": "Status filter", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ledgerhttp.ProposalListResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ledgerhttp.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["proposals"],
                "summary": "Create a proposal",
                "parameters": [
                    {"type": "string", "description": "Calling service principal", "name": "X-Caller-Id", "in": "header", "required": true},
                    {"type": "string", "description": "Proposal creator", "name": "X-User-Id", "in": "header", "required": true},
                    {"description": "Proposal", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ledgerhttp.CreateProposalRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ledgerhttp.ProposalResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ledgerhttp.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ledgerhttp.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ledgerhttp.ErrorResponse"}}
                }
            }
        },
        "/v1/proposals/{proposal_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["proposals"],
                "summary": "Proposal details",
                "parameters": [
                    {"type": "integer", "description": "Proposal id", "name": "proposal_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ledgerhttp.ProposalResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ledgerhttp.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["proposals"],
                "summary": "Remove a proposal without participants",
                "parameters": [
                    {"type": "string", "description": "Calling service principal", "name": "X-Caller-Id", "in": "header", "required": true},
                    {"type": "string", "description": "Owner or admin", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "integer", "description": "Proposal id", "name": "proposal_id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ledgerhttp.ErrorResponse"}}
                }
            }
        },
        "/v1/proposals/{proposal_id}/votes": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Cast a vote",
                "parameters": [
                    {"type": "string", "description": "Calling service principal", "name": "X-Caller-Id", "in": "header", "required": true},
                    {"type": "string", "description": "Voter", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "integer", "description": "Proposal id", "name": "proposal_id", "in": "path", "required": true},
                    {"description": "Selected option", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ledgerhttp.CastVoteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ledgerhttp.VoteResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ledgerhttp.ErrorResponse"}}
                }
            }
        },
        "/v1/proposals/{proposal_id}/winners": {
            "get": {
                "produces": ["application/json"],
                "tags": ["proposals"],
                "summary": "Finalized winners of a proposal",
                "parameters": [
                    {"type": "integer", "description": "Proposal id", "name": "proposal_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ledgerhttp.WinnersResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ledgerhttp.ErrorResponse"}}
                }
            }
        },
        "/api/access/v1/voters": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["access"],
                "summary": "Register the calling user as a voter",
                "parameters": [
                    {"type": "string", "description": "Voter", "name": "X-User-Id", "in": "header", "required": true},
                    {"description": "Identity attributes", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/accesshttp.RegisterVoterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/accesshttp.VoterResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/accesshttp.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ledgerhttp.ErrorResponse": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "ledgerhttp.CreateProposalRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "mutability": {"type": "string", "enum": ["immutable", "mutable"]},
                "starts_at": {"type": "string", "format": "date-time"},
                "ends_at": {"type": "string", "format": "date-time"}
            }
        },
        "ledgerhttp.CastVoteRequest": {
            "type": "object",
            "properties": {"option": {"type": "string"}}
        },
        "ledgerhttp.VoteResponse": {
            "type": "object",
            "properties": {
                "proposal_id": {"type": "integer"},
                "voter_id": {"type": "string"},
                "option": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "ledgerhttp.ProposalResponse": {
            "type": "object",
            "properties": {
                "proposal_id": {"type": "integer"},
                "owner_id": {"type": "string"},
                "title": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string", "enum": ["pending", "active", "closed", "finalized"]},
                "mutability": {"type": "string"},
                "starts_at": {"type": "string", "format": "date-time"},
                "ends_at": {"type": "string", "format": "date-time"},
                "participant_count": {"type": "integer"},
                "winners": {"type": "array", "items": {"type": "string"}},
                "is_draw": {"type": "boolean"},
                "created_at": {"type": "string", "format": "date-time"},
                "finalized_at": {"type": "string", "format": "date-time"}
            }
        },
        "ledgerhttp.ProposalListResponse": {
            "type": "object",
            "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/ledgerhttp.ProposalResponse"}}}
        },
        "ledgerhttp.WinnersResponse": {
            "type": "object",
            "properties": {
                "proposal_id": {"type": "integer"},
                "winners": {"type": "array", "items": {"type": "string"}},
                "is_draw": {"type": "boolean"},
                "total_votes": {"type": "integer"},
                "counts": {"type": "array", "items": {"type": "object", "properties": {"option": {"type": "string"}, "count": {"type": "integer"}}}},
                "finalized_at": {"type": "string", "format": "date-time"}
            }
        },
        "accesshttp.ErrorResponse": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "accesshttp.RegisterVoterRequest": {
            "type": "object",
            "properties": {"attributes": {"type": "object", "additionalProperties": {"type": "string"}}}
        },
        "accesshttp.VoterResponse": {
            "type": "object",
            "properties": {
                "voter_id": {"type": "string"},
                "attributes": {"type": "object", "additionalProperties": {"type": "string"}},
                "registered_at": {"type": "string", "format": "date-time"},
                "verified": {"type": "boolean"},
                "verified_by": {"type": "string"},
                "verified_at": {"type": "string", "format": "date-time"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Agora governance API",
	Description:      "Proposal ledger and access gate.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
