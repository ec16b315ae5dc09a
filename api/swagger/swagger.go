package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Pledge Points API",
        "description": "Pledge points, approvals, interviews and reports for the chat platform adapter",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "PlatformToken": {
            "type": "apiKey",
            "in": "header",
            "name": "Authorization"
        }
    },
    "tags": [
        {
            "name": "Pledges"
        },
        {
            "name": "Points"
        },
        {
            "name": "Pending"
        },
        {
            "name": "Interviews"
        },
        {
            "name": "Reports"
        },
        {
            "name": "Admin"
        },
        {
            "name": "System"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": [
                    "System"
                ],
                "summary": "Liveness probe",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": [
                    "System"
                ],
                "summary": "Readiness probe",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": [
                    "System"
                ],
                "summary": "Prometheus metrics",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/pledges": {
            "get": {
                "tags": [
                    "Pledges"
                ],
                "summary": "List pledges",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Pledges"
                ],
                "summary": "Add a pledge",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AddPledgeRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/pledges/search": {
            "get": {
                "tags": [
                    "Pledges"
                ],
                "summary": "Autocomplete pledge names",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "q",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/pledges/{name}": {
            "delete": {
                "tags": [
                    "Pledges"
                ],
                "summary": "Remove a pledge",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "name",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/pledges/{name}/points": {
            "get": {
                "tags": [
                    "Pledges"
                ],
                "summary": "Total points for a pledge",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "name",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/pledges/{name}/history": {
            "get": {
                "tags": [
                    "Pledges"
                ],
                "summary": "Ledger rows for a pledge",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "name",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/pledges/{name}/interviews/quality": {
            "get": {
                "tags": [
                    "Interviews"
                ],
                "summary": "Quality interview count for a pledge",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "name",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/points": {
            "post": {
                "tags": [
                    "Points"
                ],
                "summary": "Apply a point change directly (approver)",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PointChangeRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/rankings": {
            "get": {
                "tags": [
                    "Points"
                ],
                "summary": "Current pledge rankings",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/pending": {
            "get": {
                "tags": [
                    "Pending"
                ],
                "summary": "Pending point change requests",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Pending"
                ],
                "summary": "Request a point change for review",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PointChangeRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/pending/approve": {
            "post": {
                "tags": [
                    "Pending"
                ],
                "summary": "Approve pending requests (approver)",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ReviewRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/pending/reject": {
            "post": {
                "tags": [
                    "Pending"
                ],
                "summary": "Reject pending requests (approver)",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ReviewRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/interviews": {
            "get": {
                "tags": [
                    "Interviews"
                ],
                "summary": "List interviews",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "pledge",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "brother",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    },
                    {
                        "name": "page_size",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Interviews"
                ],
                "summary": "Record an interview",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/InterviewRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/interviews/summary": {
            "get": {
                "tags": [
                    "Interviews"
                ],
                "summary": "Interview summary per pledge",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/interviews/rankings": {
            "get": {
                "tags": [
                    "Interviews"
                ],
                "summary": "Interview counts ranked by pledge or brother",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "by",
                        "in": "query",
                        "type": "string",
                        "required": false
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/reports/points": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Points per pledge in roster order",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/reports/history": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Cumulative points over time",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/reports/pledges/{name}/series": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Cumulative points for one pledge",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "name",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/reports/points-graph": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Render the points bar chart",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/reports/points-history": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Render the cumulative points chart",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/reports/pledges/{name}/graph": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Render one pledge's points chart",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "name",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/reports/rankings-pdf": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Render the rankings PDF",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/reports/points-file": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Download the points ledger as CSV",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/downloads/{token}": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Download a rendered artifact",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/logs": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "Recent log lines",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "hours",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    }
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/logs/size": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "Log file size",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/status": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "Uptime, runtime and ledger counts",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/digest": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Queue a rankings digest (approver)",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "PlatformToken": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "AddPledgeRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                }
            }
        },
        "PointChangeRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "point_change": {
                    "type": "number"
                },
                "comment": {
                    "type": "string"
                }
            }
        },
        "ReviewRequest": {
            "type": "object",
            "properties": {
                "ids": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                }
            }
        },
        "InterviewRequest": {
            "type": "object",
            "properties": {
                "pledge": {
                    "type": "string"
                },
                "brother": {
                    "type": "string"
                },
                "quality": {
                    "type": "integer",
                    "enum": [
                        0,
                        1
                    ]
                },
                "time": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
