package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Vaccine Registration API",
        "description": "Session bound registration form with eligibility check",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Form", "description": "Per-session form state, submission and confirmation dialog"},
        {"name": "Registrations", "description": "Stateless validation and eligibility"}
    ],
    "paths": {
        "/form": {
            "get": {
                "tags": ["Form"],
                "summary": "Current form state",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FormStateEnvelope"}}
                }
            }
        },
        "/form/fields": {
            "patch": {
                "tags": ["Form"],
                "summary": "Apply one field change",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/FieldChangeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FormStateEnvelope"}},
                    "400": {"description": "Unknown field or bad payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Dialog is open", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/form/submit": {
            "post": {
                "tags": ["Form"],
                "summary": "Validate the form and open the confirmation dialog",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FormStateEnvelope"}},
                    "409": {"description": "Dialog is open", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/form/reset": {
            "post": {
                "tags": ["Form"],
                "summary": "Clear the form",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FormStateEnvelope"}}
                }
            }
        },
        "/form/dialog/acknowledge": {
            "post": {
                "tags": ["Form"],
                "summary": "Acknowledge the dialog and reset the form",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FormStateEnvelope"}},
                    "409": {"description": "Dialog is not open", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/form/dialog/dismiss": {
            "post": {
                "tags": ["Form"],
                "summary": "Close the dialog keeping the form",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FormStateEnvelope"}},
                    "409": {"description": "Dialog is not open", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/form/confirmation": {
            "get": {
                "tags": ["Form"],
                "summary": "Contents of the open confirmation dialog",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Confirmation"}},
                    "409": {"description": "Dialog is not open", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/id-card/format": {
            "get": {
                "tags": ["Form"],
                "summary": "Format a national ID as typed",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "value", "type": "string", "required": false}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/IDCardFormatResponse"}}
                }
            }
        },
        "/registrations/check": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Validate and evaluate a complete registration without a session",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RegistrationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "FieldChangeRequest": {
            "type": "object",
            "required": ["field"],
            "properties": {
                "field": {"type": "string", "enum": ["fullName", "idCard", "gender", "birthday"]},
                "value": {"type": "string"}
            }
        },
        "RegistrationRequest": {
            "type": "object",
            "properties": {
                "fullName": {"type": "string"},
                "idCard": {"type": "string", "example": "1-2345-67890-12-3"},
                "gender": {"type": "string", "enum": ["male", "female"]},
                "birthday": {"type": "string", "format": "date"}
            }
        },
        "Form": {
            "type": "object",
            "properties": {
                "fullName": {"type": "string"},
                "idCard": {"type": "string"},
                "gender": {"type": "string"},
                "birthday": {"type": "string"}
            }
        },
        "FormState": {
            "type": "object",
            "properties": {
                "form": {"$ref": "#/definitions/Form"},
                "invalidFields": {"type": "array", "items": {"type": "string"}},
                "dialog": {"type": "string", "enum": ["closed", "open"]}
            }
        },
        "Confirmation": {
            "type": "object",
            "properties": {
                "fullName": {"type": "string"},
                "idCard": {"type": "string"},
                "gender": {"type": "string"},
                "genderLabel": {"type": "string"},
                "birthday": {"type": "string"},
                "birthLine": {"type": "string"},
                "ageMonths": {"type": "integer"},
                "eligible": {"type": "boolean"},
                "verdict": {"type": "string"}
            }
        },
        "FormStateEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object",
                    "properties": {
                        "state": {"$ref": "#/definitions/FormState"},
                        "confirmation": {"$ref": "#/definitions/Confirmation"}
                    }
                },
                "meta": {"type": "object"}
            }
        },
        "IDCardFormatResponse": {
            "type": "object",
            "properties": {
                "input": {"type": "string"},
                "formatted": {"type": "string"},
                "complete": {"type": "boolean"}
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
