package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Enrollment Wizard API",
        "description": "Four-step student enrollment wizard with saved progress, step guards and review/submit.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Wizard", "description": "Data-entry steps"},
        {"name": "Review", "description": "Review, submission and receipts"}
    ],
    "paths": {
        "/enroll/step-1": {
            "get": {
                "tags": ["Wizard"],
                "summary": "Render step 1",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "303": {"description": "Prerequisite step incomplete", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Wizard"],
                "summary": "Submit step 1",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentDetailsInput"}}
                ],
                "responses": {
                    "200": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "303": {"description": "Prerequisite step incomplete"},
                    "422": {"description": "Field errors", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enroll/step-2": {
            "get": {
                "tags": ["Wizard"],
                "summary": "Render step 2",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "303": {"description": "Prerequisite step incomplete", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Wizard"],
                "summary": "Submit step 2",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AcademicDetailsInput"}}
                ],
                "responses": {
                    "200": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "303": {"description": "Prerequisite step incomplete"},
                    "422": {"description": "Field errors", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enroll/step-2/back": {
            "post": {
                "tags": ["Wizard"],
                "summary": "Go to the previous step",
                "responses": {
                    "303": {"description": "See Other"}
                }
            }
        },
        "/enroll/step-3": {
            "get": {
                "tags": ["Wizard"],
                "summary": "Render step 3",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "303": {"description": "Prerequisite step incomplete", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Wizard"],
                "summary": "Submit step 3",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddressDetailsInput"}}
                ],
                "responses": {
                    "200": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "303": {"description": "Prerequisite step incomplete"},
                    "422": {"description": "Field errors", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enroll/step-3/back": {
            "post": {
                "tags": ["Wizard"],
                "summary": "Go to the previous step",
                "responses": {
                    "303": {"description": "See Other"}
                }
            }
        },
        "/enroll/review/back": {
            "post": {
                "tags": ["Wizard"],
                "summary": "Go to the previous step",
                "responses": {
                    "303": {"description": "See Other"}
                }
            }
        },
        "/enroll/review": {
            "get": {
                "tags": ["Review"],
                "summary": "Review collected answers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enroll/review/submit": {
            "post": {
                "tags": ["Review"],
                "summary": "Confirm and submit the enrollment",
                "responses": {
                    "200": {"description": "Submitted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Submission already in progress"},
                    "412": {"description": "A step is incomplete"}
                }
            }
        },
        "/enroll": {
            "delete": {
                "tags": ["Review"],
                "summary": "Start a new form",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/enroll/receipts/{token}": {
            "get": {
                "tags": ["Review"],
                "summary": "Download a submission receipt",
                "produces": ["application/pdf", "text/csv", "application/json"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv", "json"]}
                ],
                "responses": {
                    "200": {"description": "Receipt file"},
                    "401": {"description": "Link invalid or expired"},
                    "404": {"description": "Receipt not ready yet"}
                }
            }
        }
    },
    "definitions": {
        "StudentDetailsInput": {
            "type": "object",
            "required": ["fullName", "email", "mobile", "studentClass", "board", "language"],
            "properties": {
                "fullName": {"type": "string", "minLength": 2, "maxLength": 60},
                "email": {"type": "string", "format": "email"},
                "mobile": {"type": "string", "pattern": "^[6-9][0-9]{9}$"},
                "studentClass": {"type": "string", "enum": ["9", "10", "11", "12"]},
                "board": {"type": "string", "enum": ["CBSE", "ICSE", "State Board"]},
                "language": {"type": "string", "enum": ["English", "Hindi", "Hinglish"]}
            }
        },
        "AcademicDetailsInput": {
            "type": "object",
            "required": ["subjects", "examGoal", "studyHours"],
            "properties": {
                "subjects": {"type": "array", "items": {"type": "string"}},
                "examGoal": {"type": "string", "enum": ["Board Excellence", "Concept Mastery", "Competitive Prep"]},
                "studyHours": {"type": "string", "description": "Whole number between 1 and 40; numbers and numeric strings are accepted"},
                "hasScholarship": {"type": "boolean", "description": "Form posts may send on/off, yes/no or 1/0"},
                "lastExamScore": {"type": "string", "description": "0-100, required when hasScholarship is true"},
                "achievements": {"type": "string"}
            }
        },
        "AddressDetailsInput": {
            "type": "object",
            "required": ["pinCode", "state", "city", "address", "guardianName", "guardianMobile", "paymentPlan", "paymentMode"],
            "properties": {
                "pinCode": {"type": "string", "pattern": "^[0-9]{6}$"},
                "state": {"type": "string"},
                "city": {"type": "string"},
                "address": {"type": "string", "minLength": 10, "maxLength": 120},
                "guardianName": {"type": "string"},
                "guardianMobile": {"type": "string", "pattern": "^[6-9][0-9]{9}$"},
                "paymentPlan": {"type": "string", "enum": ["Quarterly", "Half-Yearly", "Annual"]},
                "paymentMode": {"type": "string", "enum": ["UPI", "Card", "NetBanking"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
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
