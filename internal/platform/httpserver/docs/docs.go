// Package docs serves the OpenAPI document for the plenary API.
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
    "securityDefinitions": {
        "ActorID": {"type": "apiKey", "in": "header", "name": "X-Actor-Id"},
        "ActorRole": {"type": "apiKey", "in": "header", "name": "X-Actor-Role"}
    },
    "paths": {
        "/sessions": {
            "get": {"summary": "List sessions", "tags": ["sessions"], "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Prepare a session with its agenda", "tags": ["sessions"], "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid agenda"}, "403": {"description": "Capability denied"}}}
        },
        "/sessions/active": {
            "get": {"summary": "Overview of the active session", "tags": ["sessions"], "responses": {"200": {"description": "OK"}, "404": {"description": "No active session"}}}
        },
        "/sessions/{session_id}": {
            "get": {"summary": "Session overview", "tags": ["sessions"], "parameters": [{"name": "session_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/sessions/{session_id}/start": {
            "post": {"summary": "Start a prepared session", "tags": ["sessions"], "parameters": [{"name": "session_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Another session is active"}, "412": {"description": "Empty agenda"}}}
        },
        "/sessions/{session_id}/pause": {
            "post": {"summary": "Pause a started session", "tags": ["sessions"], "parameters": [{"name": "session_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Not started"}}}
        },
        "/sessions/{session_id}/resume": {
            "post": {"summary": "Resume a paused session", "tags": ["sessions"], "parameters": [{"name": "session_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Not paused"}}}
        },
        "/sessions/{session_id}/close": {
            "post": {"summary": "Close a session and force-close its open initiative", "tags": ["sessions"], "parameters": [{"name": "session_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Not active"}}}
        },
        "/sessions/{session_id}/quorum": {
            "get": {"summary": "Quorum status for a majority rule", "tags": ["sessions"], "parameters": [{"name": "session_id", "in": "path", "required": true, "type": "string"}, {"name": "rule", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/sessions/{session_id}/eligibility/{legislator_id}": {
            "get": {"summary": "Whether a legislator may vote", "tags": ["sessions"], "parameters": [{"name": "session_id", "in": "path", "required": true, "type": "string"}, {"name": "legislator_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/sessions/{session_id}/roll-calls": {
            "post": {"summary": "Open the roll call of a started session", "tags": ["roll-calls"], "parameters": [{"name": "session_id", "in": "path", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}, "412": {"description": "Session not started"}}}
        },
        "/roll-calls/{roll_call_id}": {
            "get": {"summary": "Attendance sheet", "tags": ["roll-calls"], "parameters": [{"name": "roll_call_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/roll-calls/{roll_call_id}/attendance": {
            "post": {"summary": "Mark a legislator present, absent or unmarked", "tags": ["roll-calls"], "parameters": [{"name": "roll_call_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "412": {"description": "Roll call finalized or legislator inactive"}}}
        },
        "/roll-calls/{roll_call_id}/confirm": {
            "post": {"summary": "Confirm the roll call", "tags": ["roll-calls"], "parameters": [{"name": "roll_call_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/initiatives/{initiative_id}/activate": {
            "post": {"summary": "Open an initiative for voting", "tags": ["initiatives"], "parameters": [{"name": "initiative_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Another initiative is open"}, "412": {"description": "Quorum not met or roll call missing"}}}
        },
        "/initiatives/{initiative_id}/close": {
            "post": {"summary": "Close voting and record the result", "tags": ["initiatives"], "parameters": [{"name": "initiative_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "412": {"description": "Initiative was never opened"}}}
        },
        "/initiatives/{initiative_id}/reopen": {
            "post": {"summary": "Reopen an undecided initiative", "tags": ["initiatives"], "parameters": [{"name": "initiative_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Not reopenable"}}}
        },
        "/initiatives/{initiative_id}/votes": {
            "post": {"summary": "Cast or replace a vote", "tags": ["initiatives"], "parameters": [{"name": "initiative_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Not eligible"}, "412": {"description": "Initiative not open"}}}
        },
        "/initiatives/{initiative_id}/tally": {
            "get": {"summary": "Live or final tally", "tags": ["initiatives"], "parameters": [{"name": "initiative_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/legislators": {
            "get": {"summary": "List legislators", "tags": ["legislators"], "parameters": [{"name": "active", "in": "query", "type": "boolean"}], "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Register or update legislators", "tags": ["legislators"], "responses": {"200": {"description": "OK"}}}
        },
        "/legislators/{legislator_id}/active": {
            "put": {"summary": "Activate or deactivate a legislator", "tags": ["legislators"], "parameters": [{"name": "legislator_id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/plenary/v1",
	Schemes:          []string{},
	Title:            "Plenary API",
	Description:      "Session lifecycle, roll call and roll-call voting for the chamber floor.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
