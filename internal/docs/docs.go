// Package docs registers the SkyBook OpenAPI document with swag so that
// http-swagger can serve it under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {"get": {"tags": ["system"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a user",
            "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterInput"}}],
            "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/AuthResult"}}, "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/Error"}}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Log in",
            "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginInput"}}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/AuthResult"}}, "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Error"}}}}},
        "/auth/me": {"get": {"tags": ["auth"], "summary": "Current user", "security": [{"Bearer": []}],
            "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthenticated", "schema": {"$ref": "#/definitions/Error"}}}}},
        "/flights": {
            "get": {"tags": ["flights"], "summary": "Search active flights",
                "parameters": [
                    {"in": "query", "name": "origin", "type": "string"},
                    {"in": "query", "name": "destination", "type": "string"},
                    {"in": "query", "name": "departure_date", "type": "string", "format": "date"},
                    {"in": "query", "name": "sort_by", "type": "string", "enum": ["price", "departure", "duration"]},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["flights"], "summary": "Create a flight", "security": [{"Bearer": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/Flight"}}],
                "responses": {"201": {"description": "Created"}, "403": {"description": "Admin access required"}}}
        },
        "/flights/{id}": {
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "get": {"tags": ["flights"], "summary": "Get a flight", "responses": {"200": {"description": "OK"}, "404": {"description": "Flight not found"}}},
            "put": {"tags": ["flights"], "summary": "Update a flight", "security": [{"Bearer": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/Flight"}}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Flight not found"}}},
            "delete": {"tags": ["flights"], "summary": "Delete a flight", "security": [{"Bearer": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Flight not found"}}}
        },
        "/bookings": {
            "get": {"tags": ["bookings"], "summary": "List own bookings, or all for admins", "security": [{"Bearer": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["bookings"], "summary": "Book seats on a flight", "security": [{"Bearer": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBookingInput"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Not enough available seats"}, "404": {"description": "Flight not found"}}}
        },
        "/bookings/{id}": {
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "get": {"tags": ["bookings"], "summary": "Booking detail", "security": [{"Bearer": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Access denied"}}}
        },
        "/bookings/{id}/cancel": {
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "patch": {"tags": ["bookings"], "summary": "Cancel a booking", "security": [{"Bearer": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Booking is already cancelled"}}}
        },
        "/bookings/{id}/status": {
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "patch": {"tags": ["bookings"], "summary": "Override booking status", "security": [{"Bearer": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"type": "object", "properties": {"status": {"type": "string", "enum": ["pending", "confirmed", "cancelled"]}}}}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/users": {"get": {"tags": ["users"], "summary": "List users", "security": [{"Bearer": []}], "responses": {"200": {"description": "OK"}}}},
        "/users/profile": {
            "get": {"tags": ["users"], "summary": "Own profile", "security": [{"Bearer": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["users"], "summary": "Update own profile", "security": [{"Bearer": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/users/{id}": {
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "delete": {"tags": ["users"], "summary": "Delete a user", "security": [{"Bearer": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/users/{id}/role": {
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "patch": {"tags": ["users"], "summary": "Change a user's role", "security": [{"Bearer": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/stats": {"get": {"tags": ["admin"], "summary": "Dashboard totals", "security": [{"Bearer": []}], "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "Error": {"type": "object", "properties": {"error": {"type": "string"}}},
        "LoginInput": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "RegisterInput": {"type": "object", "required": ["email", "password"], "properties": {
            "email": {"type": "string"}, "password": {"type": "string"}, "username": {"type": "string"},
            "full_name": {"type": "string"}, "phone": {"type": "string"}}},
        "AuthResult": {"type": "object", "properties": {"token": {"type": "string"}, "user": {"type": "object"}}},
        "Flight": {"type": "object", "properties": {
            "flight_number": {"type": "string"}, "airline": {"type": "string"},
            "origin": {"type": "string"}, "destination": {"type": "string"},
            "departure_time": {"type": "string", "format": "date-time"}, "arrival_time": {"type": "string", "format": "date-time"},
            "price": {"type": "number"}, "total_seats": {"type": "integer"}, "available_seats": {"type": "integer"},
            "aircraft_type": {"type": "string"}, "status": {"type": "string", "enum": ["active", "cancelled", "delayed"]}}},
        "CreateBookingInput": {"type": "object", "required": ["flight_id", "passenger_name", "passenger_email"], "properties": {
            "flight_id": {"type": "string"}, "passenger_name": {"type": "string"}, "passenger_email": {"type": "string"},
            "passenger_phone": {"type": "string"}, "passengers": {"type": "integer", "minimum": 1},
            "seat_preference": {"type": "string", "enum": ["window", "aisle", "middle"]},
            "meal_preference": {"type": "string", "enum": ["regular", "vegetarian", "vegan", "kosher", "halal"]}}}
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "SkyBook API",
	Description:      "Flight search and booking.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
