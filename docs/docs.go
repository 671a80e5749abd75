// Package docs holds the swagger definition served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "lintang birda saputra"
        },
        "license": {
            "name": "GNU Affero General Public License v3.0",
            "url": "https://www.gnu.org/licenses/gpl-3.0.en.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/route": {
            "get": {
                "description": "snaps both points to the nearest road vertex and runs dijkstra on the road graph. the response is a GeoJSON FeatureCollection with one LineString per traversed edge.",
                "produces": ["application/json"],
                "tags": ["navigations"],
                "summary": "least cost route between two coordinates",
                "parameters": [
                    {"type": "number", "description": "start longitude", "name": "start_lon", "in": "query", "required": true},
                    {"type": "number", "description": "start latitude", "name": "start_lat", "in": "query", "required": true},
                    {"type": "number", "description": "end longitude", "name": "end_lon", "in": "query", "required": true},
                    {"type": "number", "description": "end latitude", "name": "end_lat", "in": "query", "required": true},
                    {"type": "boolean", "description": "simplify segment geometry with douglas peucker", "name": "simplify", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/rest.ErrResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/rest.ErrResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/rest.ErrResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/rest.ErrResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/rest.ErrResponse"}}
                }
            }
        },
        "/nearest": {
            "get": {
                "produces": ["application/json"],
                "tags": ["navigations"],
                "summary": "nearest road vertices of a coordinate",
                "parameters": [
                    {"type": "number", "description": "longitude", "name": "lon", "in": "query", "required": true},
                    {"type": "number", "description": "latitude", "name": "lat", "in": "query", "required": true},
                    {"type": "integer", "description": "number of vertices (default 1, or 100 with radius)", "name": "k", "in": "query"},
                    {"type": "number", "description": "only vertices within this distance, in the snap metric unit", "name": "radius", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/rest.NearestResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/rest.ErrResponse"}},
                    "501": {"description": "Not Implemented", "schema": {"$ref": "#/definitions/rest.ErrResponse"}}
                }
            }
        }
    },
    "definitions": {
        "rest.ErrResponse": {
            "description": "error response",
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "details": {"type": "object", "additionalProperties": true},
                "error": {"type": "string"},
                "status": {"type": "string"},
                "validation": {"type": "array", "items": {"type": "string"}}
            }
        },
        "rest.NearestResponse": {
            "description": "nearest road vertices of a coordinate",
            "type": "object",
            "properties": {
                "vertices": {"type": "array", "items": {"$ref": "#/definitions/rest.NearestVertex"}}
            }
        },
        "rest.NearestVertex": {
            "type": "object",
            "properties": {
                "distance": {"type": "number"},
                "id": {"type": "integer"},
                "lat": {"type": "number"},
                "lon": {"type": "number"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5000",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "routingapi API",
	Description:      "road network routing engine: nearest vertex snapping and dijkstra shortest path over a pgRouting topology",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
