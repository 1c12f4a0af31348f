// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init` after changing handler annotations.
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
        "/lora": {
            "post": {
                "description": "Validates the sample, stamps it with the server time and stores it.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lora"],
                "summary": "Submit a LoRa power sample",
                "parameters": [
                    {
                        "description": "Sample reported by the device",
                        "name": "data",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/domain.IngestRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "message: Data stored successfully, key: insertion key, data: stored sample",
                        "schema": {"type": "object", "additionalProperties": true}
                    },
                    "400": {
                        "description": "error: Invalid data format. Missing one or more required fields.",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    },
                    "500": {
                        "description": "error: Failed to store data",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/lora/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["lora"],
                "summary": "Get device history",
                "parameters": [
                    {"type": "string", "description": "Device ID", "name": "deviceId", "in": "query", "required": true},
                    {"type": "number", "default": 24, "description": "Window length in hours", "name": "hours", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Sample"}}
                    },
                    "400": {
                        "description": "error: deviceId is required",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    },
                    "500": {
                        "description": "error: Failed to retrieve data",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/lora/latest": {
            "get": {
                "produces": ["application/json"],
                "tags": ["lora"],
                "summary": "Get the latest sample",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/domain.Sample"}
                    },
                    "404": {
                        "description": "error: No data found",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    },
                    "500": {
                        "description": "error: Failed to retrieve data",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/lora/summary": {
            "get": {
                "description": "Energy consumed plus min/max/avg of voltage, current and power.",
                "produces": ["application/json"],
                "tags": ["lora"],
                "summary": "Get device summary",
                "parameters": [
                    {"type": "string", "description": "Device ID", "name": "deviceId", "in": "query", "required": true},
                    {"type": "number", "default": 24, "description": "Window length in hours", "name": "hours", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/domain.Summary"}
                    },
                    "400": {
                        "description": "error: deviceId is required",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    },
                    "500": {
                        "description": "error: Failed to retrieve data",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        }
    },
    "definitions": {
        "domain.IngestRequest": {
            "type": "object",
            "properties": {
                "deviceId": {},
                "timestamp": {},
                "voltage": {},
                "current": {},
                "power": {},
                "energy": {},
                "rssi": {}
            }
        },
        "domain.MetricStats": {
            "type": "object",
            "properties": {
                "min": {"type": "number"},
                "max": {"type": "number"},
                "avg": {"type": "number"}
            }
        },
        "domain.Sample": {
            "type": "object",
            "properties": {
                "deviceId": {"type": "string"},
                "timestamp_mcu": {},
                "voltage": {},
                "current": {},
                "power": {},
                "energy": {},
                "rssi": {},
                "timestamp_server": {"type": "string"}
            }
        },
        "domain.Summary": {
            "type": "object",
            "properties": {
                "deviceId": {"type": "string"},
                "periodHours": {"type": "number"},
                "totalEnergyWh": {"type": "number"},
                "voltage": {"$ref": "#/definitions/domain.MetricStats"},
                "current": {"$ref": "#/definitions/domain.MetricStats"},
                "power": {"$ref": "#/definitions/domain.MetricStats"},
                "dataPoints": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Power Telemetry API",
	Description:      "Ingestion and time-window aggregation of LoRa power monitor samples.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
