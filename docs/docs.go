// Package docs регистрирует OpenAPI-описание для /swagger.
// Перегенерировать: swag init -g cmd/server/main.go -o docs
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
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Вход в систему",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Регистрация",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Обновление токенов",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/projects": {
            "get": {"tags": ["Projects"], "summary": "Список проектов", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Projects"], "summary": "Создать проект", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/projects/{id}/report": {
            "get": {
                "tags": ["Projects"],
                "summary": "PDF-отчет по проекту",
                "produces": ["application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/tasks": {
            "get": {"tags": ["Tasks"], "summary": "Список задач", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Tasks"], "summary": "Создать задачу", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/tasks/{id}": {
            "patch": {
                "tags": ["Tasks"],
                "summary": "Обновить задачу",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "500": {"description": "Saved, side effects failed"}}
            }
        },
        "/tasks/{id}/attachments": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Прикрепить файл",
                "consumes": ["multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/documents/upload": {
            "post": {
                "tags": ["Documents"],
                "summary": "Загрузить документ",
                "consumes": ["multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "file", "name": "file", "in": "formData", "required": true},
                    {"type": "integer", "name": "projectId", "in": "formData"}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/analyses/{id}/share": {
            "post": {"tags": ["Analyses"], "summary": "Поделиться анализом", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/gamification/profile": {
            "get": {"tags": ["Gamification"], "summary": "Профиль геймификации", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/gamification/leaderboard": {
            "get": {
                "tags": ["Gamification"],
                "summary": "Лидерборд",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "string", "name": "period", "in": "query", "enum": ["all-time", "month", "week"]}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/users/me": {
            "patch": {"tags": ["Users"], "summary": "Обновить свой профиль", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/users/{id}/praise": {
            "post": {"tags": ["Users"], "summary": "Похвалить коллегу (+10 XP)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/team/members": {
            "post": {"tags": ["Team"], "summary": "Пригласить участника (Admin)", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/search": {
            "get": {
                "tags": ["Search"],
                "summary": "Глобальный поиск",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}}
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
	Title:            "Metrika API",
	Description:      "Проекты, задачи, спринты и геймификация.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
