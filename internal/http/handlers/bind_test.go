package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/geocoder89/todohub/internal/http/middlewares"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindRouter() *gin.Engine {
	r := gin.New()
	r.Use(middlewares.MaxBodyBytes(512))
	r.POST("/tasks", func(ctx *gin.Context) {
		var req handlers.CreateTaskRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindRouter()

	body := `{"title":"` + strings.Repeat("x", 201) + `"}`
	w := doJSON(r, http.MethodPost, "/tasks", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	decodeInto(t, w.Body.Bytes(), &resp)

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}
	if len(resp.Error.Details.Fields) != 1 {
		t.Fatalf("want one field error, got %+v", resp.Error.Details.Fields)
	}

	fieldErr := resp.Error.Details.Fields[0]
	if fieldErr.Field != "title" || fieldErr.Rule != "max" || fieldErr.Message == "" {
		t.Fatalf("unexpected field error %+v", fieldErr)
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindRouter()

	w := doJSON(r, http.MethodPost, "/tasks", `{"title":"Buy milk","priority":3}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	decodeInto(t, w.Body.Bytes(), &resp)

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "priority" {
		t.Fatalf("expected detail field to be priority, got %q", resp.Error.Details.Field)
	}
}

func TestBindJSON_SyntaxAndEmpty(t *testing.T) {
	r := bindRouter()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "broken json", body: `{"title":`, want: "invalid_json_syntax"},
		{name: "empty body", body: "", want: "empty_body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/tasks", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("got %d body=%s", w.Code, w.Body.String())
			}

			var resp bindErrorResponse
			decodeInto(t, w.Body.Bytes(), &resp)
			if resp.Error.Details.JSON != tt.want {
				t.Fatalf("details.json = %q, want %q", resp.Error.Details.JSON, tt.want)
			}
		})
	}
}

func TestBindJSON_BodyTooLarge(t *testing.T) {
	r := bindRouter()

	w := doJSON(r, http.MethodPost, "/tasks", `{"description":"`+strings.Repeat("x", 1024)+`"}`)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
	if env := decodeError(t, w); env.Error.Code != "body_too_large" {
		t.Fatalf("code = %q", env.Error.Code)
	}
}
