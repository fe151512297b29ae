package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oaib/exam-backend/internal/model"
)

func bindBody(t *testing.T, body string, dst interface{}) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestBindUsesJSONFieldNames(t *testing.T) {
	var req model.CreateEditionRequest
	fields := bindBody(t, `{"year": 1990}`, &req)
	if fields == nil {
		t.Fatal("expected validation errors")
	}
	if _, ok := fields["year"]; !ok {
		t.Errorf("missing 'year' in %v", fields)
	}
	if _, ok := fields["title"]; !ok {
		t.Errorf("missing 'title' in %v", fields)
	}
}

func TestBindNestedOptionPath(t *testing.T) {
	var req model.CreateQuestionRequest
	fields := bindBody(t, `{"text":"Q","options":[{"text":"a","is_correct":true},{"text":""}]}`, &req)
	if _, ok := fields["options[1].text"]; !ok {
		t.Errorf("expected options[1].text error, got %v", fields)
	}
}

func TestBindMalformedJSON(t *testing.T) {
	var req model.CreateCategoryRequest
	fields := bindBody(t, `{"name":`, &req)
	if _, ok := fields["detail"]; !ok {
		t.Errorf("expected detail entry, got %v", fields)
	}
}

func TestBindValid(t *testing.T) {
	var req model.CreateCategoryRequest
	if fields := bindBody(t, `{"name":"Vision"}`, &req); fields != nil {
		t.Fatalf("unexpected errors: %v", fields)
	}
	if req.Name != "Vision" {
		t.Errorf("Name = %q", req.Name)
	}
}
