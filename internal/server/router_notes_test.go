package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MarcoPoloResearchLab/jotter/internal/auth"
	"github.com/MarcoPoloResearchLab/jotter/internal/notes"
	"github.com/MarcoPoloResearchLab/jotter/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type codedError struct {
	code string
	err  error
}

func (e codedError) Error() string { return e.code }
func (e codedError) Unwrap() error { return e.err }
func (e codedError) Code() string  { return e.code }

func newStubRouter(t *testing.T, authService stubAuthService, notesService stubNotesService) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler, err := NewHTTPHandler(Dependencies{
		Authenticator: stubAuthenticator{identity: auth.Identity{UserID: "user-1", Name: "Ada", Email: "ada@example.com"}},
		AuthService:   authService,
		NotesService:  notesService,
		Logger:        zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	return handler
}

func performRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, path, http.NoBody)
	} else {
		request = httptest.NewRequest(method, path, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Authorization", "Bearer token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestNoteErrorMapping(t *testing.T) {
	testCases := []struct {
		name            string
		method          string
		path            string
		body            string
		err             error
		expectedStatus  int
		expectedMessage string
		expectedCode    string
	}{
		{
			name:            "create validation",
			method:          http.MethodPost,
			path:            "/api/notes",
			body:            `{"title":"","description":"d"}`,
			err:             codedError{code: "notes.create.validation_failed", err: notes.ErrValidation},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Title and Description are required",
			expectedCode:    "notes.create.validation_failed",
		},
		{
			name:            "update invalid id",
			method:          http.MethodPut,
			path:            "/api/notes/not-a-uuid",
			body:            `{"title":"t","description":"d"}`,
			err:             codedError{code: "notes.update.invalid_id", err: notes.ErrInvalidNoteID},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid note id",
			expectedCode:    "notes.update.invalid_id",
		},
		{
			name:            "update not found",
			method:          http.MethodPut,
			path:            "/api/notes/018f0000-0000-7000-8000-000000000001",
			body:            `{"title":"t","description":"d"}`,
			err:             codedError{code: "notes.update.not_found", err: notes.ErrNoteNotFound},
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "Note not found",
			expectedCode:    "notes.update.not_found",
		},
		{
			name:            "delete not found",
			method:          http.MethodDelete,
			path:            "/api/notes/018f0000-0000-7000-8000-000000000001",
			err:             codedError{code: "notes.delete.not_found", err: notes.ErrNoteNotFound},
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "Note not found",
			expectedCode:    "notes.delete.not_found",
		},
		{
			name:            "list store failure",
			method:          http.MethodGet,
			path:            "/api/notes",
			err:             fmt.Errorf("disk full"),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Server Error",
			expectedCode:    "notes.list.failed",
		},
		{
			name:            "malformed body",
			method:          http.MethodPost,
			path:            "/api/notes",
			body:            `{"title":`,
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid request body",
			expectedCode:    "notes.create.invalid_request",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			router := newStubRouter(t, stubAuthService{}, stubNotesService{err: testCase.err})
			recorder := performRequest(router, testCase.method, testCase.path, testCase.body)
			if recorder.Code != testCase.expectedStatus {
				t.Fatalf("unexpected status: got %d, want %d (%s)", recorder.Code, testCase.expectedStatus, recorder.Body.String())
			}
			assertEnvelope(t, recorder, testCase.expectedMessage, testCase.expectedCode)
		})
	}
}

func TestAuthErrorMapping(t *testing.T) {
	testCases := []struct {
		name            string
		path            string
		body            string
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "duplicate email",
			path:            "/api/auth/register",
			body:            `{"name":"Ada","email":"ada@example.com","password":"pw"}`,
			err:             codedError{code: "users.register.duplicate_email", err: users.ErrDuplicateEmail},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "User already exists",
		},
		{
			name:            "register validation",
			path:            "/api/auth/register",
			body:            `{"name":"","email":"ada@example.com","password":"pw"}`,
			err:             codedError{code: "users.register.missing_name", err: users.ErrValidation},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Name, email and password are required",
		},
		{
			name:            "login rejected",
			path:            "/api/auth/login",
			body:            `{"email":"ada@example.com","password":"nope"}`,
			err:             codedError{code: "users.login.invalid_credentials", err: users.ErrInvalidCredentials},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid email or password",
		},
		{
			name:            "login store failure",
			path:            "/api/auth/login",
			body:            `{"email":"ada@example.com","password":"pw"}`,
			err:             codedError{code: "users.login.lookup_failed", err: fmt.Errorf("timeout")},
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Login failed, try again",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			router := newStubRouter(t, stubAuthService{err: testCase.err}, stubNotesService{})
			recorder := performRequest(router, http.MethodPost, testCase.path, testCase.body)
			if recorder.Code != testCase.expectedStatus {
				t.Fatalf("unexpected status: got %d, want %d", recorder.Code, testCase.expectedStatus)
			}
			assertEnvelope(t, recorder, testCase.expectedMessage, testCase.err.(codedError).code)
		})
	}
}

func TestListNotesReturnsEmptyArray(t *testing.T) {
	router := newStubRouter(t, stubAuthService{}, stubNotesService{notes: nil})
	recorder := performRequest(router, http.MethodGet, "/api/notes", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if string(body["notes"]) != "[]" {
		t.Fatalf("expected empty notes array, got %s", body["notes"])
	}
}

func TestNoteJSONOmitsOwner(t *testing.T) {
	note := notes.Note{NoteID: "018f0000-0000-7000-8000-000000000001", OwnerID: "user-1", Title: "t", Description: "d"}
	router := newStubRouter(t, stubAuthService{}, stubNotesService{note: note})
	recorder := performRequest(router, http.MethodPost, "/api/notes", `{"title":"t","description":"d"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "user-1") || strings.Contains(recorder.Body.String(), "owner") {
		t.Fatalf("note response leaked the owner: %s", recorder.Body.String())
	}
	var body noteResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !body.Success || body.Message != "Note Created Successfully" || body.Note.ID != note.NoteID {
		t.Fatalf("unexpected response %+v", body)
	}
}

func TestHealthz(t *testing.T) {
	router := newStubRouter(t, stubAuthService{}, stubNotesService{})
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", recorder.Body.String())
	}
}
