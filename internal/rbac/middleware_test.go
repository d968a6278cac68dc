package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedDecision struct {
	module  string
	action  string
	allowed bool
}

type fakeRecorder struct {
	decisions []recordedDecision
}

func (f *fakeRecorder) AuthzDecision(module, action string, allowed bool) {
	f.decisions = append(f.decisions, recordedDecision{module, action, allowed})
}

func TestRequireUnauthenticated(t *testing.T) {
	repo := newFakeRepo()
	mw := Middleware{Resolver: newTestResolver(repo)}

	handler := mw.Require(ModuleTickets, ActionView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tickets", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "authentication required")
}

func TestRequireForbidden(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	seedUsuario(t, repo, 7)
	recorder := &fakeRecorder{}
	mw := Middleware{Resolver: newTestResolver(repo), Metrics: recorder}

	handler := mw.Require(ModuleEquipment, ActionDelete)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/equipment/1", nil)
	req = req.WithContext(ContextWithActor(req.Context(), Actor{ID: 7, Role: "usuario", IsActive: true}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "insufficient permission for equipment:delete")
	require.Equal(t, []recordedDecision{{"equipment", "delete", false}}, recorder.decisions)
}

func TestRequireAllowed(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	seedUsuario(t, repo, 7)
	recorder := &fakeRecorder{}
	mw := Middleware{Resolver: newTestResolver(repo), Metrics: recorder}

	called := false
	handler := mw.Require(ModuleTickets, ActionView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	req = req.WithContext(ContextWithActor(req.Context(), Actor{ID: 7, Role: "usuario", IsActive: true}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []recordedDecision{{"tickets", "view", true}}, recorder.decisions)
}
