package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"confcentral/internal/delivery/http/middleware"
	"confcentral/internal/domain"
	"confcentral/internal/services"
	"confcentral/internal/store/memory"
)

type noopQueue struct{}

func (noopQueue) Enqueue(context.Context, string, []byte) error { return nil }

type noopCache struct{}

func (noopCache) Get(string) ([]byte, bool) { return nil, false }
func (noopCache) Set(string, []byte)        {}
func (noopCache) Delete(string)             {}

func testController(t *testing.T) (*memory.Store, *ConferenceController) {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.DiscardHandler)
	return store, NewConferenceController(
		logger,
		services.NewConferenceService(store, noopCache{}, noopQueue{}, logger),
		services.NewRegistrationService(store, logger),
	)
}

func asProfile(prof *domain.Profile, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next(w, r.WithContext(middleware.SetProfile(r.Context(), prof)))
	}
}

func seedTestConference(t *testing.T, store *memory.Store, seats int) *domain.Conference {
	t.Helper()
	conf := &domain.Conference{
		Key:             domain.ChildKey(domain.NewKey(domain.KindProfile, "org@example.com"), domain.KindConference, "c1"),
		Name:            "GopherCon",
		OrganizerUserID: "org@example.com",
		City:            "Berlin",
		MaxAttendees:    50,
		SeatsAvailable:  seats,
	}
	require.NoError(t, store.Put(context.Background(), conf))
	return conf
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) (json.RawMessage, *struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}) {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	return envelope.Data, envelope.Error
}

func TestRegisterEndpoint(t *testing.T) {
	store, ctrl := testController(t)
	conf := seedTestConference(t, store, 2)
	prof := domain.NewProfile("user@example.com", "Test User")
	require.NoError(t, store.Put(context.Background(), prof))

	handler := asProfile(prof, ctrl.Register)

	req := httptest.NewRequest(http.MethodPost, "/conferences/"+conf.Key.Websafe()+"/registration", nil)
	req.SetPathValue("websafeConferenceKey", conf.Key.Websafe())
	rr := httptest.NewRecorder()
	handler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data, apiErr := decodeEnvelope(t, rr)
	require.Nil(t, apiErr)
	var result RegistrationResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.True(t, result.Success)

	// A second registration is a conflict.
	req = httptest.NewRequest(http.MethodPost, "/conferences/"+conf.Key.Websafe()+"/registration", nil)
	req.SetPathValue("websafeConferenceKey", conf.Key.Websafe())
	rr = httptest.NewRecorder()
	handler(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	_, apiErr = decodeEnvelope(t, rr)
	require.NotNil(t, apiErr)
	require.Equal(t, "conflict", apiErr.Code)
}

func TestRegisterEndpointConferenceNotFound(t *testing.T) {
	store, ctrl := testController(t)
	prof := domain.NewProfile("user@example.com", "Test User")
	require.NoError(t, store.Put(context.Background(), prof))

	missing := domain.ChildKey(domain.NewKey(domain.KindProfile, "x"), domain.KindConference, "nope").Websafe()
	req := httptest.NewRequest(http.MethodPost, "/conferences/"+missing+"/registration", nil)
	req.SetPathValue("websafeConferenceKey", missing)
	rr := httptest.NewRecorder()
	asProfile(prof, ctrl.Register)(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestQueryEndpointInvalidFilter(t *testing.T) {
	_, ctrl := testController(t)

	body := `{"filters":[{"field":"city","operator":">","value":"Berlin"}]}`
	req := httptest.NewRequest(http.MethodPost, "/conferences/query", strings.NewReader(body))
	rr := httptest.NewRecorder()
	ctrl.QueryConferences(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	_, apiErr := decodeEnvelope(t, rr)
	require.NotNil(t, apiErr)
	require.Equal(t, "bad_request", apiErr.Code)
}

func TestQueryEndpoint(t *testing.T) {
	store, ctrl := testController(t)
	seedTestConference(t, store, 10)

	body := `{"filters":[{"field":"city","operator":"=","value":"Berlin"}]}`
	req := httptest.NewRequest(http.MethodPost, "/conferences/query", strings.NewReader(body))
	rr := httptest.NewRecorder()
	ctrl.QueryConferences(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data, apiErr := decodeEnvelope(t, rr)
	require.Nil(t, apiErr)
	var views []ConferenceView
	require.NoError(t, json.Unmarshal(data, &views))
	require.Len(t, views, 1)
	require.Equal(t, "GopherCon", views[0].Name)
}

func TestCreateConferenceEndpointRejectsUnknownFields(t *testing.T) {
	store, ctrl := testController(t)
	prof := domain.NewProfile("org@example.com", "Orga Nizer")
	require.NoError(t, store.Put(context.Background(), prof))

	body := `{"name":"GopherCon","bogus":true}`
	req := httptest.NewRequest(http.MethodPost, "/conferences", strings.NewReader(body))
	rr := httptest.NewRecorder()
	asProfile(prof, ctrl.CreateConference)(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}
