package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diwise/entity-manager/internal/pkg/infrastructure/storage"
	"github.com/diwise/entity-manager/pkg/backend"
	"github.com/go-chi/chi/v5"
	"github.com/matryer/is"
)

func TestCreateEntity(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	resp, body := testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(deviceJSON))

	is.Equal(resp.StatusCode, http.StatusCreated)
	is.Equal(resp.Header.Get("Location"), "/api/v1/devices/device-001")

	created := map[string]any{}
	is.NoErr(json.Unmarshal([]byte(body), &created))
	is.Equal(created["name"], "thermometer")
}

func TestCreateEntityWithWrongContentTypeReturnsUnsupportedMediaType(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	req, _ := http.NewRequest("POST", ts.URL+"/api/v1/devices", bytes.NewBufferString(deviceJSON))
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("Authorization", "Bearer sometoken")
	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err) // http request failed
	defer resp.Body.Close()

	is.Equal(resp.StatusCode, http.StatusUnsupportedMediaType)
}

func TestCreateEntityWithBadDataReturnsBadRequest(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	resp, _ := testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString("this is not my json"))

	is.Equal(resp.StatusCode, http.StatusBadRequest)
}

func TestCreateDuplicateEntityReturnsConflict(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	resp, _ := testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(deviceJSON))
	is.Equal(resp.StatusCode, http.StatusCreated)

	resp, _ = testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(deviceJSON))
	is.Equal(resp.StatusCode, http.StatusConflict)
}

func TestRequestWithoutTokenIsUnauthorized(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	req, _ := http.NewRequest("GET", ts.URL+"/api/v1/devices", nil)
	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err) // http request failed
	defer resp.Body.Close()

	is.Equal(resp.StatusCode, http.StatusUnauthorized)
}

func TestRetrieveEntity(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(deviceJSON))
	resp, body := testRequest(is, ts, "GET", "/api/v1/devices/device-001", nil)

	is.Equal(resp.StatusCode, http.StatusOK)

	record := map[string]any{}
	is.NoErr(json.Unmarshal([]byte(body), &record))
	is.Equal(record["id"], "device-001")
}

func TestRetrieveUnknownEntityReturnsNotFound(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	resp, _ := testRequest(is, ts, "GET", "/api/v1/devices/device-042", nil)

	is.Equal(resp.StatusCode, http.StatusNotFound)
	is.Equal(resp.Header.Get("Content-Type"), "application/problem+json")
}

func TestQueryEntities(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(deviceJSON))
	testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(`{"id":"device-002","name":"hygrometer"}`))

	resp, body := testRequest(is, ts, "GET", "/api/v1/devices", nil)

	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(resp.Header.Get(backend.ResultsCountHeaderName), "2")

	envelope := struct {
		Data []map[string]any `json:"data"`
	}{}
	is.NoErr(json.Unmarshal([]byte(body), &envelope))
	is.Equal(len(envelope.Data), 2)
}

func TestQueryEntitiesWithFilter(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(deviceJSON))
	testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(`{"id":"device-002","name":"hygrometer"}`))

	resp, body := testRequest(is, ts, "GET", "/api/v1/devices?name=hygrometer", nil)

	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(resp.Header.Get(backend.ResultsCountHeaderName), "1")

	envelope := struct {
		Data []map[string]any `json:"data"`
	}{}
	is.NoErr(json.Unmarshal([]byte(body), &envelope))
	is.Equal(envelope.Data[0]["id"], "device-002")
}

func TestQueryEntitiesWithCommaSeparatedAlternatives(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(deviceJSON))
	testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(`{"id":"device-002","name":"hygrometer"}`))
	testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(`{"id":"device-003","name":"barometer"}`))

	resp, _ := testRequest(is, ts, "GET", "/api/v1/devices?id=device-001%2Cdevice-003", nil)

	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(resp.Header.Get(backend.ResultsCountHeaderName), "2")
}

func TestUpdateEntity(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(deviceJSON))
	resp, body := testRequest(is, ts, "PATCH", "/api/v1/devices/device-001", bytes.NewBufferString(`{"name":"barometer"}`))

	is.Equal(resp.StatusCode, http.StatusOK)

	updated := map[string]any{}
	is.NoErr(json.Unmarshal([]byte(body), &updated))
	is.Equal(updated["name"], "barometer")
	is.Equal(updated["state"], "active") // untouched attributes survive a patch
}

func TestUpdateUnknownEntityReturnsNotFound(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	resp, _ := testRequest(is, ts, "PATCH", "/api/v1/devices/device-042", bytes.NewBufferString(`{"name":"barometer"}`))

	is.Equal(resp.StatusCode, http.StatusNotFound)
}

func TestDeleteEntity(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	testRequest(is, ts, "POST", "/api/v1/devices", bytes.NewBufferString(deviceJSON))

	resp, _ := testRequest(is, ts, "DELETE", "/api/v1/devices/device-001", nil)
	is.Equal(resp.StatusCode, http.StatusNoContent)

	resp, _ = testRequest(is, ts, "GET", "/api/v1/devices/device-001", nil)
	is.Equal(resp.StatusCode, http.StatusNotFound)
}

func TestDeleteUnknownEntityReturnsNotFound(t *testing.T) {
	is, ts := setupTest(t)
	defer ts.Close()

	resp, _ := testRequest(is, ts, "DELETE", "/api/v1/devices/device-042", nil)

	is.Equal(resp.StatusCode, http.StatusNotFound)
}

func testRequest(is *is.I, ts *httptest.Server, method, path string, body io.Reader) (*http.Response, string) {
	req, _ := http.NewRequest(method, ts.URL+path, body)
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer sometoken")

	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err) // http request failed
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	is.NoErr(err) // failed to read response body

	return resp, string(respBody)
}

func setupTest(t *testing.T) (*is.I, *httptest.Server) {
	is := is.New(t)
	r := chi.NewRouter()
	ts := httptest.NewServer(r)

	store := storage.NewMemoryStorage([]storage.Resource{
		{Name: "devices", Key: "id"},
	})

	err := RegisterHandlers(t.Context(), r, bytes.NewBufferString(opaModule), store)
	is.NoErr(err) // failed to register handlers

	return is, ts
}

const opaModule string = `
package example.authz

default allow := false

allow = response {
    input.token != ""
    response := {
        "token": input.token,
    }
}
`

const deviceJSON string = `{"id":"device-001","name":"thermometer","state":"active"}`
