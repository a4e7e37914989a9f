package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flowsight-systems/flowsight-stack/common/httputil"
	"github.com/flowsight-systems/flowsight-stack/push/internal/blob"
	"github.com/flowsight-systems/flowsight-stack/push/internal/models"
	"github.com/flowsight-systems/flowsight-stack/push/internal/service"
)

// brokenStore fails every Put.
type brokenStore struct {
	blob.Store
}

func (s *brokenStore) Put(context.Context, string, []byte, string) error {
	return errors.New("connection refused")
}

// denyLimiter rejects every request.
type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, error) { return false, nil }
func (denyLimiter) Close() error                                { return nil }

// errorLimiter fails every check; the handler must fail open.
type errorLimiter struct{}

func (errorLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}
func (errorLimiter) Close() error { return nil }

func newTestHandler(store blob.Store) (*PushHandler, *service.PushService) {
	svc := service.NewPushService(store, nil, nil, nil)
	return NewPushHandler(svc, nil, 1<<20, nil), svc
}

func decodeError(t *testing.T, body *bytes.Buffer) httputil.ErrorResponse {
	t.Helper()
	var resp httputil.ErrorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp
}

func TestHandlePush_StoresValidJSON(t *testing.T) {
	store := blob.NewMemoryStore()
	handler, _ := newTestHandler(store)

	body := `{"deviceNo":"D1","totalFlow":"123.4"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/push", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.HandlePush(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp models.PushResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.OK {
		t.Error("Expected ok=true")
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 stored record, got %d", store.Len())
	}
}

func TestHandlePush_InvalidJSON(t *testing.T) {
	store := blob.NewMemoryStore()
	handler, _ := newTestHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/push", strings.NewReader("deviceNo=D1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	handler.HandlePush(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
	resp := decodeError(t, rr.Body)
	if resp.Error != "Invalid JSON" {
		t.Errorf("Expected 'Invalid JSON', got %q", resp.Error)
	}
	if store.Len() != 0 {
		t.Errorf("Nothing should be stored on a strict reject, got %d objects", store.Len())
	}
}

func TestHandlePush_MethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(blob.NewMemoryStore())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/v1/push", nil)
		rr := httptest.NewRecorder()
		handler.HandlePush(rr, req)

		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected status 405, got %d", method, rr.Code)
		}
		resp := decodeError(t, rr.Body)
		if resp.Error != "Method not allowed" {
			t.Errorf("%s: expected 'Method not allowed', got %q", method, resp.Error)
		}
	}
}

func TestHandlePush_StoreFailure(t *testing.T) {
	handler, _ := newTestHandler(&brokenStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/push", strings.NewReader(`{"deviceNo":"D1"}`))
	rr := httptest.NewRecorder()
	handler.HandlePush(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rr.Code)
	}
	resp := decodeError(t, rr.Body)
	if resp.Error != "Blob store unavailable" {
		t.Errorf("Expected 'Blob store unavailable', got %q", resp.Error)
	}
	if !strings.Contains(resp.Detail, "connection refused") {
		t.Errorf("Expected failure detail, got %q", resp.Detail)
	}
}

func TestHandlePush_RateLimited(t *testing.T) {
	store := blob.NewMemoryStore()
	svc := service.NewPushService(store, nil, nil, nil)
	handler := NewPushHandler(svc, denyLimiter{}, 1<<20, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/push", strings.NewReader(`{"deviceNo":"D1"}`))
	rr := httptest.NewRecorder()
	handler.HandlePush(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429, got %d", rr.Code)
	}
	resp := decodeError(t, rr.Body)
	if resp.Error != "Rate limit exceeded" {
		t.Errorf("Expected 'Rate limit exceeded', got %q", resp.Error)
	}
	if store.Len() != 0 {
		t.Errorf("Nothing should be stored when rate limited, got %d objects", store.Len())
	}
}

func TestHandlePush_LimiterFailureFailsOpen(t *testing.T) {
	store := blob.NewMemoryStore()
	svc := service.NewPushService(store, nil, nil, nil)
	handler := NewPushHandler(svc, errorLimiter{}, 1<<20, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/push", strings.NewReader(`{"deviceNo":"D1"}`))
	rr := httptest.NewRecorder()
	handler.HandlePush(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected limiter failure to fail open, got %d", rr.Code)
	}
	if store.Len() != 1 {
		t.Errorf("Expected record stored, got %d objects", store.Len())
	}
}

func TestHandlePushRaw_FormBody(t *testing.T) {
	store := blob.NewMemoryStore()
	handler, svc := newTestHandler(store)

	body := "deviceNo=D1&totalFlow=123.4"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/push/raw", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	handler.HandlePushRaw(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	list, err := svc.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if list.Count != 1 {
		t.Fatalf("Expected 1 record, got %d", list.Count)
	}
	record := list.Items[0].(map[string]any)
	payload := record["payload"].(map[string]any)
	if payload["deviceNo"] != "D1" || payload["totalFlow"] != "123.4" {
		t.Errorf("Unexpected payload: %v", payload)
	}
}

func TestHandlePushRaw_GarbageBodyStoredRawWrapped(t *testing.T) {
	store := blob.NewMemoryStore()
	handler, svc := newTestHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/push/raw", strings.NewReader("!!! not parseable !!!"))
	req.Header.Set("Content-Type", "application/octet-stream")

	rr := httptest.NewRecorder()
	handler.HandlePushRaw(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("The tolerant endpoint must absorb any body, got %d", rr.Code)
	}

	list, _ := svc.ListRecords(context.Background())
	record := list.Items[0].(map[string]any)
	payload := record["payload"].(map[string]any)
	if payload["raw"] != "!!! not parseable !!!" {
		t.Errorf("Expected raw-wrapped payload, got %v", payload)
	}
}

func TestHandlePushRaw_MethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(blob.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/push/raw", nil)
	rr := httptest.NewRecorder()
	handler.HandlePushRaw(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}

func TestHandleRecords(t *testing.T) {
	store := blob.NewMemoryStore()
	handler, _ := newTestHandler(store)

	push := httptest.NewRequest(http.MethodPost, "/api/v1/push", strings.NewReader(`{"deviceNo":"D1"}`))
	handler.HandlePush(httptest.NewRecorder(), push)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	rr := httptest.NewRecorder()
	handler.HandleRecords(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var list models.RecordList
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if list.Count != 1 {
		t.Errorf("Expected 1 record, got %d", list.Count)
	}
}

func TestHandleRecords_MethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(blob.NewMemoryStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", nil)
	rr := httptest.NewRecorder()
	handler.HandleRecords(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	handler, _ := newTestHandler(blob.NewMemoryStore())

	rr := httptest.NewRecorder()
	handler.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Expected /health 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Expected /ready 200, got %d", rr.Code)
	}

	var ready map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&ready); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if ready["status"] != "ready" {
		t.Errorf("Expected status ready, got %v", ready["status"])
	}
	if _, ok := ready["stats"]; !ok {
		t.Error("Expected stats in readiness response")
	}
}

func TestHandlePush_BodyTooLarge(t *testing.T) {
	store := blob.NewMemoryStore()
	svc := service.NewPushService(store, nil, nil, nil)
	handler := NewPushHandler(svc, nil, 16, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/push",
		strings.NewReader(`{"deviceNo":"D1","padding":"xxxxxxxxxxxxxxxxxxxxxxxx"}`))
	rr := httptest.NewRecorder()
	handler.HandlePush(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for oversized body, got %d", rr.Code)
	}
	if store.Len() != 0 {
		t.Errorf("Nothing should be stored, got %d objects", store.Len())
	}
}
