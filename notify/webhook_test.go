package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"digital-menu/models"
)

func samplePayload() *models.OrderPayload {
	return &models.OrderPayload{
		RoomNumber: "4",
		OrderTotal: 450,
		Lines: []models.OrderLine{
			{ItemName: "Paneer Tikka", Quantity: 2, UnitPrice: 100, LineTotal: 200},
			{ItemName: "Butter Chicken", Quantity: 1, UnitPrice: 250, LineTotal: 250},
		},
	}
}

func TestWebhook_Deliver(t *testing.T) {
	var gotType string
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	hook := NewWebhook(srv.URL, time.Second)
	if err := hook.Deliver(context.Background(), samplePayload(), "ignored"); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if gotType != "text/plain;charset=utf-8" {
		t.Errorf("content type = %q", gotType)
	}
	if got["roomNumber"] != "4" || got["orderTotal"] != float64(450) {
		t.Errorf("body = %v", got)
	}
	lines, _ := got["lines"].([]interface{})
	if len(lines) != 2 {
		t.Fatalf("lines = %v", got["lines"])
	}
	first, _ := lines[0].(map[string]interface{})
	if first["itemName"] != "Paneer Tikka" || first["lineTotal"] != float64(200) {
		t.Errorf("first line = %v", first)
	}
}

func TestWebhook_DeliverErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := NewWebhook(srv.URL, 0).Deliver(context.Background(), samplePayload(), ""); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestWebhook_Name(t *testing.T) {
	if NewWebhook("http://x", 0).Name() != "webhook" {
		t.Error("unexpected sink name")
	}
}
