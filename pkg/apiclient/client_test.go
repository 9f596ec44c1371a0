package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"roombook/pkg/model"
	"testing"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestBookingClient_CreateSendsTokenAndIdempotencyKey(t *testing.T) {
	var gotAuth, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("Idempotency-Key")
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/bookings" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"data": map[string]any{"id": "b1", "room_id": "r1", "status": "confirmed"},
		})
	}))
	defer server.Close()

	client := NewBookingClient(server.URL, "tok")
	booking, err := client.Create(context.Background(), &model.CreateBookingRequest{RoomID: "r1", Title: "Standup"}, "key-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if booking.ID != "b1" || booking.Status != "confirmed" {
		t.Errorf("unexpected booking %+v", booking)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotKey != "key-1" {
		t.Errorf("Idempotency-Key = %q", gotKey)
	}
}

func TestBookingClient_CreateConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "Booking conflicts with existing bookings",
			"code":  "CONFLICT",
			"details": map[string]any{
				"room_id": "r1",
				"conflicts": []map[string]any{
					{"id": "a", "title": "Lecture"},
					{"id": "b", "title": "Lab"},
				},
			},
		})
	}))
	defer server.Close()

	_, err := NewBookingClient(server.URL, "").Create(context.Background(), &model.CreateBookingRequest{}, "")

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(conflictErr.Conflicts) != 2 || conflictErr.Conflicts[0].ID != "a" {
		t.Errorf("unexpected conflicts %+v", conflictErr.Conflicts)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "CONFLICT" {
		t.Errorf("expected wrapped APIError with CONFLICT code, got %v", err)
	}
}

func TestBookingClient_CheckConflictsQuery(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("room_id") != "r1" || q.Get("start_time") != "2026-03-02T09:00:00Z" || q.Get("end_time") != "2026-03-02T10:00:00Z" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("exclude_id") != "x" {
			t.Errorf("exclude_id = %q", q.Get("exclude_id"))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{"room_id": "r1", "has_conflict": false, "conflicts": []any{}},
		})
	}))
	defer server.Close()

	check, err := NewBookingClient(server.URL, "").CheckConflicts(context.Background(), "r1", start, end, "x")
	if err != nil {
		t.Fatalf("CheckConflicts() error = %v", err)
	}
	if check.HasConflict || len(check.Conflicts) != 0 {
		t.Errorf("unexpected check %+v", check)
	}
}

func TestBookingClient_MinePagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filter") != "past" {
			t.Errorf("filter = %q", r.URL.Query().Get("filter"))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data":        []map[string]any{{"id": "b1"}},
			"total_count": 7,
			"limit":       1,
			"offset":      3,
		})
	}))
	defer server.Close()

	bookings, meta, err := NewBookingClient(server.URL, "").Mine(context.Background(), "past", 1, 3)
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}
	if len(bookings) != 1 || meta.TotalCount != 7 || meta.Offset != 3 {
		t.Errorf("unexpected result %v %+v", bookings, meta)
	}
}

func TestRoomClient_ErrorsDecodeAsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Room not found", "code": "NOT_FOUND"})
	}))
	defer server.Close()

	_, err := NewRoomClient(server.URL, "").GetByID(context.Background(), "missing")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "NOT_FOUND" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestRoomClient_ListQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "lab" || q.Get("q") != "projector" || q.Get("include_inactive") != "true" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": "r1", "name": "Lab A"}}})
	}))
	defer server.Close()

	rooms, err := NewRoomClient(server.URL, "").List(context.Background(), model.RoomFilter{Type: "lab", Query: "projector", IncludeInactive: true})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rooms) != 1 || rooms[0].Name != "Lab A" {
		t.Errorf("unexpected rooms %+v", rooms)
	}
}
