package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"roombook/pkg/model"
	"time"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseURL string, token string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseURL, token),
	}
}

type ConflictCheck struct {
	RoomID      string           `json:"room_id"`
	StartTime   string           `json:"start_time"`
	EndTime     string           `json:"end_time"`
	HasConflict bool             `json:"has_conflict"`
	Conflicts   []*model.Booking `json:"conflicts"`
}

// ConflictError is returned by Create when the service rejects the booking
// because confirmed bookings overlap the requested range.
type ConflictError struct {
	*APIError
	Conflicts []*model.Booking
}

func (e *ConflictError) Unwrap() error {
	return e.APIError
}

func (c *BookingClient) CheckConflicts(ctx context.Context, roomID string, start, end time.Time, excludeID string) (*ConflictCheck, error) {
	q := url.Values{}
	q.Set("room_id", roomID)
	q.Set("start_time", start.Format(time.RFC3339))
	q.Set("end_time", end.Format(time.RFC3339))
	if excludeID != "" {
		q.Set("exclude_id", excludeID)
	}

	resp, err := c.httpClient.GET(ctx, "/api/v1/bookings/conflicts?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var check ConflictCheck
	if err := decodeData(resp, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// Create commits a booking. idempotencyKey is optional; retries with the same
// key replay the first successful response.
func (c *BookingClient) Create(ctx context.Context, req *model.CreateBookingRequest, idempotencyKey string) (*model.Booking, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}

	resp, err := c.httpClient.POSTWithHeaders(ctx, "/api/v1/bookings", req, headers)
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, asConflictError(err)
	}
	return &booking, nil
}

func (c *BookingClient) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/cancel", nil)
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) Mine(ctx context.Context, filter string, limit int, offset int64) ([]*model.Booking, *Metadata, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	resp, err := c.httpClient.GET(ctx, "/api/v1/bookings/mine?"+q.Encode())
	if err != nil {
		return nil, nil, err
	}

	var bookings []*model.Booking
	metadata, err := decodePaginated(resp, &bookings)
	if err != nil {
		return nil, nil, err
	}
	return bookings, metadata, nil
}

func (c *BookingClient) Schedule(ctx context.Context, roomID string, date string, tz string) (*model.DailySchedule, error) {
	q := url.Values{}
	if roomID != "" {
		q.Set("room_id", roomID)
	}
	if date != "" {
		q.Set("date", date)
	}
	if tz != "" {
		q.Set("tz", tz)
	}

	resp, err := c.httpClient.GET(ctx, "/api/v1/schedule?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var schedule model.DailySchedule
	if err := decodeData(resp, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func asConflictError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		return err
	}

	conflictErr := &ConflictError{APIError: apiErr}
	if raw, ok := apiErr.Details["conflicts"]; ok {
		_ = json.Unmarshal(raw, &conflictErr.Conflicts)
	}
	return conflictErr
}
