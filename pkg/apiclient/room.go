package apiclient

import (
	"context"
	"net/url"
	"roombook/pkg/model"
	"strconv"
)

type RoomClient struct {
	httpClient *HttpClient
}

func NewRoomClient(baseURL string, token string) *RoomClient {
	return &RoomClient{
		httpClient: NewHttpClient(baseURL, token),
	}
}

func (c *RoomClient) List(ctx context.Context, filter model.RoomFilter) ([]*model.Room, error) {
	q := url.Values{}
	if filter.Type != "" {
		q.Set("type", filter.Type)
	}
	if filter.Building != "" {
		q.Set("building", filter.Building)
	}
	if filter.Query != "" {
		q.Set("q", filter.Query)
	}
	if filter.IncludeInactive {
		q.Set("include_inactive", strconv.FormatBool(true))
	}

	path := "/api/v1/rooms"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}

	var rooms []*model.Room
	if err := decodeData(resp, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *RoomClient) GetByID(ctx context.Context, id string) (*model.Room, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/rooms/id/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	var room model.Room
	if err := decodeData(resp, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *RoomClient) Create(ctx context.Context, room *model.Room) (*model.Room, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/rooms", room)
	if err != nil {
		return nil, err
	}

	var created model.Room
	if err := decodeData(resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *RoomClient) SetActive(ctx context.Context, id string, active bool) (*model.Room, error) {
	action := "/deactivate"
	if active {
		action = "/activate"
	}

	resp, err := c.httpClient.POST(ctx, "/api/v1/rooms/id/"+url.PathEscape(id)+action, nil)
	if err != nil {
		return nil, err
	}

	var room model.Room
	if err := decodeData(resp, &room); err != nil {
		return nil, err
	}
	return &room, nil
}
