package tracking

import (
	"context"
	"encoding/json"

	"tracker-parent/internal/gateway"
)

// fakeGateway records the last call and replies with a canned payload.
type fakeGateway struct {
	url     string
	headers map[string]string
	body    any
	reply   any
	err     error
	calls   int
}

func (f *fakeGateway) Get(ctx context.Context, url string, headers map[string]string, out any, _ ...gateway.Option) error {
	return f.Post(ctx, url, headers, nil, out)
}

func (f *fakeGateway) Post(_ context.Context, url string, headers map[string]string, body, out any, _ ...gateway.Option) error {
	f.calls++
	f.url, f.headers, f.body = url, headers, body
	if f.err != nil {
		return f.err
	}
	data, _ := json.Marshal(f.reply)
	return json.Unmarshal(data, out)
}

func (f *fakeGateway) Delete(ctx context.Context, url string, headers map[string]string, body, out any, _ ...gateway.Option) error {
	return f.Post(ctx, url, headers, body, out)
}

func strPtr(s string) *string { return &s }

var sampleDTOs = []LocationDTO{
	{ID: 1, UserName: "kid@example.com", Latitude: "-37.8136", Longitude: "144.9631", Speed: strPtr("1.5"), Direction: strPtr("90"), DateTimeOcurred: "2025-03-19T10:00:00.000Z", CreatedDateTime: "2025-03-19T10:00:05.000Z"},
	{ID: 2, UserName: "kid@example.com", Latitude: "-37.8140", Longitude: "144.9640", Speed: strPtr("-1"), Direction: strPtr("-1"), DateTimeOcurred: "2025-03-19T10:10:00.000Z", CreatedDateTime: "2025-03-19T10:10:05.000Z"},
	{ID: 5, UserName: "kid@example.com", Latitude: "-37.8200", Longitude: "144.9700", DateTimeOcurred: "2025-03-19T10:45:00.000Z", CreatedDateTime: "2025-03-19T10:45:05.000Z"},
}
