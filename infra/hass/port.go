package hass

import (
	"context"

	"github.com/kilianp07/hems/core/dispatch"
	"github.com/kilianp07/hems/core/model"
)

// Port dispatches values through Home Assistant service calls.
type Port struct {
	client *Client
}

// NewPort returns a dispatch port backed by client.
func NewPort(client *Client) *Port { return &Port{client: client} }

// Send implements dispatch.Port. The batch token carried by ctx takes
// precedence over the configured one.
func (p *Port) Send(ctx context.Context, id model.DeviceID, value float64) error {
	token, _ := dispatch.TokenFromContext(ctx)
	cmd := dispatch.CommandFor(id, value)
	return p.client.CallService(ctx, token, string(id.Domain()), cmd.Service, cmd.Data)
}

// Ping checks that the hub answers with the configured token.
func (p *Port) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, "")
}
