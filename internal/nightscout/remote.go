package nightscout

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jwulff/caregiver-go/internal/treatment"
)

// Loop remote notification event types.
const (
	EventRemoteBolus    = "Remote Bolus Entry"
	EventRemoteCarbs    = "Remote Carbs Entry"
	EventRemoteOverride = "Temporary Override"
)

// loopNotification is the body Loop expects on /api/v2/notifications/loop.
// Loop reads the numeric fields as strings.
type loopNotification struct {
	EventType        string `json:"eventType"`
	EnteredBy        string `json:"enteredBy"`
	RemoteBolus      string `json:"remoteBolus,omitempty"`
	RemoteCarbs      string `json:"remoteCarbs,omitempty"`
	RemoteAbsorption string `json:"remoteAbsorption,omitempty"`
	OTP              string `json:"otp,omitempty"`
	Reason           string `json:"reason,omitempty"`
	ReasonDisplay    string `json:"reasonDisplay,omitempty"`
	Duration         string `json:"duration,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// DeliverBolus asks Loop to deliver a bolus.
func (c *Client) DeliverBolus(ctx context.Context, amount float64, otp int) error {
	return c.SendBolus(ctx, treatment.BolusCommand{Units: amount, OTP: otp})
}

// DeliverCarbs asks Loop to record carbs absorbed over durationHours.
func (c *Client) DeliverCarbs(ctx context.Context, amount int, durationHours float64, otp int) error {
	return c.SendCarbs(ctx, treatment.CarbCommand{Grams: amount, AbsorptionHours: durationHours, OTP: otp})
}

// StartOverride asks Loop to start a named override preset.
func (c *Client) StartOverride(ctx context.Context, name string, durationMinutes int) error {
	return c.SendOverride(ctx, treatment.OverrideCommand{
		Name:            name,
		Display:         treatment.DefaultOverrideDisplay,
		DurationMinutes: durationMinutes,
	})
}

// SendBolus validates and sends a bolus command.
func (c *Client) SendBolus(ctx context.Context, cmd treatment.BolusCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return c.notify(ctx, loopNotification{
		EventType:   EventRemoteBolus,
		RemoteBolus: strconv.FormatFloat(cmd.Units, 'f', -1, 64),
		OTP:         formatOTP(cmd.OTP),
	})
}

// SendCarbs validates and sends a carb command.
func (c *Client) SendCarbs(ctx context.Context, cmd treatment.CarbCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return c.notify(ctx, loopNotification{
		EventType:        EventRemoteCarbs,
		RemoteCarbs:      strconv.Itoa(cmd.Grams),
		RemoteAbsorption: strconv.FormatFloat(cmd.AbsorptionHours, 'f', -1, 64),
		OTP:              formatOTP(cmd.OTP),
	})
}

// SendOverride validates and sends an override command.
func (c *Client) SendOverride(ctx context.Context, cmd treatment.OverrideCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	display := cmd.Display
	if display == "" {
		display = treatment.DefaultOverrideDisplay
	}
	return c.notify(ctx, loopNotification{
		EventType:     EventRemoteOverride,
		Reason:        cmd.Name,
		ReasonDisplay: display,
		Duration:      strconv.Itoa(cmd.DurationMinutes),
	})
}

// formatOTP renders a one-time code as the six digits Loop expects,
// restoring leading zeros lost when the code was parsed as an integer.
func formatOTP(otp int) string {
	return fmt.Sprintf("%06d", otp)
}

func (c *Client) notify(ctx context.Context, n loopNotification) error {
	n.EnteredBy = c.EnteredBy
	n.CreatedAt = c.now().UTC().Format("2006-01-02T15:04:05.000Z")

	if err := c.postJSON(ctx, NotificationsPath, n); err != nil {
		c.logger.Warn("Remote command failed", zap.String("event_type", n.EventType), zap.Error(err))
		return fmt.Errorf("failed to send %s: %w", n.EventType, err)
	}

	c.logger.Info("Remote command sent", zap.String("event_type", n.EventType))
	return nil
}
