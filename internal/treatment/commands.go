package treatment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidInput is wrapped by every parse and validation failure.
var ErrInvalidInput = errors.New("invalid input")

// Override defaults, matching what Loop shows for a remotely started preset.
const (
	DefaultOverrideMinutes = 60
	DefaultOverrideDisplay = "A"
)

// BolusCommand requests an insulin bolus.
type BolusCommand struct {
	Units float64
	OTP   int
}

// CarbCommand requests a carb entry absorbed over AbsorptionHours.
type CarbCommand struct {
	Grams           int
	AbsorptionHours float64
	OTP             int
}

// OverrideCommand starts a named override preset.
type OverrideCommand struct {
	Name            string
	Display         string
	DurationMinutes int
}

// Validate checks the bolus amount.
func (c BolusCommand) Validate() error {
	if c.Units <= 0 {
		return fmt.Errorf("%w: bolus units must be positive, got %g", ErrInvalidInput, c.Units)
	}
	return nil
}

// Validate checks the carb amount and absorption time.
func (c CarbCommand) Validate() error {
	if c.Grams <= 0 {
		return fmt.Errorf("%w: carb grams must be positive, got %d", ErrInvalidInput, c.Grams)
	}
	if c.AbsorptionHours <= 0 {
		return fmt.Errorf("%w: absorption hours must be positive, got %g", ErrInvalidInput, c.AbsorptionHours)
	}
	return nil
}

// Validate checks the override name and duration.
func (c OverrideCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: override name is required", ErrInvalidInput)
	}
	if c.DurationMinutes <= 0 {
		return fmt.Errorf("%w: override duration must be positive, got %d", ErrInvalidInput, c.DurationMinutes)
	}
	return nil
}

// ParseBolus builds a bolus command from raw text fields.
func ParseBolus(units, otp string) (BolusCommand, error) {
	amount, err := parseFloat("bolus units", units)
	if err != nil {
		return BolusCommand{}, err
	}
	code, err := parseOTP(otp)
	if err != nil {
		return BolusCommand{}, err
	}
	cmd := BolusCommand{Units: amount, OTP: code}
	return cmd, cmd.Validate()
}

// ParseCarbs builds a carb command from raw text fields.
func ParseCarbs(grams, hours, otp string) (CarbCommand, error) {
	amount, err := parseInt("carb grams", grams)
	if err != nil {
		return CarbCommand{}, err
	}
	duration, err := parseFloat("absorption hours", hours)
	if err != nil {
		return CarbCommand{}, err
	}
	code, err := parseOTP(otp)
	if err != nil {
		return CarbCommand{}, err
	}
	cmd := CarbCommand{Grams: amount, AbsorptionHours: duration, OTP: code}
	return cmd, cmd.Validate()
}

// ParseOverride builds an override command. An empty minutes field uses
// DefaultOverrideMinutes.
func ParseOverride(name, minutes string) (OverrideCommand, error) {
	duration := DefaultOverrideMinutes
	if strings.TrimSpace(minutes) != "" {
		parsed, err := parseInt("override minutes", minutes)
		if err != nil {
			return OverrideCommand{}, err
		}
		duration = parsed
	}
	cmd := OverrideCommand{
		Name:            strings.TrimSpace(name),
		Display:         DefaultOverrideDisplay,
		DurationMinutes: duration,
	}
	return cmd, cmd.Validate()
}

func parseFloat(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidInput, field, raw)
	}
	return v, nil
}

func parseInt(field, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a whole number", ErrInvalidInput, field, raw)
	}
	return v, nil
}

func parseOTP(raw string) (int, error) {
	code, err := parseInt("otp", raw)
	if err != nil {
		return 0, err
	}
	if code < 0 {
		return 0, fmt.Errorf("%w: otp must not be negative", ErrInvalidInput)
	}
	return code, nil
}
