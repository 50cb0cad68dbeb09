package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jwulff/caregiver-go/internal/nightscout"
	"github.com/jwulff/caregiver-go/internal/storage"
	"github.com/jwulff/caregiver-go/internal/treatment"
)

// Command kinds recorded in the audit log.
const (
	KindBolus    = "bolus"
	KindCarbs    = "carbs"
	KindOverride = "override"
)

// field is a form value sent either as a JSON string or a JSON number.
type field string

func (f *field) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = field(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = field(n.String())
	return nil
}

type bolusRequest struct {
	Units field `json:"units"`
	OTP   field `json:"otp"`
}

type carbsRequest struct {
	Grams field `json:"grams"`
	Hours field `json:"hours"`
	OTP   field `json:"otp"`
}

type overrideRequest struct {
	Name    string `json:"name"`
	Minutes field  `json:"minutes"`
}

func newCommandID() string {
	return uuid.NewString()
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", treatment.ErrInvalidInput, err)
	}
	return nil
}

func (s *Server) postBolus(w http.ResponseWriter, r *http.Request) {
	var req bolusRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cmd, err := treatment.ParseBolus(string(req.Units), string(req.OTP))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail := fmt.Sprintf("%g U", cmd.Units)
	s.execute(w, r, KindBolus, detail, func(ctx context.Context) error {
		return s.commander.DeliverBolus(ctx, cmd.Units, cmd.OTP)
	})
}

func (s *Server) postCarbs(w http.ResponseWriter, r *http.Request) {
	var req carbsRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cmd, err := treatment.ParseCarbs(string(req.Grams), string(req.Hours), string(req.OTP))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail := fmt.Sprintf("%d G over %g h", cmd.Grams, cmd.AbsorptionHours)
	s.execute(w, r, KindCarbs, detail, func(ctx context.Context) error {
		return s.commander.DeliverCarbs(ctx, cmd.Grams, cmd.AbsorptionHours, cmd.OTP)
	})
}

func (s *Server) postOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cmd, err := treatment.ParseOverride(req.Name, string(req.Minutes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	overrides, err := s.commander.FetchOverrides(r.Context())
	if err != nil {
		s.logger.Error("Failed to fetch overrides", zap.Error(err))
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	preset, ok := overrides.FindPreset(cmd.Name)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown override preset %q", cmd.Name))
		return
	}
	if strings.TrimSpace(string(req.Minutes)) == "" {
		cmd.DurationMinutes = preset.DurationMinutes(treatment.DefaultOverrideMinutes)
	}

	detail := fmt.Sprintf("%s for %d min", cmd.Name, cmd.DurationMinutes)
	s.execute(w, r, KindOverride, detail, func(ctx context.Context) error {
		return s.commander.StartOverride(ctx, cmd.Name, cmd.DurationMinutes)
	})
}

// execute sends a command, records it in the audit log and writes the result.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, kind, detail string, send func(ctx context.Context) error) {
	id := s.newID()
	err := send(r.Context())
	s.metrics.ObserveCommand(kind, err)

	rec := storage.NewCommandRecord(id, kind, detail, err)
	if s.store != nil {
		if serr := s.store.RecordCommand(r.Context(), rec); serr != nil {
			s.logger.Error("Failed to record command", zap.String("id", id), zap.Error(serr))
		}
	}

	if err != nil {
		s.logger.Error("Remote command failed",
			zap.String("id", id),
			zap.String("kind", kind),
			zap.Error(err))
		s.writeError(w, commandErrorStatus(err), err.Error())
		return
	}

	s.logger.Info("Remote command sent",
		zap.String("id", id),
		zap.String("kind", kind),
		zap.String("detail", detail))
	s.writeJSON(w, http.StatusAccepted, newCommandResponse(rec))
}

func commandErrorStatus(err error) int {
	var statusErr *nightscout.StatusError
	switch {
	case errors.Is(err, treatment.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.As(err, &statusErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
