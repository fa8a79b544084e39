package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pressline/internal/learning"
	"pressline/internal/logging"
	"pressline/internal/orders"
	"pressline/internal/workflow"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summary, err := s.engine.Summary(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	byStage := make(map[string]int, len(stats))
	for stage, count := range stats {
		byStage[string(stage)] = count
	}
	s.writeJSON(w, http.StatusOK, statusPayload{
		Total:            summary.Total,
		Open:             summary.Open,
		Manufacturing:    summary.Manufacturing,
		AwaitingDispatch: summary.AwaitingDispatch,
		Done:             summary.Done,
		Stages:           byStage,
	})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.engine.Orders(r.Context())
		if err != nil {
			s.respondError(w, err)
			return
		}
		payload := make([]orderPayload, 0, len(list))
		for _, ord := range list {
			payload = append(payload, fromOrder(ord))
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"orders": payload})
	case http.MethodPost:
		var req struct {
			Customer     string    `json:"customer"`
			DeliveryDate time.Time `json:"delivery_date"`
		}
		if !s.decode(w, r, &req) {
			return
		}
		ord, err := s.engine.CreateOrder(r.Context(), req.Customer, req.DeliveryDate)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, fromOrder(ord))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	id, action := splitResourcePath(r.URL.Path, "/api/orders/")
	if id == "" {
		s.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		ord, err := s.engine.Order(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		lines, err := s.engine.LinesForOrder(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		completed, err := s.engine.OrderCompleted(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"order":     fromOrder(ord),
			"lines":     fromLines(lines),
			"completed": completed,
		})
	case action == "lines" && r.Method == http.MethodPost:
		var req struct {
			DeliveryDate time.Time `json:"delivery_date"`
			Substages    []string  `json:"substages"`
		}
		if !s.decode(w, r, &req) {
			return
		}
		var sequence []orders.Substage
		for _, name := range req.Substages {
			sequence = append(sequence, orders.Substage(strings.TrimSpace(name)))
		}
		line, err := s.engine.CreateLine(r.Context(), id, req.DeliveryDate, sequence)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, fromLine(line))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var stages []orders.Stage
	for _, value := range r.URL.Query()["stage"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		stage, ok := orders.ParseStage(trimmed)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown stage: "+trimmed)
			return
		}
		stages = append(stages, stage)
	}
	lines, err := s.engine.Lines(r.Context(), stages...)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"lines": fromLines(lines)})
}

func (s *Server) handleLine(w http.ResponseWriter, r *http.Request) {
	id, action := splitResourcePath(r.URL.Path, "/api/lines/")
	if id == "" {
		s.writeError(w, http.StatusNotFound, "line not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.handleLineQuery(w, r, id, action)
	case http.MethodPost:
		s.handleLineAction(w, r, id, action)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleLineQuery(w http.ResponseWriter, r *http.Request, id, action string) {
	switch action {
	case "":
		line, err := s.engine.Line(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, fromLine(line))
	case "score":
		_, report, err := s.engine.Score(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, report)
	case "prediction":
		probability, err := s.engine.PredictDelay(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, predictionPayload{Probability: probability})
	case "priority":
		tier, days, err := s.engine.LinePriority(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, fromPriority(tier, days))
	default:
		s.writeError(w, http.StatusNotFound, "unknown line resource")
	}
}

func (s *Server) handleLineAction(w http.ResponseWriter, r *http.Request, id, action string) {
	switch action {
	case "advance":
		line, err := s.engine.Advance(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, fromLine(line))
	case "jump":
		var req struct {
			Substage string `json:"substage"`
		}
		if !s.decode(w, r, &req) {
			return
		}
		line, err := s.engine.JumpToSubstage(r.Context(), id, orders.Substage(strings.TrimSpace(req.Substage)))
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, fromLine(line))
	case "complete":
		result, err := s.engine.CompleteSubstage(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, completePayload{
			Line:                 fromLine(result.Line),
			ConfirmationRequired: result.ConfirmationRequired,
		})
	case "confirm":
		var req struct {
			TrackingCode string `json:"tracking_code"`
		}
		if !s.decode(w, r, &req) {
			return
		}
		line, err := s.engine.ConfirmDispatch(r.Context(), id, req.TrackingCode)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, fromLine(line))
	case "assign":
		var req struct {
			Department string `json:"department"`
			AssigneeID string `json:"assignee_id"`
		}
		if !s.decode(w, r, &req) {
			return
		}
		line, err := s.applyAssignment(r, id, req.Department, req.AssigneeID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, fromLine(line))
	case "delay":
		var req struct {
			Category string `json:"category"`
			Note     string `json:"note"`
		}
		if !s.decode(w, r, &req) {
			return
		}
		line, err := s.engine.AddDelayReason(r.Context(), id, req.Category, req.Note)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, fromLine(line))
	default:
		s.writeError(w, http.StatusNotFound, "unknown line action")
	}
}

func (s *Server) applyAssignment(r *http.Request, id, department, assignee string) (*orders.Line, error) {
	line, err := s.engine.Line(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if department != "" {
		line, err = s.engine.AssignDepartment(r.Context(), id, orders.Department(strings.TrimSpace(department)))
		if err != nil {
			return nil, err
		}
	}
	if assignee != "" {
		line, err = s.engine.AssignUser(r.Context(), id, strings.TrimSpace(assignee))
		if err != nil {
			return nil, err
		}
	}
	return line, nil
}

func (s *Server) handleBaseline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	b, err := s.engine.Baseline(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	b, err := s.engine.RecomputeBaseline(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// respondError maps engine errors onto HTTP statuses. Transition rejections
// are client errors; revision races surface as conflicts so callers retry.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrStaleLine), errors.Is(err, learning.ErrRecomputeInProgress):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, workflow.ErrInvalidTransition):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("request failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorPayload{Error: message})
}

// splitResourcePath extracts the resource id and optional trailing action
// from paths like /api/lines/<id>/<action>.
func splitResourcePath(path, prefix string) (id, action string) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path {
		return "", ""
	}
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action
}
