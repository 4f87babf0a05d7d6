package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/espacohidro/pontocerto/internal/application/command"
	"github.com/espacohidro/pontocerto/internal/application/query"
	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/espacohidro/pontocerto/internal/interface/http/handlers"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSONError(w, r, http.StatusServiceUnavailable, "not_ready", status.Message)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": s.Uptime().Round(time.Second).String(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// STAFF HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type loginRequest struct {
	Identifier string `json:"identifier"`
	Credential string `json:"credential"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.deps.Authenticate.Handle(r.Context(), query.AuthenticateQuery{
		Identifier: req.Identifier,
		Credential: req.Credential,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user.Public())
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.ListUsers(r.Context(), actor(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	meta := newMeta(r)
	meta.TotalCount = len(users)
	writeJSONWithMeta(w, r, http.StatusOK, users, meta)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.deps.Users.GetUser(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

type userRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Position string `json:"position"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.deps.CreateUser.Handle(r.Context(), command.CreateUserCommand{
		ActorID: actor(r),
		Input: staff.NewUserInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     req.Role,
			Position: req.Position,
		},
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, user.Public())
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.deps.UpdateUser.Handle(r.Context(), command.UpdateUserCommand{
		ActorID:  actor(r),
		ID:       r.PathValue("id"),
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Position: req.Position,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user.Public())
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	err := s.deps.DeleteUser.Handle(r.Context(), command.DeleteUserCommand{
		ActorID: actor(r),
		ID:      r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImportRoster(w http.ResponseWriter, r *http.Request) {
	up, err := handlers.ReadUpload(r, "roster.xlsx")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	rows, err := s.deps.RosterReader(bytes.NewReader(up.Data), up.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	res, err := s.deps.ImportRoster.Handle(r.Context(), command.ImportRosterCommand{
		ActorID: actor(r),
		Rows:    rows,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	for i := range res.Created {
		res.Created[i] = res.Created[i].Public()
	}
	writeJSON(w, r, http.StatusOK, res)
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.deps.Attendance.GetPunchStatus(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	q, ok := s.logsQuery(w, r)
	if !ok {
		return
	}
	logs, err := s.deps.Attendance.ListLogs(r.Context(), q)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	meta := newMeta(r)
	meta.TotalCount = len(logs)
	writeJSONWithMeta(w, r, http.StatusOK, logs, meta)
}

func (s *Server) handleGetHours(w http.ResponseWriter, r *http.Request) {
	q, ok := s.logsQuery(w, r)
	if !ok {
		return
	}
	hours, err := s.deps.Attendance.GetWorkedHours(r.Context(), q)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, hours)
}

func (s *Server) handleTimesheet(w http.ResponseWriter, r *http.Request) {
	q, ok := s.logsQuery(w, r)
	if !ok {
		return
	}
	ts, err := s.deps.BuildTimesheet.Handle(r.Context(), q)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.deps.TimesheetRenderer.Render(ts, &buf); err != nil {
		writeDomainError(w, r, fmt.Errorf("render timesheet: %w", err))
		return
	}
	writeAttachment(w, s.deps.TimesheetRenderer.ContentType(), s.deps.TimesheetRenderer.FileName(ts), buf.Bytes())
}

type punchRequest struct {
	Type     string                  `json:"type"`
	Notes    string                  `json:"notes"`
	Location *attendance.GeoLocation `json:"location"`
}

type punchResponse struct {
	Log    attendance.TimeLog `json:"log"`
	Status attendance.Status  `json:"status"`
}

func (s *Server) handleRecordPunch(w http.ResponseWriter, r *http.Request) {
	var req punchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.deps.RecordPunch.Handle(r.Context(), command.RecordPunchCommand{
		ActorID:       actor(r),
		UserID:        r.PathValue("id"),
		Type:          req.Type,
		Notes:         req.Notes,
		Location:      req.Location,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, punchResponse{Log: res.Log, Status: res.Status})
}

// correctionRequest accepts either an RFC 3339 timestamp or a local
// date and clock pair as typed in the edit form.
type correctionRequest struct {
	Timestamp string `json:"timestamp"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

func (req correctionRequest) instant(loc *time.Location) (time.Time, error) {
	if ts := strings.TrimSpace(req.Timestamp); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return time.Time{}, shared.WrapError("http", "CorrectPunch", shared.ErrInvalidFormat,
				"timestamp must be RFC 3339", err)
		}
		return t, nil
	}
	if req.Date == "" || req.Time == "" {
		return time.Time{}, shared.NewDomainError("http", "CorrectPunch", shared.ErrEmptyValue,
			"timestamp or date and time are required")
	}
	t, err := timeutil.ParseLocalDateTime(req.Date, req.Time, loc)
	if err != nil {
		return time.Time{}, shared.WrapError("http", "CorrectPunch", shared.ErrInvalidFormat,
			"date must be YYYY-MM-DD and time HH:MM", err)
	}
	return t, nil
}

type correctionResponse struct {
	Log          attendance.TimeLog `json:"log"`
	PreviousTime time.Time          `json:"previousTime"`
}

func (s *Server) handleCorrectPunch(w http.ResponseWriter, r *http.Request) {
	var req correctionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	at, err := req.instant(s.deps.Location)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	res, err := s.deps.CorrectPunch.Handle(r.Context(), command.CorrectPunchCommand{
		ActorID:       actor(r),
		LogID:         r.PathValue("id"),
		Timestamp:     at,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, correctionResponse{Log: res.Log, PreviousTime: res.PreviousTime})
}

func (s *Server) handleDeletePunch(w http.ResponseWriter, r *http.Request) {
	err := s.deps.DeletePunch.Handle(r.Context(), command.DeletePunchCommand{
		ActorID: actor(r),
		LogID:   r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// logsQuery reads the path user and the start, end and type filters.
func (s *Server) logsQuery(w http.ResponseWriter, r *http.Request) (query.LogsQuery, bool) {
	f := attendance.Filter{
		Start: getQueryParam(r, "start", ""),
		End:   getQueryParam(r, "end", ""),
		Type:  getQueryParam(r, "type", attendance.TypeAll),
	}
	for _, day := range []string{f.Start, f.End} {
		if day == "" {
			continue
		}
		if _, err := timeutil.ParseDay(day, s.deps.Location); err != nil {
			writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "start and end must be YYYY-MM-DD")
			return query.LogsQuery{}, false
		}
	}
	return query.LogsQuery{ActorID: actor(r), UserID: r.PathValue("id"), Filter: f}, true
}

// ══════════════════════════════════════════════════════════════════════════════
// SYSTEM HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.deps.GetSettings.Handle(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cfg)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settings.CompanySettings
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg, err := s.deps.UpdateSettings.Handle(r.Context(), command.UpdateSettingsCommand{
		ActorID:  actor(r),
		Settings: req,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cfg)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	emails, err := s.deps.ListNotifications.Handle(r.Context(), actor(r), getQueryParam(r, "to", ""))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	meta := newMeta(r)
	meta.TotalCount = len(emails)
	writeJSONWithMeta(w, r, http.StatusOK, emails, meta)
}

func (s *Server) handleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Outbox.MarkNotificationsRead(r.Context(), s.outboxCommand(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"updated": n})
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Outbox.ClearNotifications(r.Context(), s.outboxCommand(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) outboxCommand(r *http.Request) command.OutboxCommand {
	return command.OutboxCommand{ActorID: actor(r), Recipient: getQueryParam(r, "to", "")}
}

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.ExportBackup.Handle(r.Context(), actor(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeAttachment(w, "application/json", res.FileName, res.Data)
}

func (s *Server) handleImportBackup(w http.ResponseWriter, r *http.Request) {
	up, err := handlers.ReadUpload(r, "backup.json")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	res, err := s.deps.ImportBackup.Handle(r.Context(), command.ImportBackupCommand{
		ActorID: actor(r),
		Data:    up.Data,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func actor(r *http.Request) string {
	return handlers.ActorID(r.Context())
}

// decodeJSON decodes the request body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		msg := "Invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is empty"
		}
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", msg)
		return false
	}
	return true
}

func writeAttachment(w http.ResponseWriter, contentType, fileName string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
