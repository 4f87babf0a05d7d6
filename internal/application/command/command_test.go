package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/backup"
	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/espacohidro/pontocerto/internal/infrastructure/persistence/memory"
	"github.com/espacohidro/pontocerto/internal/infrastructure/service"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct{ events []shared.Event }

func (r *recorder) Publish(e shared.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []shared.EventType {
	out := make([]shared.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

type fixture struct {
	store *memory.Store
	bus   *recorder
	now   time.Time
	clock Clock
	emp   staff.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), bus: &recorder{}}
	f.now, _ = timeutil.ParseLocalDateTime("2024-03-04", "08:02", timeutil.SaoPauloTZ)
	f.clock = Clock{Location: timeutil.SaoPauloTZ, Now: func() time.Time { return f.now }}

	ctx := context.Background()
	created, err := EnsureDefaultAdmin(ctx, f.store.Users(), nil)
	require.NoError(t, err)
	require.True(t, created)

	f.emp = staff.User{ID: "e1", Name: "Ana Lima", Email: "ana.lima@interno.com", Password: "1234", Role: staff.RoleEmployee}
	require.NoError(t, f.store.Users().Save(ctx, &f.emp))
	return f
}

func (f *fixture) punch(t *testing.T, typ attendance.LogType) (*RecordPunchResult, error) {
	t.Helper()
	h := NewRecordPunchHandler(f.store.Users(), f.store.Logs(), f.bus, f.clock)
	return h.Handle(context.Background(), RecordPunchCommand{ActorID: f.emp.ID, UserID: f.emp.ID, Type: string(typ)})
}

func TestEnsureDefaultAdmin_OnlyWhenEmpty(t *testing.T) {
	f := newFixture(t)
	created, err := EnsureDefaultAdmin(context.Background(), f.store.Users(), nil)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRecordPunch_FullDay(t *testing.T) {
	f := newFixture(t)

	res, err := f.punch(t, attendance.LogEntry)
	require.NoError(t, err)
	assert.Equal(t, []attendance.LogType{attendance.LogLunchStart, attendance.LogExit}, res.Status.Allowed)

	_, err = f.punch(t, attendance.LogLunchEnd)
	assert.ErrorIs(t, err, shared.ErrPunchNotAllowed)

	f.now = f.now.Add(4 * time.Hour)
	_, err = f.punch(t, attendance.LogLunchStart)
	require.NoError(t, err)
	f.now = f.now.Add(time.Hour)
	_, err = f.punch(t, attendance.LogLunchEnd)
	require.NoError(t, err)
	f.now = f.now.Add(4 * time.Hour)
	res, err = f.punch(t, attendance.LogExit)
	require.NoError(t, err)
	assert.True(t, res.Status.DayFinished)
	assert.Equal(t, 8*time.Hour, res.Status.WorkedToday)

	_, err = f.punch(t, attendance.LogEntry)
	assert.ErrorIs(t, err, shared.ErrWorkDayFinished)

	assert.Len(t, f.bus.events, 4)
	assert.Equal(t, shared.EventPunchRecorded, f.bus.events[0].EventType())
}

func TestRecordPunch_Access(t *testing.T) {
	f := newFixture(t)
	h := NewRecordPunchHandler(f.store.Users(), f.store.Logs(), f.bus, f.clock)

	_, err := h.Handle(context.Background(), RecordPunchCommand{ActorID: "e1", UserID: "1", Type: "ENTRY"})
	assert.True(t, shared.IsForbidden(err))

	_, err = h.Handle(context.Background(), RecordPunchCommand{ActorID: "1", UserID: "e1", Type: "ENTRY", Notes: " atraso "})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), RecordPunchCommand{ActorID: "1", UserID: "e1", Type: "NAP"})
	assert.True(t, shared.IsValidation(err))
}

func TestCorrectPunch(t *testing.T) {
	f := newFixture(t)
	res, err := f.punch(t, attendance.LogEntry)
	require.NoError(t, err)

	h := NewCorrectPunchHandler(f.store.Users(), f.store.Logs(), f.bus)
	next := res.Log.Timestamp.Add(-10 * time.Minute)

	out, err := h.Handle(context.Background(), CorrectPunchCommand{ActorID: "e1", LogID: res.Log.ID, Timestamp: next})
	require.NoError(t, err)
	assert.True(t, out.Log.Edited)
	assert.Equal(t, res.Log.Timestamp, out.PreviousTime)

	stored, _ := f.store.Logs().GetByID(context.Background(), res.Log.ID)
	assert.True(t, stored.Timestamp.Equal(next))

	ev, ok := f.bus.events[len(f.bus.events)-1].(shared.PunchCorrectedEvent)
	require.True(t, ok)
	assert.False(t, ev.ActorIsAdmin)

	other := staff.User{ID: "e2", Name: "Bia", Role: staff.RoleEmployee}
	require.NoError(t, f.store.Users().Save(context.Background(), &other))
	_, err = h.Handle(context.Background(), CorrectPunchCommand{ActorID: "e2", LogID: res.Log.ID, Timestamp: next})
	assert.True(t, shared.IsForbidden(err))

	_, err = h.Handle(context.Background(), CorrectPunchCommand{ActorID: "1", LogID: "missing", Timestamp: next})
	assert.True(t, shared.IsNotFound(err))
}

func TestDeletePunch_AdminOnly(t *testing.T) {
	f := newFixture(t)
	res, err := f.punch(t, attendance.LogEntry)
	require.NoError(t, err)

	h := NewDeletePunchHandler(f.store.Users(), f.store.Logs(), f.bus)
	assert.True(t, shared.IsForbidden(h.Handle(context.Background(), DeletePunchCommand{ActorID: "e1", LogID: res.Log.ID})))
	require.NoError(t, h.Handle(context.Background(), DeletePunchCommand{ActorID: "1", LogID: res.Log.ID}))
	assert.Contains(t, f.bus.types(), shared.EventPunchDeleted)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	h := NewCreateUserHandler(f.store.Users(), staff.BcryptPolicy{Cost: 4}, f.bus)

	u, err := h.Handle(context.Background(), CreateUserCommand{ActorID: "1", Input: staff.NewUserInput{Name: "João Pedro", Password: "9999"}})
	require.NoError(t, err)
	assert.Empty(t, u.Password)
	assert.Equal(t, "joão.pedro@interno.com", u.Email)

	stored, _ := f.store.Users().GetByID(context.Background(), u.ID)
	assert.NotEqual(t, "9999", stored.Password)

	ev, ok := f.bus.events[0].(shared.UserCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "9999", ev.InitialPassword)

	_, err = h.Handle(context.Background(), CreateUserCommand{ActorID: "e1", Input: staff.NewUserInput{Name: "X", Password: "1"}})
	assert.True(t, shared.IsForbidden(err))
}

func TestUpdateUser_KeepsPasswordWhenEmpty(t *testing.T) {
	f := newFixture(t)
	h := NewUpdateUserHandler(f.store.Users(), nil)

	u, err := h.Handle(context.Background(), UpdateUserCommand{ActorID: "1", ID: "e1", Position: "Recepção"})
	require.NoError(t, err)
	assert.Equal(t, "Recepção", u.Position)
	assert.Equal(t, "Ana Lima", u.Name)

	stored, _ := f.store.Users().GetByID(context.Background(), "e1")
	assert.Equal(t, "1234", stored.Password)

	// Unknown IDs are inserted.
	u, err = h.Handle(context.Background(), UpdateUserCommand{ActorID: "1", ID: "new", Name: "Rui", Password: "1"})
	require.NoError(t, err)
	assert.Equal(t, "new", u.ID)

	_, err = h.Handle(context.Background(), UpdateUserCommand{ActorID: "1", ID: "e1", Role: "boss"})
	assert.ErrorIs(t, err, shared.ErrInvalidRole)
}

func TestDeleteUser_KeepsLogs(t *testing.T) {
	f := newFixture(t)
	_, err := f.punch(t, attendance.LogEntry)
	require.NoError(t, err)

	h := NewDeleteUserHandler(f.store.Users(), f.bus)
	assert.True(t, shared.IsConflict(h.Handle(context.Background(), DeleteUserCommand{ActorID: "1", ID: "1"})))
	require.NoError(t, h.Handle(context.Background(), DeleteUserCommand{ActorID: "1", ID: "e1"}))

	logs, _ := f.store.Logs().ListByUser(context.Background(), "e1")
	assert.Len(t, logs, 1)
}

func TestImportRoster_CollectsRowErrors(t *testing.T) {
	f := newFixture(t)
	create := NewCreateUserHandler(f.store.Users(), nil, f.bus)
	h := NewImportRosterHandler(f.store.Users(), create)

	res, err := h.Handle(context.Background(), ImportRosterCommand{ActorID: "1", Rows: []staff.RosterRow{
		{Line: 2, Input: staff.NewUserInput{Name: "Caio", Password: "1"}},
		{Line: 3, Input: staff.NewUserInput{Name: "Sem Senha"}},
	}})
	require.NoError(t, err)
	assert.Len(t, res.Created, 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Line)
}

func TestUpdateSettings(t *testing.T) {
	f := newFixture(t)
	h := NewUpdateSettingsHandler(f.store.Users(), f.store.Settings())

	s := settings.Defaults()
	s.WorkStart = " 07:30 "
	got, err := h.Handle(context.Background(), UpdateSettingsCommand{ActorID: "1", Settings: s})
	require.NoError(t, err)
	assert.Equal(t, "07:30", got.WorkStart)

	s.WorkEnd = "06:00"
	_, err = h.Handle(context.Background(), UpdateSettingsCommand{ActorID: "1", Settings: s})
	assert.ErrorIs(t, err, shared.ErrInvalidSchedule)

	_, err = h.Handle(context.Background(), UpdateSettingsCommand{ActorID: "e1", Settings: settings.Defaults()})
	assert.True(t, shared.IsForbidden(err))
}

func TestOutboxCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, to := range []string{"ana.lima@interno.com", "admin@empresa.com"} {
		e, _ := notification.NewEmail(to, "s", "b", f.now)
		require.NoError(t, f.store.Outbox().Append(ctx, e))
	}
	h := NewOutboxHandler(f.store.Users(), f.store.Outbox())

	_, err := h.MarkNotificationsRead(ctx, OutboxCommand{ActorID: "e1", Recipient: "admin@empresa.com"})
	assert.True(t, shared.IsForbidden(err))

	n, err := h.MarkNotificationsRead(ctx, OutboxCommand{ActorID: "e1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = h.ClearNotifications(ctx, OutboxCommand{ActorID: "1"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportBackup(t *testing.T) {
	f := newFixture(t)
	h := NewImportBackupHandler(f.store.Users(), f.store, f.bus)
	ctx := context.Background()

	_, err := h.Handle(ctx, ImportBackupCommand{ActorID: "1", Data: []byte(`{"logs": []}`)})
	assert.ErrorIs(t, err, shared.ErrInvalidBackup)
	_, err = f.store.Users().GetByID(ctx, "e1")
	require.NoError(t, err, "failed import must not touch data")

	snap := backup.Snapshot{Users: []staff.User{staff.DefaultAdmin()}, Settings: settings.Defaults()}
	data, err := snap.Marshal()
	require.NoError(t, err)

	res, err := h.Handle(ctx, ImportBackupCommand{ActorID: "1", Data: data})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Users)
	_, err = f.store.Users().GetByID(ctx, "e1")
	assert.True(t, shared.IsNotFound(err))
	assert.Contains(t, f.bus.types(), shared.EventBackupImported)
}

func TestSendReminders_OncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.punch(t, attendance.LogEntry)
	require.NoError(t, err)

	mailer := service.NewMailer(f.store.Outbox(), f.store.Settings(), service.MailerConfig{})
	h := NewSendRemindersHandler(f.store.Users(), f.store.Logs(), f.store.Reminders(), mailer, f.bus, f.clock, ReminderConfig{}, nil)

	res, err := h.Handle(ctx, SendRemindersCommand{Now: f.now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Zero(t, res.Checked, "before the cutoff nothing is checked")

	evening := f.now.Add(10 * time.Hour)
	res, err = h.Handle(ctx, SendRemindersCommand{Now: evening})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Checked)
	assert.Equal(t, 1, res.Sent)

	res, err = h.Handle(ctx, SendRemindersCommand{Now: evening.Add(time.Minute)})
	require.NoError(t, err)
	assert.Zero(t, res.Sent)
	assert.Equal(t, 1, res.Skipped)

	mails, _ := f.store.Outbox().List(ctx, "ana.lima@interno.com")
	require.Len(t, mails, 1)
	assert.Equal(t, "Lembrete: Registro de Saída Pendente", mails[0].Subject)
}

type flakySender struct {
	next  notification.Sender
	fails int
}

func (s *flakySender) Send(ctx context.Context, msg notification.Message) (*notification.Email, error) {
	if s.fails > 0 {
		s.fails--
		return nil, errors.New("relay unavailable")
	}
	return s.next.Send(ctx, msg)
}

func TestSendReminders_FailedSendRetriesNextSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.punch(t, attendance.LogEntry)
	require.NoError(t, err)

	sender := &flakySender{
		next:  service.NewMailer(f.store.Outbox(), f.store.Settings(), service.MailerConfig{}),
		fails: 1,
	}
	h := NewSendRemindersHandler(f.store.Users(), f.store.Logs(), f.store.Reminders(), sender, f.bus, f.clock, ReminderConfig{}, nil)

	evening := f.now.Add(10 * time.Hour)
	res, err := h.Handle(ctx, SendRemindersCommand{Now: evening})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Sent)

	res, err = h.Handle(ctx, SendRemindersCommand{Now: evening.Add(5 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Zero(t, res.Skipped)

	mails, _ := f.store.Outbox().List(ctx, "ana.lima@interno.com")
	assert.Len(t, mails, 1)
}
