package eventhandler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/espacohidro/pontocerto/internal/infrastructure/persistence/memory"
	"github.com/espacohidro/pontocerto/internal/infrastructure/service"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBus struct {
	handlers map[shared.EventType][]shared.EventHandler
}

func (b *syncBus) Subscribe(t shared.EventType, h shared.EventHandler) error {
	if b.handlers == nil {
		b.handlers = make(map[shared.EventType][]shared.EventHandler)
	}
	b.handlers[t] = append(b.handlers[t], h)
	return nil
}

func (b *syncBus) Publish(e shared.Event) error {
	for _, h := range b.handlers[e.EventType()] {
		if err := h(e); err != nil {
			return err
		}
	}
	return nil
}

func setup(t *testing.T) (*memory.Store, *syncBus, staff.User) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	admin := staff.DefaultAdmin()
	emp := staff.User{ID: "e1", Name: "Ana Lima", Email: "ana@interno.com", Role: staff.RoleEmployee}
	require.NoError(t, store.Users().Save(ctx, &admin))
	require.NoError(t, store.Users().Save(ctx, &emp))

	mailer := service.NewMailer(store.Outbox(), store.Settings(), service.MailerConfig{})
	bus := &syncBus{}
	require.NoError(t, Register(bus,
		NewOnPunchRecordedHandler(store.Users(), store.Logs(), mailer, timeutil.SaoPauloTZ, nil),
		NewOnPunchCorrectedHandler(store.Users(), mailer, "", timeutil.SaoPauloTZ, nil),
		NewOnUserCreatedHandler(mailer, nil),
	))
	return store, bus, emp
}

func TestPunchReceipt(t *testing.T) {
	store, bus, emp := setup(t)
	ctx := context.Background()
	ts, _ := timeutil.ParseLocalDateTime("2024-03-04", "08:00", timeutil.SaoPauloTZ)
	log := attendance.TimeLog{ID: "l1", UserID: emp.ID, Type: attendance.LogEntry, Timestamp: ts}
	require.NoError(t, store.Logs().Save(ctx, &log))

	require.NoError(t, bus.Publish(shared.NewPunchRecordedEvent(emp.ID, "l1", "ENTRY", ts)))

	mails, _ := store.Outbox().List(ctx, emp.Email)
	require.Len(t, mails, 1)
	assert.Equal(t, "Comprovante de Ponto: Entrada - 04/03/2024", mails[0].Subject)
	assert.Contains(t, mails[0].Body, "ID do Registro: l1")
}

func TestCorrectionRouting(t *testing.T) {
	store, bus, emp := setup(t)
	ctx := context.Background()
	prev := time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC)
	next := prev.Add(-5 * time.Minute)

	require.NoError(t, bus.Publish(shared.NewPunchCorrectedEvent(emp.ID, "l1", prev, next, emp.ID, false)))
	adminMails, _ := store.Outbox().List(ctx, staff.DefaultAdminEmail)
	require.Len(t, adminMails, 1)
	assert.Equal(t, "Solicitação de Correção: Ana Lima", adminMails[0].Subject)

	require.NoError(t, bus.Publish(shared.NewPunchCorrectedEvent(emp.ID, "l1", prev, next, "1", true)))
	userMails, _ := store.Outbox().List(ctx, emp.Email)
	require.Len(t, userMails, 1)
	assert.True(t, strings.HasSuffix(userMails[0].Body, "Novo horário: 04/03/2024 07:55:00."))
}

func TestWelcome(t *testing.T) {
	store, bus, _ := setup(t)
	require.NoError(t, bus.Publish(shared.NewUserCreatedEvent("u9", "Rui", "rui@interno.com", "4242")))

	mails, _ := store.Outbox().List(context.Background(), "rui@interno.com")
	require.Len(t, mails, 1)
	assert.Contains(t, mails[0].Body, "Senha: 4242")
}

func TestHandlersIgnoreForeignEvents(t *testing.T) {
	h := NewOnUserCreatedHandler(nil, nil)
	assert.NoError(t, h.Handle(shared.NewUserDeletedEvent("x")))
}
