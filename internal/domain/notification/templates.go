package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

const receiptRule = "--------------------------------"

// PunchReceipt is the confirmation a user receives after each punch.
func PunchReceipt(to, userName string, log attendance.TimeLog, loc *time.Location) Message {
	label := log.Type.ReceiptLabel()
	day := timeutil.FormatBR(log.Timestamp, timeutil.FormatBRDate, loc)

	location := "Localização: Não disponível"
	if log.Location != nil {
		location = fmt.Sprintf("Localização: %v, %v\nLink Mapa: %s",
			log.Location.Latitude, log.Location.Longitude, log.Location.MapsLink())
	}
	note := ""
	if log.Notes != "" {
		note = "Observação: " + log.Notes
	}

	body := strings.Join([]string{
		"COMPROVANTE DE REGISTRO DE PONTO",
		receiptRule,
		"Colaborador: " + userName,
		"Data: " + day,
		"Horário: " + timeutil.FormatBR(log.Timestamp, timeutil.FormatBRTime, loc),
		"Tipo de Registro: " + label,
		"ID do Registro: " + log.ID,
		note,
		"",
		location,
		receiptRule,
		"Este é um comprovante digital gerado automaticamente pelo sistema PontoCerto.",
	}, "\n")

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Comprovante de Ponto: %s - %s", label, day),
		Body:    body,
	}
}

// CorrectionRequest notifies the administrator that an employee edited a punch.
func CorrectionRequest(adminEmail, userName string, previous, next time.Time, loc *time.Location) Message {
	return Message{
		To:      adminEmail,
		Subject: "Solicitação de Correção: " + userName,
		Body: fmt.Sprintf("O funcionário %s solicitou/realizou uma correção no registro de %s para %s.",
			userName,
			timeutil.FormatBR(previous, timeutil.FormatBRDateTime, loc),
			timeutil.FormatBR(next, timeutil.FormatBRDateTime, loc)),
	}
}

// CorrectionDone notifies a user that an administrator edited their punch.
func CorrectionDone(to string, next time.Time, loc *time.Location) Message {
	return Message{
		To:      to,
		Subject: "Correção de Ponto Aprovada/Realizada",
		Body: fmt.Sprintf("Uma correção foi realizada em seu registro de ponto pelo Administrador. Novo horário: %s.",
			timeutil.FormatBR(next, timeutil.FormatBRDateTime, loc)),
	}
}

// Welcome carries the login details of a new account.
func Welcome(to, password string) Message {
	return Message{
		To:      to,
		Subject: "Bem-vindo ao PontoCerto",
		Body:    fmt.Sprintf("Sua conta foi criada. Login: %s, Senha: %s", to, password),
	}
}

// ExitReminder asks a user who entered today to punch out.
func ExitReminder(to, userName string) Message {
	return Message{
		To:      to,
		Subject: "Lembrete: Registro de Saída Pendente",
		Body: fmt.Sprintf("Olá %s, notamos que você registrou sua entrada hoje mas ainda não registrou sua saída. Por favor, regularize seu ponto.",
			userName),
	}
}
