package notification

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// OfferEmailData feeds the offer email sent to the candidate client
// when a slot is freed by another cancellation.
type OfferEmailData struct {
	ClientName  string
	StudioName  string
	ServiceName string

	NewStart     time.Time
	CurrentStart time.Time

	FinalPrice       float64
	Discount         float64
	RemainingDeposit float64

	ConfirmURL string
	ExpiresAt  time.Time
}

const offerSubject = "Se liberó un turno para %s — oferta por tiempo limitado"

var offerBody = template.Must(template.New("offer").Parse(
	`Hola {{.ClientName}},

Se liberó un turno de {{.ServiceName}} en {{.StudioName}} para el
{{.NewStart.Format "02/01/2006 15:04"}} (tu turno actual es el
{{.CurrentStart.Format "02/01/2006 15:04"}}).

Si lo tomás ahora, te hacemos un descuento de ${{printf "%.2f" .Discount}}:
precio final ${{printf "%.2f" .FinalPrice}}, seña restante ${{printf "%.2f" .RemainingDeposit}}.

Para aceptar o rechazar la oferta entrá acá antes del
{{.ExpiresAt.Format "02/01/2006 15:04"}}:

{{.ConfirmURL}}

Beautiful Studio
`))

func RenderOfferEmail(data OfferEmailData) (subject, body string, err error) {
	var sb strings.Builder
	if err := offerBody.Execute(&sb, data); err != nil {
		return "", "", err
	}
	return fmt.Sprintf(offerSubject, data.ServiceName), sb.String(), nil
}

// RoomFillEmailData feeds the informational mail used by the loose
// room-fill variant: no token, no deadline, no state machine.
type RoomFillEmailData struct {
	ClientName  string
	StudioName  string
	ServiceName string

	FreedStart   time.Time
	CurrentStart time.Time

	StudioPhone string
}

const roomFillSubject = "Hay un lugar antes para tu turno de %s"

var roomFillBody = template.Must(template.New("roomfill").Parse(
	`Hola {{.ClientName}},

Se liberó un lugar de {{.ServiceName}} en {{.StudioName}} el
{{.FreedStart.Format "02/01/2006 15:04"}}, antes de tu turno del
{{.CurrentStart.Format "02/01/2006 15:04"}}.

Si querés adelantarlo, escribinos o llamanos al {{.StudioPhone}} y lo
reacomodamos.

Beautiful Studio
`))

func RenderRoomFillEmail(data RoomFillEmailData) (subject, body string, err error) {
	var sb strings.Builder
	if err := roomFillBody.Execute(&sb, data); err != nil {
		return "", "", err
	}
	return fmt.Sprintf(roomFillSubject, data.ServiceName), sb.String(), nil
}
