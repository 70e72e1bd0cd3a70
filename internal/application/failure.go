package application

import (
	"context"
	"errors"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// FailureKind classifies an error for presentation.
type FailureKind int

const (
	FailureInternal FailureKind = iota
	FailureUnauthorized
	FailureForbidden
	FailureNotFound
	FailureInvalid
	FailureUnreachable
	FailureCanceled
)

// Failure is what the operator is told about an error.
type Failure struct {
	Kind    FailureKind
	Message string
	// Field names the offending input for validation failures.
	Field string
}

// Messages shown to the operator.
const (
	MsgForbidden   = "No tiene permisos para realizar esta acción."
	MsgNotFound    = "El recurso solicitado no existe o fue eliminado."
	MsgUnreachable = "No se pudo conectar con la API. Revise su conexión e inténtelo de nuevo."
	MsgInternal    = "Ocurrió un error inesperado."
	MsgExpired     = "Su sesión ha expirado. Inicie sesión de nuevo."
	MsgCanceled    = "La operación fue cancelada."
	MsgNoSecretKey = "El almacenamiento de sesiones no está configurado (TIENDAPANEL_SECRET_KEY)."
)

// DescribeFailure maps err onto the kind and message shown to the operator.
// Validation and 400 answers carry their own text; other kinds use a fixed
// message.
func DescribeFailure(err error) Failure {
	var verr *model.ValidationError
	var restoreErr *RestoreFailedError
	var statusErr driven.StatusError

	switch {
	case errors.As(err, &verr):
		return Failure{Kind: FailureInvalid, Message: verr.Message, Field: verr.Field}
	case errors.As(err, &restoreErr):
		return Failure{Kind: FailureInvalid, Message: restoreErr.Text}
	case errors.Is(err, ErrRestoreNotConfirmed):
		return Failure{Kind: FailureInvalid, Message: "Confirme la restauración antes de continuar."}
	case errors.Is(err, driven.ErrUnauthorized):
		return Failure{Kind: FailureUnauthorized, Message: MsgExpired}
	case errors.Is(err, driven.ErrForbidden):
		return Failure{Kind: FailureForbidden, Message: MsgForbidden}
	case errors.Is(err, driven.ErrNotFound):
		return Failure{Kind: FailureNotFound, Message: MsgNotFound}
	case errors.Is(err, driven.ErrUnreachable):
		return Failure{Kind: FailureUnreachable, Message: MsgUnreachable}
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		return Failure{Kind: FailureInternal, Message: MsgNoSecretKey}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Failure{Kind: FailureCanceled, Message: MsgCanceled}
	case errors.As(err, &statusErr) && statusErr.Status() >= 400 && statusErr.Status() < 500:
		return Failure{Kind: FailureInvalid, Message: statusErr.UserMessage()}
	default:
		return Failure{Kind: FailureInternal, Message: MsgInternal}
	}
}
