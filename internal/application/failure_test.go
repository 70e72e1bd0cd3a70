package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

type fakeStatusError struct {
	status int
	msg    string
}

func (e *fakeStatusError) Error() string       { return fmt.Sprintf("status %d", e.status) }
func (e *fakeStatusError) Status() int         { return e.status }
func (e *fakeStatusError) UserMessage() string { return e.msg }

func TestDescribeFailure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind application.FailureKind
		wantMsg  string
	}{
		{"validation", &model.ValidationError{Field: "nombre", Message: "obligatorio"}, application.FailureInvalid, "obligatorio"},
		{"restore failed", &application.RestoreFailedError{Text: "archivo corrupto"}, application.FailureInvalid, "archivo corrupto"},
		{"unauthorized", fmt.Errorf("x: %w", driven.ErrUnauthorized), application.FailureUnauthorized, application.MsgExpired},
		{"forbidden", fmt.Errorf("x: %w", driven.ErrForbidden), application.FailureForbidden, application.MsgForbidden},
		{"not found", fmt.Errorf("x: %w", driven.ErrNotFound), application.FailureNotFound, application.MsgNotFound},
		{"unreachable", fmt.Errorf("x: %w: dial", driven.ErrUnreachable), application.FailureUnreachable, application.MsgUnreachable},
		{"bad request", fmt.Errorf("x: %w", &fakeStatusError{status: 400, msg: "Email inválido."}), application.FailureInvalid, "Email inválido."},
		{"server error", &fakeStatusError{status: 500, msg: "boom"}, application.FailureInternal, application.MsgInternal},
		{"canceled", fmt.Errorf("x: %w", context.Canceled), application.FailureCanceled, application.MsgCanceled},
		{"plain", errors.New("disk full"), application.FailureInternal, application.MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := application.DescribeFailure(tt.err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantMsg, got.Message)
		})
	}
}
