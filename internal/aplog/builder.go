package aplog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type Builder interface {
	WithService(serviceId string) Builder
	WithComponent(componentId string) Builder
	WithOwner(owner string) Builder
	WithConnectorId(id string) Builder
	WithConnectorUid(uid uuid.UUID) Builder
	WithTask(t *asynq.Task) Builder
	WithCtx(ctx context.Context) Builder
	With(args ...any) Builder
	Build() *slog.Logger
}

type builder struct {
	l *slog.Logger
}

func (b *builder) WithService(serviceId string) Builder {
	return &builder{l: b.l.With("service", serviceId)}
}

func (b *builder) WithComponent(componentId string) Builder {
	return &builder{l: b.l.With("component", componentId)}
}

func (b *builder) WithOwner(owner string) Builder {
	return &builder{l: b.l.With("owner", owner)}
}

func (b *builder) WithConnectorId(id string) Builder {
	return &builder{l: b.l.With("connector_id", id)}
}

func (b *builder) WithConnectorUid(uid uuid.UUID) Builder {
	return &builder{l: b.l.With("connector_uid", uid.String())}
}

func (b *builder) WithTask(t *asynq.Task) Builder {
	attrs := []any{slog.String("type", t.Type())}

	// Tasks constructed client side have no result writer yet
	if rw := t.ResultWriter(); rw != nil {
		attrs = append(attrs, slog.String("id", rw.TaskID()))
	}

	return &builder{l: b.l.With(slog.Group("task", attrs...))}
}

func (b *builder) WithCtx(ctx context.Context) Builder {
	// Nothing for now
	return b
}

func (b *builder) With(args ...any) Builder {
	return &builder{l: b.l.With(args...)}
}

func (b *builder) Build() *slog.Logger {
	return b.l
}

func NewBuilder(l *slog.Logger) Builder {
	if l == nil {
		panic("cannot create log builder with nil log")
	}

	return &builder{l: l}
}

var _ Builder = &builder{}
