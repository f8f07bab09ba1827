package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook wraps message handling. A BeforeHandle error skips the handler.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
	OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, km, data, nil
}

func (NoopHook) AfterHandle(context.Context, string, kafka.Message, []byte, error) {}

func (NoopHook) OnError(context.Context, string, kafka.Message, []byte, error) {}

// HookFuncs adapts plain functions; nil fields are no-ops.
type HookFuncs struct {
	Before func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error)
	After  func(context.Context, string, kafka.Message, []byte, error)
	Err    func(context.Context, string, kafka.Message, []byte, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	if h.Before == nil {
		return ctx, km, data, nil
	}
	return h.Before(ctx, topic, km, data)
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.After != nil {
		h.After(ctx, topic, km, data, err)
	}
}

func (h HookFuncs) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.Err != nil {
		h.Err(ctx, topic, km, data, err)
	}
}

// HookChain runs Before hooks in order and After hooks in reverse.
// A panicking hook is converted into a permanent error.
type HookChain struct {
	hooks []ConsumerHook
}

func NewHookChain(hooks ...ConsumerHook) *HookChain {
	out := make([]ConsumerHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}
	return &HookChain{hooks: out}
}

func (c *HookChain) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	for _, h := range c.hooks {
		nctx, nmsg, ndata, err := safeBefore(h, ctx, topic, km, data)
		if err != nil {
			c.OnError(ctx, topic, km, data, err)
			return ctx, km, data, err
		}
		ctx, km, data = nctx, nmsg, ndata
	}
	return ctx, km, data, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		h := c.hooks[i]
		guard(func() { h.AfterHandle(ctx, topic, km, data, err) })
	}
}

func (c *HookChain) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	for _, h := range c.hooks {
		h := h
		guard(func() { h.OnError(ctx, topic, km, data, err) })
	}
}

func safeBefore(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte) (rctx context.Context, rmsg kafka.Message, rdata []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			rctx, rmsg, rdata = ctx, km, data
			err = Permanent(fmt.Errorf("hook panic: %v", r))
		}
	}()
	return h.BeforeHandle(ctx, topic, km, data)
}

func guard(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

type ctxKey string

const (
	CtxStartTime ctxKey = "kafka_start_time"
	CtxTraceID   ctxKey = "kafka_trace_id"
)

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, CtxStartTime, t)
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, CtxTraceID, traceID)
}

// TraceID returns the trace id stored by WithTraceID, if any.
func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(CtxTraceID).(string)
	return v
}

func ExtractTraceID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "trace_id" && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}
