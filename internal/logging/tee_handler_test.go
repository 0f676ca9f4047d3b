package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := TeeHandler(nil, NoopHandler{}).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when no member can write")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := TeeHandler(nil, inner); h != inner {
		t.Fatal("expected single member to be returned unwrapped")
	}
}

func TestTeeHandlerFlattensNestedTees(t *testing.T) {
	var a, b, c bytes.Buffer
	nested := TeeHandler(slog.NewTextHandler(&a, nil), slog.NewTextHandler(&b, nil))
	tee, ok := TeeHandler(nested, slog.NewTextHandler(&c, nil)).(multiHandler)
	if !ok || len(tee) != 3 {
		t.Fatalf("expected flat tee of 3 members, got %#v", tee)
	}
}

func TestTeeHandlerRespectsMemberLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(TeeHandler(infoHandler, debugHandler))
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee enabled for debug when any member accepts it")
	}
	logger.Debug("tick")
	logger.Info("done")

	if strings.Contains(infoBuf.String(), "tick") {
		t.Fatalf("info handler received debug record: %q", infoBuf.String())
	}
	if !strings.Contains(debugBuf.String(), "tick") || !strings.Contains(debugBuf.String(), "done") {
		t.Fatalf("debug handler missing records: %q", debugBuf.String())
	}
}

func TestTeeHandlerCarriesAttrsAndGroups(t *testing.T) {
	var first, second bytes.Buffer
	handler := TeeHandler(slog.NewTextHandler(&first, nil), slog.NewTextHandler(&second, nil))
	logger := slog.New(handler).With("component", "poller")
	logger.WithGroup("poll").Info("finished", "slug", "acme")

	for _, out := range []string{first.String(), second.String()} {
		if !strings.Contains(out, "component=poller") || !strings.Contains(out, "poll.slug=acme") {
			t.Fatalf("expected attrs in both outputs, got %q", out)
		}
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestTeeHandlerJoinsMemberErrors(t *testing.T) {
	var buf bytes.Buffer
	ok := slog.NewTextHandler(&buf, nil)
	handler := TeeHandler(failingHandler{ok}, ok)

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "queued", 0)
	err := handler.Handle(context.Background(), record)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected joined member error, got %v", err)
	}
	if !strings.Contains(buf.String(), "queued") {
		t.Fatalf("expected healthy member to still write, got %q", buf.String())
	}
}
