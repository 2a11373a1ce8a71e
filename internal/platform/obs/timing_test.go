package obs

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTimeLogsFailure(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	ctx := WithRequestID(context.Background(), "req-1")

	func() (err error) {
		defer Time(ctx, "test.op")(&err)
		return errors.New("boom")
	}()

	entries := logs.FilterMessage("op failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 failure entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["req_id"] != "req-1" || fields["op"] != "test.op" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestTimeLogsSuccessAtDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	func() (err error) {
		defer Time(context.Background(), "test.ok")(&err)
		return nil
	}()

	if n := logs.FilterMessage("op done").Len(); n != 1 {
		t.Fatalf("expected 1 success entry, got %d", n)
	}
}
