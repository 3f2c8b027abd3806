package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeDeleter struct {
	mu         sync.Mutex
	deleted    int64
	err        error
	calls      int
	lastCutoff time.Time
}

func (f *fakeDeleter) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deleted, nil
}

func (f *fakeDeleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestRun_DeletesWithRetentionCutoff は保持期間に基づくカットオフの計算を検証する。
func TestRun_DeletesWithRetentionCutoff(t *testing.T) {
	deleter := &fakeDeleter{deleted: 12}
	j := NewJob(deleter, testLogger())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := now.AddDate(0, 0, -90)
	if !deleter.lastCutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", deleter.lastCutoff, want)
	}
}

// TestRun_CustomRetention は保持日数の変更が反映されることを検証する。
func TestRun_CustomRetention(t *testing.T) {
	deleter := &fakeDeleter{}
	j := NewJob(deleter, testLogger())
	j.RetentionDays = 30
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := now.AddDate(0, 0, -30)
	if !deleter.lastCutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", deleter.lastCutoff, want)
	}
}

// TestRun_NoRowsIsIdempotent は削除対象0件でもエラーにならないことを検証する。
func TestRun_NoRowsIsIdempotent(t *testing.T) {
	j := NewJob(&fakeDeleter{deleted: 0}, testLogger())

	if err := j.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

// TestRun_PropagatesStorageError はストア障害の伝播を検証する。
func TestRun_PropagatesStorageError(t *testing.T) {
	j := NewJob(&fakeDeleter{err: errors.New("connection refused")}, testLogger())

	if err := j.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want error")
	}
}

// TestStart_StopsOnContextCancel はコンテキストキャンセルで停止することを検証する。
func TestStart_StopsOnContextCancel(t *testing.T) {
	j := NewJob(&fakeDeleter{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("キャンセル後もジョブが停止しない")
	}
}

// TestStart_RunsOnTick はティックごとに削除が実行されることを検証する。
func TestStart_RunsOnTick(t *testing.T) {
	deleter := &fakeDeleter{}
	j := NewJob(deleter, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(time.Second)
	for deleter.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("ティックで削除が実行されない")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	cancel()
	<-done
}
