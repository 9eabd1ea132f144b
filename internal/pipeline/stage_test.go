package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"marketseg/internal/logging"
)

func TestRunOrder(t *testing.T) {
	appendStage := func(name string) *Stage[[]string] {
		return NewStage(name, func(in []string) ([]string, error) {
			return append(in, name), nil
		})
	}

	got, err := Run(logging.Discard(), nil, appendStage("load"), appendStage("clean"), appendStage("encode"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"load", "clean", "encode"}, got); diff != "" {
		t.Errorf("stage order mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnError(t *testing.T) {
	errBoom := errors.New("boom")
	calls := 0
	count := func(n int) (int, error) { calls++; return n + 1, nil }

	_, err := Run(logging.Discard(), 0,
		NewStage("first", count),
		NewStage("broken", func(n int) (int, error) { return n, errBoom }),
		NewStage("never", count),
	)
	if errors.Cause(err) != errBoom {
		t.Fatalf("Run error = %v, want cause %v", err, errBoom)
	}
	if calls != 1 {
		t.Errorf("stages after failure ran: calls = %d, want 1", calls)
	}
}

func TestRunNoStages(t *testing.T) {
	got, err := Run[int](logging.Discard(), 7)
	if err != nil || got != 7 {
		t.Errorf("Run() = %d, %v; want 7, nil", got, err)
	}
}
