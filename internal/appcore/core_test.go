package appcore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"microsim-core/simerr"
	"microsim/internal/model"
	"microsim/internal/output"
	"microsim/internal/store"
	"microsim/internal/writers"
	"microsim/pkg/api"
)

func sickSicker(t *testing.T, n int) model.Scenario {
	t.Helper()
	f, err := model.Parse(strings.NewReader(fmt.Sprintf("name: ss\nindividuals: %d\ncycles: 5\nsick_sicker: {}\n", n)))
	if err != nil {
		t.Fatal(err)
	}
	sc, err := f.Scenario(model.Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestJobsExpansion(t *testing.T) {
	sc := sickSicker(t, 5)
	jobs := Jobs([]model.Scenario{sc, sc}, output.StrategyBoth)
	if len(jobs) != 4 {
		t.Fatalf("want 4 jobs, got %d", len(jobs))
	}
	if jobs[0].Strategy != "none" || jobs[1].Strategy != "treatment" || !jobs[1].Input.Treatment {
		t.Fatalf("unexpected pairing: %+v %+v", jobs[0].Strategy, jobs[1].Strategy)
	}
	if jobs[0].Input.Seed != jobs[1].Input.Seed {
		t.Fatal("strategies must share the seed")
	}
	sc.Treatment = true
	if got := Jobs([]model.Scenario{sc}, ""); len(got) != 1 || got[0].Strategy != "treatment" {
		t.Fatalf("file strategy ignored: %+v", got)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{context.Canceled, ExitCancelled},
		{fmt.Errorf("x: %w", simerr.ErrInvalidDistribution), ExitUsage},
		{fmt.Errorf("x: %w", model.ErrInvalidModel), ExitUsage},
		{errors.New("disk full"), ExitIO},
	}
	for _, c := range cases {
		if got := ExitCode(c.err); got != c.want {
			t.Errorf("ExitCode(%v)=%d want %d", c.err, got, c.want)
		}
	}
}

func TestRunBothEmitsComparisonAndPersists(t *testing.T) {
	var out, errb bytes.Buffer
	db := filepath.Join(t.TempDir(), "runs.db")
	core, logs := observer.New(zap.InfoLevel)
	code := Run(context.Background(), &out, &errb, Options{
		Threads: 2, Jobs: 2, Strategy: output.StrategyBoth, Store: db,
		Logger: zap.New(core),
	}, []model.Scenario{sickSicker(t, 40)}, NewRecordWriterFactory("jsonl", writers.Options{}))
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, errb.String())
	}

	var kinds []string
	var cmp *api.ComparisonV1
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var r api.RecordV1
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("bad line %q: %v", line, err)
		}
		kinds = append(kinds, r.Kind)
		if r.Comparison != nil {
			cmp = r.Comparison
		}
		if r.Summary != nil && r.Summary.RunID == "" {
			t.Fatal("persisted runs must carry a run id")
		}
	}
	if strings.Join(kinds, ",") != "summary,summary,comparison" {
		t.Fatalf("kinds=%v", kinds)
	}
	if cmp.Base != "none" || cmp.Alt != "treatment" {
		t.Fatalf("comparison %+v", cmp)
	}
	if logs.FilterMessage("run finished").Len() != 2 {
		t.Fatalf("want 2 run logs, got %d", logs.FilterMessage("run finished").Len())
	}

	s, err := store.Open(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runs, err := s.ListRuns(context.Background(), 0)
	if err != nil || len(runs) != 2 {
		t.Fatalf("want 2 stored runs, got %d (%v)", len(runs), err)
	}
}

func TestRunInvalidInputExit2(t *testing.T) {
	sc := sickSicker(t, 3)
	sc.Input.Initial[0] = 9
	var out, errb bytes.Buffer
	code := Run(context.Background(), &out, &errb, Options{Threads: 1, Jobs: 1},
		[]model.Scenario{sc}, NewRecordWriterFactory("text", writers.Options{Header: true}))
	if code != ExitUsage {
		t.Fatalf("exit=%d want %d (stderr=%s)", code, ExitUsage, errb.String())
	}
	if errb.Len() == 0 {
		t.Fatalf("expected a diagnostic on stderr")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errb bytes.Buffer
	code := Run(ctx, &out, &errb, Options{Threads: 1, Jobs: 1},
		[]model.Scenario{sickSicker(t, 3)}, NewRecordWriterFactory("text", writers.Options{}))
	if code != ExitCancelled {
		t.Fatalf("exit=%d want 130", code)
	}
}
