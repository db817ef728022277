package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"finmodel/pkg/models"
)

func TestMemoryRunRepoSaveLoad(t *testing.T) {
	repo := NewMemoryRunRepo()
	ctx := context.Background()

	run := &models.ModelRun{
		ID:           "run-1",
		Company:      "Acme Buyout",
		ModelType:    models.ModelTypeLBO,
		WorkbookPath: "runs/run-1.xlsx",
		CreatedAt:    time.Now(),
		Summary:      models.RunSummary{ModelType: models.ModelTypeLBO, IRR: 0.37},
	}
	if err := repo.Save(ctx, run); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Company != "Acme Buyout" || got.Summary.IRR != 0.37 {
		t.Errorf("loaded run = %+v", got)
	}

	// The stored record is a copy, not an alias.
	run.Company = "mutated"
	got, _ = repo.Load(ctx, "run-1")
	if got.Company != "Acme Buyout" {
		t.Error("repository aliases caller memory")
	}
}

func TestMemoryRunRepoNotFound(t *testing.T) {
	repo := NewMemoryRunRepo()
	_, err := repo.Load(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestMemoryRunRepoRecentOrder(t *testing.T) {
	repo := NewMemoryRunRepo()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		run := &models.ModelRun{ID: fmt.Sprintf("run-%d", i)}
		if err := repo.Save(ctx, run); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	runs, err := repo.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len = %d, want 3", len(runs))
	}
	for i, want := range []string{"run-4", "run-3", "run-2"} {
		if runs[i].ID != want {
			t.Errorf("runs[%d] = %s, want %s", i, runs[i].ID, want)
		}
	}

	// Re-saving an existing ID must not duplicate it.
	if err := repo.Save(ctx, &models.ModelRun{ID: "run-0"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	runs, _ = repo.Recent(ctx, 100)
	if len(runs) != 5 {
		t.Errorf("len after upsert = %d, want 5", len(runs))
	}
}
