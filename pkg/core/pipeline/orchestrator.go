// Package pipeline drives one model generation end to end: validate the
// document, assemble the workbook, commit it to disk, render the run
// report, and record the run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"finmodel/pkg/core/assumption"
	"finmodel/pkg/core/report"
	"finmodel/pkg/core/store"
	"finmodel/pkg/core/workbook"
	"finmodel/pkg/excel"
	"finmodel/pkg/models"
)

// Orchestrator manages the generate-commit-record flow for model runs.
// Builds are pure until Finalize, so a failed run leaves no partial
// workbook behind.
type Orchestrator struct {
	outDir     string
	logger     *zap.Logger
	repo       store.RunRepository
	batchLimit int
}

// NewOrchestrator creates an orchestrator writing artifacts under outDir.
// A nil logger disables logging.
func NewOrchestrator(outDir string, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		outDir:     outDir,
		logger:     logger,
		batchLimit: 4,
	}
}

// SetRepository injects a run repository. Without one, runs live only on
// disk.
func (o *Orchestrator) SetRepository(repo store.RunRepository) {
	o.repo = repo
}

// SetBatchLimit caps how many documents a batch generates concurrently.
func (o *Orchestrator) SetBatchLimit(limit int) {
	if limit > 0 {
		o.batchLimit = limit
	}
}

// Run generates one workbook from a parsed document and returns the run
// record. The workbook and its markdown report land under the output
// directory, named by the run ID.
func (o *Orchestrator) Run(ctx context.Context, doc *assumption.Document) (*models.ModelRun, error) {
	start := time.Now()
	id := uuid.NewString()
	o.logger.Info("model run started",
		zap.String("run_id", id),
		zap.String("company", doc.Company),
		zap.String("model_type", doc.ModelType),
	)

	if err := os.MkdirAll(o.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	workbookPath := filepath.Join(o.outDir, id+".xlsx")
	sink := excel.NewFileSink(workbookPath)
	defer sink.Close()

	summary, err := workbook.NewAssembler(sink).Build(doc)
	if err != nil {
		o.logger.Warn("model build rejected",
			zap.String("run_id", id),
			zap.String("company", doc.Company),
			zap.Error(err),
		)
		return nil, err
	}
	if err := sink.Finalize(); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	// Record the effective document, not the submitted bytes, so the run
	// stores valid JSON even for Hjson and YAML submissions.
	effective, err := doc.MarshalIndent()
	if err != nil {
		return nil, fmt.Errorf("render assumptions: %w", err)
	}

	run := &models.ModelRun{
		ID:           id,
		Company:      doc.Company,
		ModelType:    summary.ModelType,
		Assumptions:  effective,
		Summary:      *summary,
		WorkbookPath: workbookPath,
		CreatedAt:    time.Now().UTC(),
	}

	reportPath := filepath.Join(o.outDir, id+".md")
	if err := os.WriteFile(reportPath, []byte(report.Markdown(run)), 0o644); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	if o.repo != nil {
		if err := o.repo.Save(ctx, run); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}

	o.logger.Info("model run complete",
		zap.String("run_id", id),
		zap.String("company", doc.Company),
		zap.String("workbook", workbookPath),
		zap.Int("checks", len(summary.Checks)),
		zap.Strings("flags", summary.Flags),
		zap.Duration("elapsed", time.Since(start)),
	)
	return run, nil
}

// RunBatch generates workbooks for several documents concurrently and fails
// fast: the first error cancels the remaining builds.
func (o *Orchestrator) RunBatch(ctx context.Context, docs []*assumption.Document) ([]*models.ModelRun, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.batchLimit)

	runs := make([]*models.ModelRun, len(docs))
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run, err := o.Run(ctx, doc)
			if err != nil {
				return fmt.Errorf("%s: %w", doc.Company, err)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}
