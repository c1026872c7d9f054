package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bankreviews/internal"
	"bankreviews/internal/banks"
	"bankreviews/internal/config"
	"bankreviews/internal/logger"
	"bankreviews/internal/storage"
	"bankreviews/internal/textclean"
	"bankreviews/internal/translate"
	"bankreviews/internal/util"
)

type ProcessingService struct {
	db         *storage.DB
	cfg        config.Config
	translator translate.Translator
	cleaner    *textclean.Cleaner
}

// NewProcessingService wires the run pipeline. translator may be nil, in
// which case every run behaves as if translation were disabled. cleaner may
// be nil for a service that only exports stored runs.
func NewProcessingService(db *storage.DB, cfg config.Config, translator translate.Translator, cleaner *textclean.Cleaner) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg, translator: translator, cleaner: cleaner}
}

type RunOptions struct {
	Output    string
	Translate bool
}

type RunResult struct {
	RunID      string
	Reviews    int
	Translated int
	Missing    int
	Banks      []internal.BankCount
	Output     string
}

// Run loads a dataset, processes it and stores the outcome. A run that fails
// after it was recorded is marked failed.
func (s *ProcessingService) Run(ctx context.Context, inputPath string, opts RunOptions) (RunResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := logger.With("run", runID)

	translatorName := "none"
	if opts.Translate && s.translator != nil {
		translatorName = s.translator.Name()
	}
	run := internal.RunRow{ID: runID, InputPath: inputPath, Translator: translatorName, Status: internal.RunStarted}
	if err := s.db.InsertRun(run); err != nil {
		return RunResult{}, err
	}

	fail := func(err error) (RunResult, error) {
		logger.Errorf("run %s failed: %v", runID, err)
		run.Status = internal.RunFailed
		run.Timings = map[string]float64{"totalMs": msSince(start)}
		if ferr := s.db.FinishRun(run); ferr != nil {
			log.Error("mark run failed", "err", ferr)
		}
		return RunResult{RunID: runID}, err
	}

	reviews, err := LoadReviews(inputPath, s.cfg.DatasetLabelColumn, s.cfg.DatasetTextColumn)
	if err != nil {
		return fail(err)
	}
	loadMs := msSince(start)
	log.Info("dataset loaded", "path", inputPath, "reviews", len(reviews))

	stepStart := time.Now()
	processed, err := s.Process(ctx, reviews, opts.Translate)
	if err != nil {
		return fail(err)
	}
	processMs := msSince(stepStart)

	if err := s.db.InsertReviews(runID, processed); err != nil {
		return fail(err)
	}
	if err := s.db.UpsertBankLabels(labelRows(runID, processed)); err != nil {
		return fail(err)
	}

	translated := 0
	for _, r := range processed {
		if r.TextEN != nil {
			translated++
		}
	}
	run.Status = internal.RunFinished
	run.Reviews = len(processed)
	run.Translated = translated
	run.Missing = len(processed) - translated
	run.Timings = map[string]float64{"loadMs": loadMs, "processMs": processMs, "totalMs": msSince(start)}
	if err := s.db.FinishRun(run); err != nil {
		return RunResult{}, err
	}

	counts, err := s.db.CountByBank(runID)
	if err != nil {
		return RunResult{}, err
	}

	res := RunResult{
		RunID:      runID,
		Reviews:    run.Reviews,
		Translated: run.Translated,
		Missing:    run.Missing,
		Banks:      counts,
	}
	if opts.Output != "" {
		if err := ExportRowsToXLSX(processed, counts, opts.Output); err != nil {
			return res, fmt.Errorf("export run %s: %w", runID, err)
		}
		res.Output = opts.Output
	}

	log.Info("run finished", "reviews", res.Reviews, "translated", res.Translated, "missing", res.Missing, "totalMs", run.Timings["totalMs"])
	return res, nil
}

// Process classifies, translates and cleans reviews in input order. Only
// cancellation of ctx is reported as an error; per-item translation
// failures leave TextEN nil.
func (s *ProcessingService) Process(ctx context.Context, reviews []internal.Review, withTranslation bool) ([]internal.ProcessedReview, error) {
	labels := make([]string, len(reviews))
	texts := make([]string, len(reviews))
	for i, r := range reviews {
		labels[i] = r.BankLabel
		texts[i] = r.Text
	}

	mapping := banks.MapLabels(labels)

	translations := make([]*string, len(reviews))
	if withTranslation && s.translator != nil {
		batch := translate.NewBatch(s.translator, s.cfg.TranslateSourceLang, s.cfg.TranslateTargetLang)
		translations = batch.TranslateAll(ctx, texts)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if missing := translate.Missing(translations); missing > 0 {
			logger.Warnf("%d/%d reviews left untranslated", missing, len(reviews))
		}
	}

	toClean := make([]string, len(reviews))
	for i := range reviews {
		toClean[i] = util.FirstNonEmpty(util.DerefString(translations[i]), texts[i])
	}
	cleaned := s.cleaner.CleanAll(toClean)

	out := make([]internal.ProcessedReview, len(reviews))
	for i, r := range reviews {
		out[i] = internal.ProcessedReview{
			Review:    r,
			Bank:      string(mapping[r.BankLabel]),
			TextEN:    translations[i],
			TextClean: cleaned[i],
		}
	}
	return out, nil
}

// ExportRun writes a stored run to an XLSX workbook.
func (s *ProcessingService) ExportRun(runID, outputPath string) error {
	if _, err := s.db.MustRun(runID); err != nil {
		return err
	}
	rows, err := s.db.ListReviews(runID)
	if err != nil {
		return err
	}
	counts, err := s.db.CountByBank(runID)
	if err != nil {
		return err
	}
	return ExportRowsToXLSX(rows, counts, outputPath)
}

func labelRows(runID string, reviews []internal.ProcessedReview) []internal.BankLabelRow {
	index := map[string]int{}
	var out []internal.BankLabelRow
	for _, r := range reviews {
		if i, ok := index[r.BankLabel]; ok {
			out[i].SeenCount++
			continue
		}
		index[r.BankLabel] = len(out)
		out = append(out, internal.BankLabelRow{Label: r.BankLabel, Bank: r.Bank, SeenCount: 1, LastRunID: runID})
	}
	return out
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
