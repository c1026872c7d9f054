package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"bankreviews/internal/banks"
	"bankreviews/internal/config"
	"bankreviews/internal/logger"
	"bankreviews/internal/pipeline"
	"bankreviews/internal/storage"
	"bankreviews/internal/textclean"
	"bankreviews/internal/translate"
)

// missingMarker is printed in place of a translation that could not be made.
const missingMarker = "NaN"

func main() {
	cfg, err := config.Load()
	must(err)
	must(logger.Configure(cfg.LogLevel, cfg.LogFormat))

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := os.Args[1]
	switch cmd {
	case "labels:map":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "dataset file or plain text file with one label per line")
		_ = fs.Parse(os.Args[2:])
		labels := fs.Args()
		if *input != "" {
			fromFile, err := readLabels(cfg, *input)
			must(err)
			labels = append(labels, fromFile...)
		}
		if len(labels) == 0 {
			must(fmt.Errorf("pass labels as arguments or --input"))
		}
		mapping := banks.MapLabels(labels)
		seen := map[string]bool{}
		for _, label := range labels {
			if seen[label] {
				continue
			}
			seen[label] = true
			fmt.Printf("%s\t%s\n", label, mapping[label])
		}
		tally := banks.Tally(mapping, labels)
		fmt.Fprintf(os.Stderr, "mapped %d labels (%d distinct)\n", len(labels), len(mapping))
		for _, bank := range append(banks.Banks(), banks.Unknown) {
			if n := tally[bank]; n > 0 {
				fmt.Fprintf(os.Stderr, "  %-20s %d\n", bank, n)
			}
		}
	case "labels:rules":
		for i, rule := range banks.Rules() {
			fmt.Printf("%2d\t%s\t%s\n", i+1, rule.Bank, rule.Pattern.String())
		}
		fmt.Printf("--\t%s\t(no match)\n", banks.Unknown)
	case "labels:list":
		db := openDB(cfg)
		defer db.Close()
		rows, err := db.ListBankLabels()
		must(err)
		for _, row := range rows {
			fmt.Printf("%s\t%s\t%d\t%s\n", row.Label, row.Bank, row.SeenCount, row.LastRunID)
		}
	case "translate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		from := fs.String("from", cfg.TranslateSourceLang, "source language")
		to := fs.String("to", cfg.TranslateTargetLang, "target language")
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() == 0 {
			must(fmt.Errorf("nothing to translate"))
		}
		db := openDB(cfg)
		defer db.Close()
		tr, err := translate.New(cfg, db)
		must(err)
		results := translate.NewBatch(tr, *from, *to).TranslateAll(ctx, fs.Args())
		for _, r := range results {
			if r == nil {
				fmt.Println(missingMarker)
				continue
			}
			fmt.Println(*r)
		}
	case "clean":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		mode := fs.String("mode", cfg.CleanMode, "lemma|stem")
		_ = fs.Parse(os.Args[2:])
		cleaner, err := newCleaner(cfg, *mode)
		must(err)
		for _, line := range cleaner.CleanAll(fs.Args()) {
			fmt.Println(line)
		}
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "dataset path (.csv, .xlsx, .html)")
		output := fs.String("output", "", "output xlsx path")
		noTranslate := fs.Bool("no-translate", false, "skip machine translation")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		db := openDB(cfg)
		defer db.Close()

		var tr translate.Translator
		if !*noTranslate {
			tr, err = translate.New(cfg, db)
			must(err)
		}
		cleaner, err := newCleaner(cfg, cfg.CleanMode)
		must(err)

		processor := pipeline.NewProcessingService(db, cfg, tr, cleaner)
		res, err := processor.Run(ctx, *input, pipeline.RunOptions{Output: *output, Translate: !*noTranslate})
		must(err)
		fmt.Printf("run done id=%s reviews=%d translated=%d missing=%d\n", res.RunID, res.Reviews, res.Translated, res.Missing)
		for _, c := range res.Banks {
			fmt.Printf("  %-20s %d\n", c.Bank, c.Count)
		}
		if res.Output != "" {
			fmt.Printf("output=%s\n", res.Output)
		}
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.String("run", "", "run id")
		out := fs.String("out", "", "output xlsx path (default OUTPUT_DIR/<run>.xlsx)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*runID) == "" {
			must(fmt.Errorf("--run is required"))
		}
		if strings.TrimSpace(*out) == "" {
			*out = filepath.Join(cfg.OutputDir, *runID+".xlsx")
		}
		db := openDB(cfg)
		defer db.Close()
		processor := pipeline.NewProcessingService(db, cfg, nil, nil)
		must(processor.ExportRun(*runID, *out))
		fmt.Printf("exported run %s to %s\n", *runID, *out)
	default:
		usage()
		os.Exit(1)
	}
}

func openDB(cfg config.Config) *storage.DB {
	db, err := storage.Open(cfg.DBPath)
	must(err)
	return db
}

func newCleaner(cfg config.Config, mode string) (*textclean.Cleaner, error) {
	return textclean.New(textclean.Options{
		Mode:           mode,
		ExtraStopwords: cfg.CleanExtraStopwords,
		LemmaDictPath:  cfg.CleanLemmaDictPath,
	})
}

// readLabels takes the label column of a dataset file, or every non-empty
// line of any other file.
func readLabels(cfg config.Config, path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx", ".html", ".htm":
		reviews, err := pipeline.LoadReviews(path, cfg.DatasetLabelColumn, cfg.DatasetTextColumn)
		if err != nil {
			return nil, err
		}
		labels := make([]string, 0, len(reviews))
		for _, r := range reviews {
			labels = append(labels, r.BankLabel)
		}
		return labels, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var labels []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			labels = append(labels, line)
		}
	}
	return labels, sc.Err()
}

func usage() {
	fmt.Println("usage: bankreviews <command>")
	fmt.Println("commands:")
	fmt.Println("  labels:map [--input=labels.txt|reviews.csv] [label ...]")
	fmt.Println("  labels:rules")
	fmt.Println("  labels:list")
	fmt.Println("  translate [--from=fr] [--to=en] text ...")
	fmt.Println("  clean [--mode=lemma|stem] text ...")
	fmt.Println("  run --input=reviews.csv [--output=./out/reviews.xlsx] [--no-translate]")
	fmt.Println("  export:xlsx --run=<id> [--out=./out/reviews.xlsx]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
