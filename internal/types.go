package internal

type ReviewSource string

const (
	SourceCSV  ReviewSource = "csv"
	SourceXLSX ReviewSource = "xlsx"
	SourceHTML ReviewSource = "html"
)

// Review is one data row of a review dataset.
type Review struct {
	Row       int
	Source    ReviewSource
	BankLabel string
	Text      string
	Extra     map[string]string
}

// ProcessedReview carries the classifier, translation and cleaning results.
// TextEN is nil when translation failed or was skipped.
type ProcessedReview struct {
	Review
	Bank      string
	TextEN    *string
	TextClean string
}

type RunStatus string

const (
	RunStarted  RunStatus = "started"
	RunFinished RunStatus = "finished"
	RunFailed   RunStatus = "failed"
)

type RunRow struct {
	ID         string
	InputPath  string
	Translator string
	Status     RunStatus
	Reviews    int
	Translated int
	Missing    int
	Timings    map[string]float64
	CreatedAt  string
	FinishedAt *string
}

type BankLabelRow struct {
	Label     string
	Bank      string
	SeenCount int
	LastRunID string
}

type BankCount struct {
	Bank  string
	Count int
}
