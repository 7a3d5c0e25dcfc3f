package domain

import "time"

// Headline is a single entry returned by a news-list provider.
type Headline struct {
	Title          string
	Source         string
	Published      time.Time
	RelatedSymbols []string
	Link           string
}

// RawNews is one fetched article as written to the run snapshot.
type RawNews struct {
	Title          string `json:"title"`
	Source         string `json:"source"`
	Published      string `json:"published"`
	RelatedSymbols string `json:"related_symbols"`
	Link           string `json:"link"`
	Content        string `json:"content"`
}

// Snapshot is the batch produced by one fetch run for one symbol.
type Snapshot struct {
	Symbol    string    `json:"symbol"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	News      []RawNews `json:"news"`
}

// AppendOutcome is the per-candidate result of a batch insert.
type AppendOutcome string

const (
	OutcomeInserted  AppendOutcome = "inserted"
	OutcomeDuplicate AppendOutcome = "duplicate"
	OutcomeError     AppendOutcome = "error"
)

// ItemResult records what happened to one candidate.
type ItemResult struct {
	Link    string
	Title   string
	Outcome AppendOutcome
	Err     error
}

// AppendResult aggregates the outcomes of one batch insert.
type AppendResult struct {
	Items      []ItemResult
	Inserted   int
	Duplicates int
	Failed     int
}

// Record appends an item outcome and updates the counters.
func (r *AppendResult) Record(item ItemResult) {
	r.Items = append(r.Items, item)
	switch item.Outcome {
	case OutcomeInserted:
		r.Inserted++
	case OutcomeDuplicate:
		r.Duplicates++
	case OutcomeError:
		r.Failed++
	}
}

// EnrichResult summarizes one pass over the backlog.
type EnrichResult struct {
	Processed   int
	Summarized  int
	Failed      int
	StoreErrors int
	Errors      []error
}
