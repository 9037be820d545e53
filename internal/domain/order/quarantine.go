package order

import "strings"

// Violation is one field-level validation failure
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
	Source  Source `json:"source"`
}

func (v Violation) String() string {
	return v.Message
}

// QuarantinedRecord collects every violation reported for one order id in a run
type QuarantinedRecord struct {
	OrderID string
	RunID   string
	Sources []Source
	Errors  []Violation
}

// Messages returns the violation messages in report order
func (q QuarantinedRecord) Messages() []string {
	out := make([]string, len(q.Errors))
	for i, v := range q.Errors {
		out[i] = v.Message
	}
	return out
}

// HasField reports whether any violation names the given column
func (q QuarantinedRecord) HasField(field string) bool {
	for _, v := range q.Errors {
		if strings.EqualFold(v.Field, field) {
			return true
		}
	}
	return false
}

// GroupQuarantine concatenates the given batches and folds entries sharing an
// order id into one record. Groups keep first-seen order and violations keep
// their input order.
func GroupQuarantine(runID string, batches ...[]QuarantinedRecord) []QuarantinedRecord {
	index := make(map[string]int)
	var out []QuarantinedRecord
	for _, batch := range batches {
		for _, rec := range batch {
			i, ok := index[rec.OrderID]
			if !ok {
				index[rec.OrderID] = len(out)
				out = append(out, QuarantinedRecord{OrderID: rec.OrderID, RunID: runID})
				i = len(out) - 1
			}
			g := &out[i]
			g.Errors = append(g.Errors, rec.Errors...)
			for _, src := range rec.Sources {
				if !containsSource(g.Sources, src) {
					g.Sources = append(g.Sources, src)
				}
			}
		}
	}
	return out
}

func containsSource(list []Source, s Source) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
