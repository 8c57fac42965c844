package usecase

// ItemStatus classifies one item of a batch run. Batches never abort on a
// single item: everything is reported and the run continues.
type ItemStatus string

const (
	ItemStatusOK      ItemStatus = "ok"
	ItemStatusSkipped ItemStatus = "skipped"
	ItemStatusFailed  ItemStatus = "failed"
)

type ItemResult struct {
	Key    string
	Status ItemStatus
	Reason string
	Err    error
}

func itemOK(key string) ItemResult {
	return ItemResult{Key: key, Status: ItemStatusOK}
}

func itemSkipped(key, reason string) ItemResult {
	return ItemResult{Key: key, Status: ItemStatusSkipped, Reason: reason}
}

func itemFailed(key string, err error) ItemResult {
	return ItemResult{Key: key, Status: ItemStatusFailed, Err: err}
}

// BatchReport collects per-item results of one batch operation.
type BatchReport struct {
	Operation string
	Items     []ItemResult
}

func newBatchReport(operation string) *BatchReport {
	return &BatchReport{Operation: operation}
}

func (r *BatchReport) add(items ...ItemResult) {
	r.Items = append(r.Items, items...)
}

func (r *BatchReport) Total() int { return len(r.Items) }

func (r *BatchReport) CountByStatus(status ItemStatus) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

func (r *BatchReport) OK() int      { return r.CountByStatus(ItemStatusOK) }
func (r *BatchReport) Skipped() int { return r.CountByStatus(ItemStatusSkipped) }
func (r *BatchReport) Failed() int  { return r.CountByStatus(ItemStatusFailed) }

// LogFields renders the summary as logger key-value pairs.
func (r *BatchReport) LogFields() []any {
	return []any{
		"operation", r.Operation,
		"total", r.Total(),
		"ok", r.OK(),
		"skipped", r.Skipped(),
		"failed", r.Failed(),
	}
}
