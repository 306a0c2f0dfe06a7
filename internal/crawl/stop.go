package crawl

// StopReason names the terminal transition that ended a crawl run.
type StopReason string

// Terminal transitions of the crawl loop.
const (
	// StopSessionBudget: the per-run page budget was exhausted.
	StopSessionBudget StopReason = "session_page_budget"
	// StopOffsetCeiling: the offset reached the portal's result ceiling;
	// the slide decision is deferred to the next run's reconciliation.
	StopOffsetCeiling StopReason = "offset_ceiling"
	// StopCeilingMarker: a hard ceiling/error marker was detected in page
	// content after a render timeout.
	StopCeilingMarker StopReason = "ceiling_marker"
	// StopNoRows: the page rendered but yielded zero extractable rows.
	StopNoRows StopReason = "no_rows"
	// StopNoNextPage: no further pagination control was available.
	StopNoNextPage StopReason = "no_next_page"
	// StopFetchError: an unrecoverable fetch or navigation fault.
	StopFetchError StopReason = "fetch_error"
	// StopInterrupted: the run context was canceled between pages.
	StopInterrupted StopReason = "interrupted"
)
