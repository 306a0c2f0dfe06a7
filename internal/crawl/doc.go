// Package crawl implements the windowed pagination/resume controller.
//
// Each run reconciles the durable checkpoint against store statistics,
// derives the active recorded-date window, and walks result pages until a
// terminal condition fires. The checkpoint is rewritten after every page
// and on every exit path, so a crash or scheduled restart never loses or
// duplicates work: the page just fetched is durable before the next one is
// requested, and buffered records are flushed in the termination handler.
//
// The loop is an explicit state machine:
//
//	STARTUP_RECONCILE -> (SLIDE?) -> PAGE_FETCH ->
//	  {EXTRACT -> BUFFER -> (FLUSH?) -> ADVANCE_OFFSET -> CHECKPOINT -> NEXT_PAGE} loop ->
//	TERMINATE(flush, checkpoint)
//
// Terminal transitions are enumerated as StopReason values.
package crawl
