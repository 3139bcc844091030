// Package stagecache persists per-stage pipeline outputs keyed by
// (run_id, stage) in SQLite. A record's presence is the sole signal that a
// stage may be skipped on a subsequent run; corrupt records read as absent
// so a damaged row triggers recomputation instead of aborting the run.
//
// There is deliberately no invalidation when upstream inputs change: a
// record, once written, is authoritative for its run until explicitly
// cleared. That staleness risk is inherited behavior, and `parley cache
// clear` is the manual escape hatch.
package stagecache
