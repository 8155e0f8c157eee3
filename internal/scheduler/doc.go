// Package scheduler runs the polling loop that drives tasks through the
// pipeline.
//
// Each cycle:
//   - consults the timeout gate and skips the cycle while it is active
//   - reads and parses the task document
//   - runs every task, in document order, through the pipeline
//   - trips the gate on the first pipeline fault and abandons the cycle
//
// Between cycles the loop sleeps for the poll interval. Cancelling the
// context stops the loop after the task in flight completes; a pipeline
// run is never interrupted part way through a state.
//
// The optional Wake channel ends a sleep early. Watch provides one backed
// by filesystem notifications on the task document.
package scheduler
