// Package dispatch implements the fit-scoring and slot-recommendation
// engine. It scores one job at a time against the current routes of each
// technician, ranks the roster by insertion cost and either auto-books the
// top candidate or surfaces the ranked list for human approval.
package dispatch
