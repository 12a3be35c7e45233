// Package jobs defines the core types and interfaces for the job ingestion
// pipeline: the canonical job record, the raw extraction shapes that feed it,
// and the contracts between the fetch, render, extract, and persistence layers.
package jobs
