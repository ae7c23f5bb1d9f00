// Package pipeline assembles valuation reports from fingerprint payloads.
//
// An Assembler runs a fixed sequence of steps over one payload: validate,
// entropy, defense, persona and rtb. Each step reads what earlier steps left
// in the shared Assembly and adds its own result. The first failing step
// aborts the run and the caller receives a single *AssemblyError naming the
// step; no partially filled report ever escapes.
//
// The assembler performs no I/O. BatchProcessor sits on top of it and values
// many payloads concurrently with a concurrency limit using errgroup.
package pipeline
