// Package prompteval measures how prompting strategies change an LLM's accuracy
// on grade-school math word problems.
//
// A [Client] wires a model provider behind the rate-limited model client,
// grades answers with a second model call and runs strategies over a dataset
// with the batched evaluation engine in the eval package.
//
// # Main Packages
//
// The strategies live in the strategy package, the engine in eval and the
// persisted record shapes in experiment. Results are read back by analysis.
//
// # Configuration
//
// The client reads configuration from environment variables, see
// [config.FromEnv] for the full list. Explicit options take precedence.
package prompteval
