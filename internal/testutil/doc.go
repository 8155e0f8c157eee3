// Package testutil provides shared test utilities for quanta.
//
// # Fixtures
//
// The fixtures.go file provides sample data for testing:
//
//   - SampleDocument - a task document with tasks T1 and T2 in that order
//   - SampleRules, SamplePriorities - rules and priority file contents
//   - SampleTasks() - the tasks SampleDocument parses to
//
// # Environment Helpers
//
// The env.go file provides test environment setup:
//
//   - SetupTestDir(t) - creates a temp directory holding an environment
//     file, a task document, rules, priorities and a generation script
//   - WriteTestFile(t, base, path, content) - writes a file in test dir
//   - WriteScript(t, base, path, body) - writes an executable shell script
//
// # Clocks and Contexts
//
//   - FakeClock - a settable clock for gate and scheduler tests
//   - ScriptExecutionContext(t), SchedulerContext(t) - deadline-bounded
//     contexts for script and scheduler runs, in timeout.go
//
// # Assertions
//
//   - AssertTaskIDs(t, tasks, ids...) - checks parse order
//   - AssertLogContains(t, logText, lines...) - checks log lines in order
package testutil
