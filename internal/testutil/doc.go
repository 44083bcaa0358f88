// Package testutil provides shared test utilities for the captcha server.
//
// # Environment Helpers
//
//   - SetupTestDir(t) - creates a temp directory and returns stat/log file paths in it
//   - WriteTestFile(t, base, path, content) - writes a file in the test dir
//   - ReadTestFile(t, path) - reads a file or fails the test
//
// # Fixtures
//
//   - FixedSource - a deterministic random source cycling through given bytes
//   - SampleStatFile, CorruptStatFile - stat file contents
//
// # Assertions
//
//   - AssertStatFile(t, path, success, failed) - checks persisted counters
//   - AssertLogLines(t, path, n) - checks the number of failure events
//   - AssertNoLogFile(t, path) - checks that no failure was ever logged
//
// # Timeouts
//
//   - ContextWithTestDeadline(t, fallback) - context bounded by the test deadline
//   - ShortOperationContext(t) - 30 second variant for dial/accept round trips
//
// # Usage
//
//	func TestSomething(t *testing.T) {
//	    env := testutil.SetupTestDir(t)
//	    src := testutil.NewFixedSource(3, 4)
//	    // ... run server against env.StatFile / env.LogFile ...
//	    testutil.AssertStatFile(t, env.StatFile, 1, 0)
//	}
package testutil
