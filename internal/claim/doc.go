// Package claim provides the scheduler.Executor implementations that perform
// the actual faucet claim for one account.
//
// BrowserExecutor drives headless Chrome through chromedp: it opens the
// faucet page (through the account's proxy when it has one), fills in the
// wallet, picks the amount, presses send and then waits out the proof
// generation period. CommandExecutor hands the same job to an external
// program and reads its progress from stdout.
//
// Both executors abort promptly when their context is cancelled, and neither
// lets a failure to tear down its resources change the claim outcome.
package claim
