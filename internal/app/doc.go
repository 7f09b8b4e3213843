// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the execution lifecycle of each mode
// (printing the order, printing the handle table, a simulated bring-up and
// watching descriptions), decoupled from the CLI entrypoint.
package app
