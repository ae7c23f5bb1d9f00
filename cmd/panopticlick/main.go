// Package main provides the entry point for the Panopticlick CLI.
//
// Panopticlick values a browser fingerprint the way the advertising market
// would: how unique it is, what a simulated ad auction would pay for it,
// and how well the browser defends itself.
//
// Usage:
//
//	panopticlick value payload.json
//	panopticlick compare <payload-hash>
//	panopticlick serve --addr :8080
//
// See --help for all available options.
package main

// main is the entry point for Panopticlick.
func main() {
	Execute()
}
