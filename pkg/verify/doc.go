// Package verify implements the page verification run.
//
// A run acquires one browser session, forwards the page's console output and
// uncaught errors to the operator, then checks each target in order:
// navigate, wait for the marker text to be visible, save a full-page PNG.
// The first failure is reported and skips the remaining targets. The
// session is released on every path, including panics raised by a driver.
//
// Defaults check the BillScan dashboard ("/", "BillScan") and upload page
// ("/upload", "Take a Photo") on http://localhost:3001 and write
// verification/dashboard.png and verification/upload_page.png.
package verify
