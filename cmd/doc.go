// Package cmd implements the driveway command-line interface: an
// interactive folder browser, the authorization flow, and version
// reporting.
package cmd
