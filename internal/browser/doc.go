// Package browser glues the session manager, navigation state, listing
// adapter, and upload orchestrator into a single folder-browser
// controller. Every user action mutates navigation state if needed,
// performs its remote effect, and resynchronizes the listing.
package browser
