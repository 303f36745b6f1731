// Package upload sequences file uploads through the backend proxy's
// two-phase resumable protocol. Batches are strictly sequential: one file
// in flight at a time, stop at the first failure, no rollback of files
// already pushed.
package upload
