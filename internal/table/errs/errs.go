// Package errs defines the error taxonomy shared by every internal/table
// subpackage: scanning, merging, and committing all fail in one of these
// ways, and callers branch on the code rather than the package that raised
// it.
package errs

import "github.com/strata-db/strata/pkg/errors"

var (
	// IoError is a storage read failure. Callers may retry at plan
	// granularity.
	IoError = errors.MustNewCode("table.io_error")

	// FormatError marks a malformed snapshot or manifest. Fatal for that
	// snapshot.
	FormatError = errors.MustNewCode("table.format_error")

	// CorruptManifest marks a logical inconsistency in an ADD/DELETE
	// sequence. Fatal.
	CorruptManifest = errors.MustNewCode("table.corrupt_manifest")

	// SnapshotNotFound means no snapshot file exists for a requested id.
	// Fatal to the request, not to the process.
	SnapshotNotFound = errors.MustNewCode("table.snapshot_not_found")

	// FilterTypeMismatch means a predicate references a field type
	// incompatible with the schema. Reported at plan time.
	FilterTypeMismatch = errors.MustNewCode("table.filter_type_mismatch")

	// Cancelled marks cooperative cancellation via context.
	Cancelled = errors.MustNewCode("table.cancelled")
)
