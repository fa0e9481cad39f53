package paths

import "github.com/strata-db/strata/pkg/errors"

// Path-specific error codes
var (
	ErrDirectoryCreationFailed = errors.MustNewCode("paths.directory_creation_failed")
	ErrEmptyPartitionField     = errors.MustNewCode("paths.empty_partition_field")
)
