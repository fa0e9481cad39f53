// Package snapshot reads and writes the JSON snapshot pointer: the
// write-once document that publishes a table state at one commit.
package snapshot

import (
	"context"
	"encoding/json"
	"io"

	"github.com/strata-db/strata/internal/storage"
	"github.com/strata-db/strata/internal/table/errs"
	"github.com/strata-db/strata/internal/table/types"
	"github.com/strata-db/strata/pkg/errors"
)

// wireSnapshot mirrors types.Snapshot field-for-field so the JSON
// encoding is explicit and independent of struct-tag reflection defaults:
// field names and presence are part of the wire contract, not an
// accident of Go's json package.
type wireSnapshot struct {
	ID               uint64 `json:"id"`
	ManifestList     string `json:"manifestList"`
	CommitUser       string `json:"commitUser"`
	CommitIdentifier string `json:"commitIdentifier"`
	CommitKind       string `json:"commitKind"`
	TimeMillis       int64  `json:"timeMillis"`
}

// Encode serializes s to its JSON wire form.
func Encode(s types.Snapshot) ([]byte, error) {
	w := wireSnapshot{
		ID:               s.ID,
		ManifestList:     s.ManifestList,
		CommitUser:       s.CommitUser,
		CommitIdentifier: s.CommitIdentifier,
		CommitKind:       string(s.CommitKind),
		TimeMillis:       s.TimeMillis,
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, errors.New(errs.FormatError, "failed to encode snapshot", err)
	}
	return data, nil
}

// Decode parses a snapshot from its JSON wire form. Unknown fields are
// ignored; an unrecognized commitKind fails with FormatError.
func Decode(data []byte) (types.Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return types.Snapshot{}, errors.New(errs.FormatError, "malformed snapshot json", err)
	}

	var kind types.CommitKind
	switch w.CommitKind {
	case string(types.CommitAppend):
		kind = types.CommitAppend
	case string(types.CommitCompact):
		kind = types.CommitCompact
	default:
		return types.Snapshot{}, errors.New(errs.FormatError, "unknown commitKind", nil).AddContext("commitKind", w.CommitKind)
	}

	return types.Snapshot{
		ID:               w.ID,
		ManifestList:     w.ManifestList,
		CommitUser:       w.CommitUser,
		CommitIdentifier: w.CommitIdentifier,
		CommitKind:       kind,
		TimeMillis:       w.TimeMillis,
	}, nil
}

// Write encodes s and writes it to path. Snapshot files are write-once:
// callers must mint a fresh path per snapshot id rather than overwrite an
// existing one.
func Write(ctx context.Context, backend storage.Backend, path string, s types.Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	w, err := backend.Create(ctx, path)
	if err != nil {
		return errors.New(errs.IoError, "failed to create snapshot file", err).AddContext("path", path)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return errors.New(errs.IoError, "failed to write snapshot file", err).AddContext("path", path)
	}
	return w.Close()
}

// Read loads and decodes the snapshot at path. A missing file is
// reported as SnapshotNotFound.
func Read(ctx context.Context, backend storage.Backend, path string) (types.Snapshot, error) {
	exists, err := backend.Exists(ctx, path)
	if err != nil {
		return types.Snapshot{}, errors.New(errs.IoError, "failed to check snapshot existence", err).AddContext("path", path)
	}
	if !exists {
		return types.Snapshot{}, errors.New(errs.SnapshotNotFound, "snapshot file not found", nil).AddContext("path", path)
	}

	r, err := backend.Open(ctx, path)
	if err != nil {
		return types.Snapshot{}, errors.New(errs.IoError, "failed to open snapshot file", err).AddContext("path", path)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return types.Snapshot{}, errors.New(errs.IoError, "failed to read snapshot file", err).AddContext("path", path)
	}

	return Decode(data)
}
