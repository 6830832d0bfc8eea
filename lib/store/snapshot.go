// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/workline-foundation/workline/lib/codec"
	"github.com/workline-foundation/workline/lib/ref"
	"github.com/workline-foundation/workline/lib/schema"
	"github.com/workline-foundation/workline/lib/wferr"
)

// snapshotVersion is bumped whenever the snapshot layout changes
// incompatibly. Import rejects versions it does not know.
const snapshotVersion = 1

// Snapshot is a self-contained export of one project: the project
// row plus every task, invoice, work-hour entry, and audit event
// under it. Encoded as deterministic CBOR and zstd-compressed, so
// exporting the same project twice yields identical bytes.
type Snapshot struct {
	Version  int                     `cbor:"version"`
	Project  *schema.Project         `cbor:"project"`
	Tasks    []*schema.Task          `cbor:"tasks,omitempty"`
	Invoices []*schema.Invoice       `cbor:"invoices,omitempty"`
	Hours    []*schema.WorkHourEntry `cbor:"hours,omitempty"`
	History  []*schema.HistoryEvent  `cbor:"history,omitempty"`
}

// Shared zstd coders. EncodeAll/DecodeAll on a nil-stream coder is
// the concurrent-safe usage pattern.
var (
	snapshotEncoder *zstd.Encoder
	snapshotDecoder *zstd.Decoder
)

func init() {
	var err error
	snapshotEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	snapshotDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// ExportProject serializes one project and everything under it into
// a compressed snapshot. The read runs in a single transaction, so
// the snapshot is internally consistent even under concurrent writes.
func (s *Store) ExportProject(ctx context.Context, id ref.ProjectID) ([]byte, error) {
	snapshot := Snapshot{Version: snapshotVersion}

	err := s.Read(ctx, func(tx *Tx) error {
		project, err := tx.GetProject(id)
		if err != nil {
			return err
		}
		snapshot.Project = project

		if snapshot.Tasks, err = tx.ListTasksByProject(id); err != nil {
			return err
		}
		if snapshot.Invoices, err = tx.ListInvoicesByProject(id); err != nil {
			return err
		}
		if snapshot.Hours, err = tx.ListWorkEntriesByProject(id); err != nil {
			return err
		}
		if snapshot.History, err = tx.ListHistory(id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	raw, err := codec.Marshal(&snapshot)
	if err != nil {
		return nil, fmt.Errorf("store: encoding snapshot of %s: %w", id, err)
	}
	return snapshotEncoder.EncodeAll(raw, nil), nil
}

// ImportProject restores a snapshot produced by ExportProject. The
// project must not already exist; importing over an existing project
// is a conflict. All rows land in one transaction.
func (s *Store) ImportProject(ctx context.Context, data []byte) (ref.ProjectID, error) {
	raw, err := snapshotDecoder.DecodeAll(data, nil)
	if err != nil {
		return ref.ProjectID{}, fmt.Errorf("store: decompressing snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := codec.Unmarshal(raw, &snapshot); err != nil {
		return ref.ProjectID{}, fmt.Errorf("store: decoding snapshot: %w", err)
	}
	if snapshot.Version != snapshotVersion {
		return ref.ProjectID{}, fmt.Errorf("store: unsupported snapshot version %d", snapshot.Version)
	}
	if snapshot.Project == nil {
		return ref.ProjectID{}, fmt.Errorf("store: snapshot has no project")
	}
	id := snapshot.Project.ID

	err = s.Write(ctx, func(tx *Tx) error {
		if _, err := tx.GetProject(id); err == nil {
			return &wferr.ConflictError{
				Entity: "project",
				ID:     id.String(),
				Reason: "already exists",
			}
		} else if !wferr.IsNotFound(err) {
			return err
		}

		if err := tx.InsertProject(snapshot.Project); err != nil {
			return err
		}
		for _, task := range snapshot.Tasks {
			if err := tx.InsertTask(task); err != nil {
				return err
			}
		}
		for _, invoice := range snapshot.Invoices {
			if err := tx.InsertInvoice(invoice); err != nil {
				return err
			}
		}
		for _, entry := range snapshot.Hours {
			if err := tx.InsertWorkEntry(entry); err != nil {
				return err
			}
		}
		// History comes out newest first; insert oldest first so the
		// restored trail keeps its relative order under fresh
		// sequence numbers.
		for i := len(snapshot.History) - 1; i >= 0; i-- {
			ev := *snapshot.History[i]
			ev.Seq = 0
			if err := tx.AppendHistory(&ev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ref.ProjectID{}, err
	}
	return id, nil
}
