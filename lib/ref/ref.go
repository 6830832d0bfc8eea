// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// UserID is an opaque reference to a user in the external identity
// system. The engine never interprets its contents beyond equality;
// it only requires the value to be non-empty and free of whitespace
// so that IDs survive logging and text serialization intact.
//
// UserID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type UserID struct {
	id string
}

// ParseUserID validates and wraps a raw user ID string.
func ParseUserID(raw string) (UserID, error) {
	if raw == "" {
		return UserID{}, fmt.Errorf("user ID is empty")
	}
	if strings.IndexFunc(raw, unicode.IsSpace) >= 0 {
		return UserID{}, fmt.Errorf("user ID %q contains whitespace", raw)
	}
	return UserID{id: raw}, nil
}

// MustUserID wraps a raw user ID string, panicking on invalid input.
// For use in tests and static initialization only.
func MustUserID(raw string) UserID {
	id, err := ParseUserID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the raw user ID string.
func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is the zero value (uninitialized).
func (u UserID) IsZero() bool { return u.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) {
	return []byte(u.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text
// decodes to the zero value so optional references round-trip.
func (u *UserID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*u = UserID{}
		return nil
	}
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ProjectID identifies a project. Minted IDs have the form
// "prj-<uuid>".
type ProjectID struct {
	id string
}

// TaskID identifies a task. Minted IDs have the form "tsk-<uuid>".
type TaskID struct {
	id string
}

// InvoiceID identifies an invoice. Minted IDs have the form
// "inv-<uuid>".
type InvoiceID struct {
	id string
}

// WorkEntryID identifies a work-hour entry. Minted IDs have the form
// "whe-<uuid>".
type WorkEntryID struct {
	id string
}

// NewProjectID mints a fresh random project ID.
func NewProjectID() ProjectID { return ProjectID{id: "prj-" + uuid.NewString()} }

// NewTaskID mints a fresh random task ID.
func NewTaskID() TaskID { return TaskID{id: "tsk-" + uuid.NewString()} }

// NewInvoiceID mints a fresh random invoice ID.
func NewInvoiceID() InvoiceID { return InvoiceID{id: "inv-" + uuid.NewString()} }

// NewWorkEntryID mints a fresh random work-hour entry ID.
func NewWorkEntryID() WorkEntryID { return WorkEntryID{id: "whe-" + uuid.NewString()} }

// ParseProjectID validates and wraps a raw project ID string.
func ParseProjectID(raw string) (ProjectID, error) {
	if err := checkEntityID(raw, "prj-", "project"); err != nil {
		return ProjectID{}, err
	}
	return ProjectID{id: raw}, nil
}

// ParseTaskID validates and wraps a raw task ID string.
func ParseTaskID(raw string) (TaskID, error) {
	if err := checkEntityID(raw, "tsk-", "task"); err != nil {
		return TaskID{}, err
	}
	return TaskID{id: raw}, nil
}

// ParseInvoiceID validates and wraps a raw invoice ID string.
func ParseInvoiceID(raw string) (InvoiceID, error) {
	if err := checkEntityID(raw, "inv-", "invoice"); err != nil {
		return InvoiceID{}, err
	}
	return InvoiceID{id: raw}, nil
}

// ParseWorkEntryID validates and wraps a raw work-hour entry ID string.
func ParseWorkEntryID(raw string) (WorkEntryID, error) {
	if err := checkEntityID(raw, "whe-", "work-hour entry"); err != nil {
		return WorkEntryID{}, err
	}
	return WorkEntryID{id: raw}, nil
}

func (p ProjectID) String() string   { return p.id }
func (t TaskID) String() string      { return t.id }
func (i InvoiceID) String() string   { return i.id }
func (w WorkEntryID) String() string { return w.id }

func (p ProjectID) IsZero() bool   { return p.id == "" }
func (t TaskID) IsZero() bool      { return t.id == "" }
func (i InvoiceID) IsZero() bool   { return i.id == "" }
func (w WorkEntryID) IsZero() bool { return w.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (p ProjectID) MarshalText() ([]byte, error) { return []byte(p.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty text
// decodes to the zero value so optional references round-trip.
func (p *ProjectID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = ProjectID{}
		return nil
	}
	parsed, err := ParseProjectID(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t TaskID) MarshalText() ([]byte, error) { return []byte(t.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty text
// decodes to the zero value so optional references round-trip.
func (t *TaskID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*t = TaskID{}
		return nil
	}
	parsed, err := ParseTaskID(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (i InvoiceID) MarshalText() ([]byte, error) { return []byte(i.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty text
// decodes to the zero value so optional references round-trip.
func (i *InvoiceID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*i = InvoiceID{}
		return nil
	}
	parsed, err := ParseInvoiceID(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (w WorkEntryID) MarshalText() ([]byte, error) { return []byte(w.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty text
// decodes to the zero value so optional references round-trip.
func (w *WorkEntryID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*w = WorkEntryID{}
		return nil
	}
	parsed, err := ParseWorkEntryID(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// checkEntityID validates the "<prefix><uuid>" shape shared by all
// minted entity IDs.
func checkEntityID(raw, prefix, kind string) error {
	if raw == "" {
		return fmt.Errorf("%s ID is empty", kind)
	}
	if !strings.HasPrefix(raw, prefix) {
		return fmt.Errorf("%s ID %q does not start with %q", kind, raw, prefix)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(raw, prefix)); err != nil {
		return fmt.Errorf("%s ID %q has a malformed suffix: %w", kind, raw, err)
	}
	return nil
}
