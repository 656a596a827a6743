// Package project defines the project record shared by the workspace header
// and the directory service that owns it.
//
// Project Representation:
//
// Each project is a fixed-shape record:
//   - ID (opaque, unique)
//   - Name (user-facing, not unique)
//   - CreatedAt / UpdatedAt
//
// Directory Contract:
//
// A Directory lists and creates projects:
//   - List: full listing, fails with ErrDirectoryUnavailable
//   - Create: new project from a CreateSpec, fails with ErrCreateRejected
//
// Records coming from a remote directory are validated once, at the
// boundary, with Validate. Code past the boundary assumes a valid shape.
//
// MemoryDirectory is an in-process Directory used by the dev server and by
// tests.
package project
