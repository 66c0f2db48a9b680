// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"time"
)

// =============================================================================
// MUTATION DETECTOR
// =============================================================================

// pathSnapshot records one file's state at window entry.
type pathSnapshot struct {
	path   string
	exists bool
	mtime  time.Time
	digest string
}

// PathWatch observes a file set across a bracketed execution window.
//
// Description:
//
//	NewPathWatch snapshots each file's modification time and content
//	digest on entry; Modified re-reads the timestamps and reports the
//	files that changed. The digest is only recomputed when the
//	timestamp moved, so an unchanged tree costs one stat per file on
//	exit. The watch has no knowledge of why a file changed; it is a
//	generic pre/post diff usable around any operation.
//
// Comparison rules at window exit:
//
//   - timestamp unchanged: clean
//   - timestamp moved, digest equal: clean (an mtime-only touch is
//     not a modification)
//   - timestamp moved, digest differs: modified
//   - file appeared, disappeared, or is unreadable: modified
//
// Thread Safety: Not safe for concurrent use; callers serialize the
// window behind the Runner's execution lock.
type PathWatch struct {
	snapshots []pathSnapshot
}

// NewPathWatch opens a watch window over the given paths.
func NewPathWatch(paths []string) *PathWatch {
	w := &PathWatch{snapshots: make([]pathSnapshot, 0, len(paths))}
	for _, path := range paths {
		snap := pathSnapshot{path: path}
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			snap.exists = true
			snap.mtime = info.ModTime()
			if digest, err := hashFile(path); err == nil {
				snap.digest = digest
			}
		}
		w.snapshots = append(w.snapshots, snap)
	}
	return w
}

// Modified closes the window and returns the paths that changed, in
// snapshot order. Calling it again re-diffs against the same entry
// snapshot.
func (w *PathWatch) Modified() []string {
	var modified []string
	for _, snap := range w.snapshots {
		if pathModified(snap) {
			modified = append(modified, snap.path)
		}
	}
	return modified
}

// pathModified applies the comparison rules for one snapshot.
func pathModified(snap pathSnapshot) bool {
	info, err := os.Stat(snap.path)
	if err != nil || !info.Mode().IsRegular() {
		// Gone or unreadable now. The tool declared this file as an
		// input, so absence at exit counts as a modification; a file
		// absent on both sides is untouched.
		return snap.exists
	}
	if !snap.exists {
		return true
	}
	if info.ModTime().Equal(snap.mtime) {
		return false
	}
	digest, err := hashFile(snap.path)
	if err != nil {
		return true
	}
	return digest != snap.digest
}

// hashFile returns the lowercase hex SHA-256 digest of a file's
// content.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
