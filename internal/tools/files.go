// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	apperrors "chai/internal/errors"
	"chai/internal/paths"
	"chai/internal/textpatch"
)

// FileChange describes the effect of a write or patch on one file.
type FileChange struct {
	Path         string
	Existed      bool
	Before       string
	After        string
	Occurrences  int
	BytesWritten int
	SizeDelta    int
}

// FileAdapter reads, writes, and patches files relative to BaseDir.
// It keeps no state between calls and takes no locks; concurrent external
// edits between read and write-back are last-writer-wins.
type FileAdapter struct {
	BaseDir string
	Limits  Limits
}

// Resolve validates a raw path argument and makes it absolute.
func (a *FileAdapter) Resolve(path string) (string, error) {
	resolved, err := paths.Resolve(path, a.BaseDir)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeValidation, "invalid file path", err)
	}
	return resolved, nil
}

// Read returns the content of an existing text file.
func (a *FileAdapter) Read(ctx context.Context, path string) (string, error) {
	resolved, err := a.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := a.statExisting(resolved, path)
	if err != nil {
		return "", err
	}
	if err := ensureContext(ctx); err != nil {
		return "", err
	}
	data, err := a.readRegular(resolved, info)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write creates or fully overwrites a file, creating parent directories.
func (a *FileAdapter) Write(ctx context.Context, path, content string) (FileChange, error) {
	change := FileChange{Path: path, After: content}
	resolved, err := a.Resolve(path)
	if err != nil {
		return change, err
	}
	limits := a.Limits.normalize()
	if int64(len(content)) > limits.MaxFileSizeBytes {
		return change, newIOError(fmt.Sprintf("content exceeds maximum size of %d bytes", limits.MaxFileSizeBytes), nil)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(resolved); err == nil {
		if info.IsDir() {
			return change, newIOError(fmt.Sprintf("path '%s' is a directory", path), nil)
		}
		change.Existed = true
		mode = info.Mode().Perm()
		if before, err := os.ReadFile(resolved); err == nil {
			change.Before = string(before)
		}
	} else if !os.IsNotExist(err) {
		return change, newIOError("failed to stat file", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return change, newIOError("failed to create parent directories", err)
	}
	if err := ensureContext(ctx); err != nil {
		return change, err
	}
	if err := writeFileAtomic(resolved, []byte(content), mode); err != nil {
		return change, newIOError("failed to write file", err)
	}

	change.BytesWritten = len(content)
	change.SizeDelta = len(change.After) - len(change.Before)
	return change, nil
}

// Patch replaces find with replacement in an existing file and writes the
// result back atomically.
func (a *FileAdapter) Patch(ctx context.Context, path, find, replacement string, replaceAll bool) (FileChange, error) {
	change := FileChange{Path: path}
	resolved, err := a.Resolve(path)
	if err != nil {
		return change, err
	}
	info, err := a.statExisting(resolved, path)
	if err != nil {
		return change, err
	}
	original, err := a.readRegular(resolved, info)
	if err != nil {
		return change, err
	}
	change.Existed = true
	change.Before = string(original)

	patched, err := textpatch.Patch(change.Before, find, replacement, replaceAll)
	if err != nil {
		if errors.Is(err, textpatch.ErrNotFound) {
			return change, apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("text not found in %s", path), err)
		}
		return change, err
	}
	if err := ensureContext(ctx); err != nil {
		return change, err
	}
	if err := writeFileAtomic(resolved, []byte(patched.Content), info.Mode().Perm()); err != nil {
		return change, newIOError("failed to write file", err)
	}

	change.After = patched.Content
	change.Occurrences = patched.Occurrences
	change.SizeDelta = patched.SizeDelta
	change.BytesWritten = len(patched.Content)
	return change, nil
}

func (a *FileAdapter) statExisting(resolved, display string) (os.FileInfo, error) {
	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, display)
		}
		return nil, newIOError("failed to stat file", err)
	}
	if info.IsDir() {
		return nil, newIOError(fmt.Sprintf("path '%s' is a directory", display), nil)
	}
	return info, nil
}

func (a *FileAdapter) readRegular(resolved string, info os.FileInfo) ([]byte, error) {
	limits := a.Limits.normalize()
	if info.Size() > limits.MaxFileSizeBytes {
		return nil, newIOError(fmt.Sprintf("file exceeds maximum size of %d bytes", limits.MaxFileSizeBytes), nil)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, newIOError("failed to read file", err)
	}
	if !isTextContent(data) {
		return nil, newIOError("file appears to be binary; only text files are supported", nil)
	}
	return data, nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte, mode os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, mode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func ensureContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// isTextContent rejects NUL bytes and invalid UTF-8. Control characters are
// text and must survive a write/read round trip.
func isTextContent(data []byte) bool {
	if bytes.IndexByte(data, 0) >= 0 {
		return false
	}
	return utf8.Valid(data)
}
