// ABOUTME: Attachment bridge between two bot endpoints
// ABOUTME: Downloads under the source bot, stages to disk under a blake3 name, re-uploads under the destination bot

package bridge

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/2389/event-relay/internal/transport"
)

// Transfer stages.
const (
	StageDownload = "download"
	StageStage    = "stage"
	StageUpload   = "upload"
)

// TransferError reports which step of a transfer failed.
type TransferError struct {
	Stage  string
	Source string
	Handle string
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("bridge %s of %s handle %q: %v", e.Stage, e.Source, e.Handle, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Bridge moves attachments between endpoints through a staging directory.
type Bridge struct {
	dir    string
	logger *slog.Logger
}

// New creates a bridge staging into dir, creating it if needed. An empty
// dir stages under the system temp directory.
func New(dir string, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "event-relay-staging")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return &Bridge{
		dir:    dir,
		logger: logger.With("component", "bridge"),
	}, nil
}

// Dir returns the staging directory.
func (b *Bridge) Dir() string {
	return b.dir
}

// StagedName derives the staging file name prefix for a handle. Handles
// are only unique per endpoint, so the endpoint name is part of the hash
// input.
func StagedName(endpoint, handle string) string {
	sum := blake3.Sum256([]byte(endpoint + "\x00" + handle))
	return hex.EncodeToString(sum[:])
}

// Transfer re-homes the attachment behind handle from src to dst and
// returns a handle valid on dst. Each endpoint acts only under its own
// credentials; nothing is shared between the two calls. Every call stages
// into its own file, so concurrent transfers of one handle never see each
// other's bytes.
func (b *Bridge) Transfer(ctx context.Context, src transport.Endpoint, handle string, kind transport.Kind, fileName string, dst transport.Endpoint) (string, error) {
	fail := func(stage string, err error) (string, error) {
		return "", &TransferError{Stage: stage, Source: src.Name(), Handle: handle, Err: err}
	}

	rc, err := src.Open(ctx, handle)
	if err != nil {
		return fail(StageDownload, err)
	}
	f, stage, err := b.stage(rc, StagedName(src.Name(), handle))
	rc.Close()
	if err != nil {
		return fail(stage, err)
	}
	defer func() {
		f.Close()
		b.discard(f.Name())
	}()

	if fileName == "" {
		fileName = uploadName(kind, f.Name())
	}

	destHandle, err := dst.Upload(ctx, kind, fileName, f)
	if err != nil {
		return fail(StageUpload, err)
	}

	b.logger.Debug("attachment bridged",
		"kind", kind.String(),
		"from", src.Name(),
		"to", dst.Name(),
		"src_handle", handle,
		"dst_handle", destHandle,
	)
	return destHandle, nil
}

// stage copies r into a fresh file named prefix-<random> and rewinds it
// for reading. On failure the file is removed and the failing stage is
// returned with the error.
func (b *Bridge) stage(r io.Reader, prefix string) (*os.File, string, error) {
	f, err := os.CreateTemp(b.dir, prefix+"-*")
	if err != nil {
		return nil, StageStage, fmt.Errorf("creating staging file: %w", err)
	}
	abort := func(stage string, err error) (*os.File, string, error) {
		f.Close()
		b.discard(f.Name())
		return nil, stage, err
	}

	if _, err := io.Copy(f, r); err != nil {
		return abort(StageDownload, fmt.Errorf("writing staging file: %w", err))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return abort(StageStage, fmt.Errorf("rewinding staging file: %w", err))
	}
	return f, "", nil
}

// discard removes a staged file. Failure is not an error.
func (b *Bridge) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		b.logger.Debug("failed to remove staged file", "path", path, "error", err)
	}
}

// uploadName picks a file name with an extension the platform recognises.
func uploadName(kind transport.Kind, path string) string {
	base := filepath.Base(path)[:16]
	switch kind {
	case transport.KindPhoto:
		return base + ".jpg"
	case transport.KindAudio:
		return base + ".mp3"
	case transport.KindVideo, transport.KindVideoNote, transport.KindAnimation:
		return base + ".mp4"
	case transport.KindVoice:
		return base + ".ogg"
	}
	return base
}
