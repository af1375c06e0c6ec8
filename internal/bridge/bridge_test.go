// ABOUTME: Tests for the attachment bridge
// ABOUTME: Checks staging cleanup and that each failing stage is reported as such

package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/event-relay/internal/transport"
	"github.com/2389/event-relay/internal/transport/transporttest"
)

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	b, err := New(filepath.Join(t.TempDir(), "staging"), nil)
	require.NoError(t, err)
	return b
}

func TestTransfer_ReuploadsBytesUnderDestination(t *testing.T) {
	b := newTestBridge(t)
	client := transporttest.New(transport.EndpointClient)
	service := transporttest.New(transport.EndpointService)
	client.Files["src123"] = []byte("jpeg bytes")

	handle, err := b.Transfer(context.Background(), client, "src123", transport.KindPhoto, "", service)
	require.NoError(t, err)

	require.Len(t, service.Uploads, 1)
	assert.Equal(t, handle, service.Uploads[0].Handle)
	assert.Equal(t, []byte("jpeg bytes"), service.Uploads[0].Data)
	assert.Equal(t, transport.KindPhoto, service.Uploads[0].Kind)
	assert.Equal(t, filepath.Ext(service.Uploads[0].Name), ".jpg")
	assert.Empty(t, client.Uploads, "source endpoint never uploads")
	assert.Equal(t, []string{"src123"}, client.Opened)
	assert.Empty(t, service.Opened, "destination endpoint never downloads")
}

func TestTransfer_KeepsDocumentName(t *testing.T) {
	b := newTestBridge(t)
	client := transporttest.New(transport.EndpointClient)
	service := transporttest.New(transport.EndpointService)
	client.Files["doc"] = []byte("pdf")

	_, err := b.Transfer(context.Background(), client, "doc", transport.KindDocument, "ticket.pdf", service)
	require.NoError(t, err)
	assert.Equal(t, "ticket.pdf", service.Uploads[0].Name)
}

func TestTransfer_RemovesStagedFile(t *testing.T) {
	b := newTestBridge(t)
	client := transporttest.New(transport.EndpointClient)
	service := transporttest.New(transport.EndpointService)
	client.Files["h"] = []byte("x")

	_, err := b.Transfer(context.Background(), client, "h", transport.KindVoice, "", service)
	require.NoError(t, err)

	entries, err := os.ReadDir(b.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTransfer_DownloadFailure(t *testing.T) {
	b := newTestBridge(t)
	client := transporttest.New(transport.EndpointClient)
	service := transporttest.New(transport.EndpointService)
	client.OpenErr = errors.New("file is too big")

	_, err := b.Transfer(context.Background(), client, "h", transport.KindVideo, "", service)
	require.Error(t, err)

	var te *TransferError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StageDownload, te.Stage)
	assert.Empty(t, service.Uploads)
}

func TestTransfer_UploadFailure(t *testing.T) {
	b := newTestBridge(t)
	client := transporttest.New(transport.EndpointClient)
	service := transporttest.New(transport.EndpointService)
	client.Files["h"] = []byte("x")
	service.UploadErr = errors.New("bad request")

	_, err := b.Transfer(context.Background(), client, "h", transport.KindAudio, "", service)

	var te *TransferError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StageUpload, te.Stage)
	assert.ErrorIs(t, err, service.UploadErr)

	entries, err := os.ReadDir(b.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "staged file removed after failed upload")
}

func TestStagedName_ScopedByEndpoint(t *testing.T) {
	a := StagedName(transport.EndpointClient, "same")
	b := StagedName(transport.EndpointService, "same")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, StagedName(transport.EndpointClient, "same"))
	assert.Len(t, a, 64)
}

// stallingEndpoint pauses its first upload after a few bytes until release
// is closed.
type stallingEndpoint struct {
	*transporttest.Endpoint
	calls   int32
	started chan struct{}
	release chan struct{}
}

func (e *stallingEndpoint) Upload(ctx context.Context, kind transport.Kind, name string, r io.Reader) (string, error) {
	if atomic.AddInt32(&e.calls, 1) != 1 {
		return e.Endpoint.Upload(ctx, kind, name, r)
	}
	head := make([]byte, 4)
	if _, err := io.ReadFull(r, head); err != nil {
		return "", err
	}
	close(e.started)
	<-e.release
	return e.Endpoint.Upload(ctx, kind, name, io.MultiReader(bytes.NewReader(head), r))
}

func TestTransfer_ConcurrentSameHandleStagesSeparately(t *testing.T) {
	b := newTestBridge(t)
	client := transporttest.New(transport.EndpointClient)
	service := &stallingEndpoint{
		Endpoint: transporttest.New(transport.EndpointService),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	payload := []byte("0123456789abcdef")
	client.Files["same-file-id"] = payload

	type result struct {
		handle string
		err    error
	}
	first := make(chan result, 1)
	go func() {
		h, err := b.Transfer(context.Background(), client, "same-file-id", transport.KindDocument, "a.bin", service)
		first <- result{h, err}
	}()
	<-service.started

	_, err := b.Transfer(context.Background(), client, "same-file-id", transport.KindDocument, "b.bin", service)
	require.NoError(t, err)

	close(service.release)
	res := <-first
	require.NoError(t, res.err)

	require.Len(t, service.Uploads, 2)
	for _, up := range service.Uploads {
		assert.Equal(t, payload, up.Data, "upload %s", up.Name)
	}

	entries, err := os.ReadDir(b.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTransfer_StagedFileCarriesHandlePrefix(t *testing.T) {
	b := newTestBridge(t)
	client := transporttest.New(transport.EndpointClient)
	service := transporttest.New(transport.EndpointService)
	client.Files["h"] = []byte("x")

	_, err := b.Transfer(context.Background(), client, "h", transport.KindPhoto, "", service)
	require.NoError(t, err)

	name := service.Uploads[0].Name
	assert.True(t, strings.HasPrefix(StagedName(transport.EndpointClient, "h"), strings.TrimSuffix(name, ".jpg")))
}
