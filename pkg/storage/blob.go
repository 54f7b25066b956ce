// Package storage wraps the Azure Blob Storage and Data Lake Gen2
// data-plane SDKs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
)

type BlobClient struct {
	log        log.FieldLogger
	accountURL string
	service    *azblob.Client
}

// NewBlobClient builds a client for the given blob endpoint, e.g.
// https://<account>.blob.core.windows.net.
func NewBlobClient(accountURL string, cred azcore.TokenCredential, logger log.FieldLogger) (*BlobClient, error) {
	service, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building blob service client: %w", err)
	}

	logger = logger.WithField("account_url", accountURL)
	logger.Infof("initialized blob storage client for: %s", accountURL)

	return &BlobClient{
		log:        logger,
		accountURL: accountURL,
		service:    service,
	}, nil
}

func (c *BlobClient) CreateContainer(ctx context.Context, containerName string) error {
	op := logging.Begin(c.log, "storage.create_container", log.Fields{"container": containerName})

	if _, err := c.service.CreateContainer(ctx, containerName, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.create_container", err))
	}
	return op.Done(nil)
}

func (c *BlobClient) DeleteContainer(ctx context.Context, containerName string) error {
	op := logging.Begin(c.log, "storage.delete_container", log.Fields{"container": containerName})

	if _, err := c.service.DeleteContainer(ctx, containerName, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.delete_container", err))
	}
	return op.Done(nil)
}

func (c *BlobClient) ListContainers(ctx context.Context) ([]string, error) {
	op := logging.Begin(c.log, "storage.list_containers", nil)

	var names []string
	pager := c.service.NewListContainersPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, op.Done(errs.E(errs.KindVendor, "storage.list_containers", err))
		}
		for _, item := range page.ContainerItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}

	_ = op.Done(nil)
	return names, nil
}

// UploadBlob uploads data to a blob, overwriting any existing content.
func (c *BlobClient) UploadBlob(ctx context.Context, containerName, blobName string, data []byte) error {
	op := logging.Begin(c.log, "storage.upload_blob", log.Fields{"container": containerName, "blob": blobName})

	if _, err := c.service.UploadStream(ctx, containerName, blobName, bytes.NewReader(data), nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.upload_blob", err))
	}
	return op.Done(nil)
}

// UploadFile uploads a local file; blobName defaults to the base name.
func (c *BlobClient) UploadFile(ctx context.Context, containerName, filePath, blobName string) error {
	if blobName == "" {
		blobName = filepath.Base(filePath)
	}
	op := logging.Begin(c.log, "storage.upload_file", log.Fields{"container": containerName, "blob": blobName, "file": filePath})

	f, err := os.Open(filePath)
	if err != nil {
		return op.Done(fmt.Errorf("opening %s: %w", filePath, err))
	}
	defer f.Close()

	if _, err := c.service.UploadStream(ctx, containerName, blobName, f, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.upload_file", err))
	}
	return op.Done(nil)
}

func (c *BlobClient) DownloadBlob(ctx context.Context, containerName, blobName string) ([]byte, error) {
	op := logging.Begin(c.log, "storage.download_blob", log.Fields{"container": containerName, "blob": blobName})

	resp, err := c.service.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, op.Done(errs.E(errs.KindVendor, "storage.download_blob", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, op.Done(errs.E(errs.KindVendor, "storage.download_blob", err))
	}

	_ = op.Done(nil)
	return data, nil
}

func (c *BlobClient) DownloadFile(ctx context.Context, containerName, blobName, filePath string) error {
	data, err := c.DownloadBlob(ctx, containerName, blobName)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", filePath, err)
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}

func (c *BlobClient) DeleteBlob(ctx context.Context, containerName, blobName string) error {
	op := logging.Begin(c.log, "storage.delete_blob", log.Fields{"container": containerName, "blob": blobName})

	if _, err := c.service.DeleteBlob(ctx, containerName, blobName, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.delete_blob", err))
	}
	return op.Done(nil)
}

// ListBlobs lists blob names in a container, optionally filtered by
// prefix.
func (c *BlobClient) ListBlobs(ctx context.Context, containerName, prefix string) ([]string, error) {
	op := logging.Begin(c.log, "storage.list_blobs", log.Fields{"container": containerName})

	opts := &azblob.ListBlobsFlatOptions{}
	if prefix != "" {
		opts.Prefix = &prefix
	}

	var names []string
	pager := c.service.NewListBlobsFlatPager(containerName, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, op.Done(errs.E(errs.KindVendor, "storage.list_blobs", err))
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}

	_ = op.Done(nil)
	return names, nil
}
