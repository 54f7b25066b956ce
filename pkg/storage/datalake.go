package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azdatalake/file"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azdatalake/filesystem"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azdatalake/service"
	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
)

type DataLakeClient struct {
	log        log.FieldLogger
	accountURL string
	service    *service.Client
}

// NewDataLakeClient builds a client for the given dfs endpoint, e.g.
// https://<account>.dfs.core.windows.net.
func NewDataLakeClient(accountURL string, cred azcore.TokenCredential, logger log.FieldLogger) (*DataLakeClient, error) {
	svc, err := service.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building data lake service client: %w", err)
	}

	logger = logger.WithField("account_url", accountURL)
	logger.Infof("initialized data lake gen2 client for: %s", accountURL)

	return &DataLakeClient{
		log:        logger,
		accountURL: accountURL,
		service:    svc,
	}, nil
}

func (c *DataLakeClient) CreateFileSystem(ctx context.Context, fileSystemName string) error {
	op := logging.Begin(c.log, "storage.create_file_system", log.Fields{"filesystem": fileSystemName})

	fs := c.service.NewFileSystemClient(fileSystemName)
	if _, err := fs.Create(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.create_file_system", err))
	}
	return op.Done(nil)
}

func (c *DataLakeClient) DeleteFileSystem(ctx context.Context, fileSystemName string) error {
	op := logging.Begin(c.log, "storage.delete_file_system", log.Fields{"filesystem": fileSystemName})

	fs := c.service.NewFileSystemClient(fileSystemName)
	if _, err := fs.Delete(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.delete_file_system", err))
	}
	return op.Done(nil)
}

func (c *DataLakeClient) CreateDirectory(ctx context.Context, fileSystemName, directoryName string) error {
	op := logging.Begin(c.log, "storage.create_directory", log.Fields{"filesystem": fileSystemName, "directory": directoryName})

	dir := c.service.NewFileSystemClient(fileSystemName).NewDirectoryClient(directoryName)
	if _, err := dir.Create(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.create_directory", err))
	}
	return op.Done(nil)
}

// UploadFile uploads a local file to the given path, overwriting any
// existing file.
func (c *DataLakeClient) UploadFile(ctx context.Context, fileSystemName, filePath, localPath string) error {
	op := logging.Begin(c.log, "storage.upload_datalake_file", log.Fields{"filesystem": fileSystemName, "path": filePath, "file": localPath})

	f, err := os.Open(localPath)
	if err != nil {
		return op.Done(fmt.Errorf("opening %s: %w", localPath, err))
	}
	defer f.Close()

	fc := c.service.NewFileSystemClient(fileSystemName).NewFileClient(filePath)
	if _, err := fc.Create(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.upload_datalake_file", err))
	}
	if err := fc.UploadFile(ctx, f, &file.UploadFileOptions{}); err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.upload_datalake_file", err))
	}
	return op.Done(nil)
}

func (c *DataLakeClient) DownloadFile(ctx context.Context, fileSystemName, filePath, localPath string) error {
	op := logging.Begin(c.log, "storage.download_datalake_file", log.Fields{"filesystem": fileSystemName, "path": filePath, "file": localPath})

	fc := c.service.NewFileSystemClient(fileSystemName).NewFileClient(filePath)
	resp, err := fc.DownloadStream(ctx, nil)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.download_datalake_file", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.download_datalake_file", err))
	}

	if dir := filepath.Dir(localPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return op.Done(fmt.Errorf("creating directory for %s: %w", localPath, err))
		}
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return op.Done(err)
	}
	return op.Done(nil)
}

func (c *DataLakeClient) DeleteFile(ctx context.Context, fileSystemName, filePath string) error {
	op := logging.Begin(c.log, "storage.delete_datalake_file", log.Fields{"filesystem": fileSystemName, "path": filePath})

	fc := c.service.NewFileSystemClient(fileSystemName).NewFileClient(filePath)
	if _, err := fc.Delete(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "storage.delete_datalake_file", err))
	}
	return op.Done(nil)
}

// ListPaths lists paths in a file system, optionally below a prefix.
func (c *DataLakeClient) ListPaths(ctx context.Context, fileSystemName, prefix string) ([]string, error) {
	op := logging.Begin(c.log, "storage.list_paths", log.Fields{"filesystem": fileSystemName})

	opts := &filesystem.ListPathsOptions{}
	if prefix != "" {
		opts.Prefix = &prefix
	}

	var names []string
	pager := c.service.NewFileSystemClient(fileSystemName).NewListPathsPager(true, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, op.Done(errs.E(errs.KindVendor, "storage.list_paths", err))
		}
		for _, p := range page.Paths {
			if p.Name != nil {
				names = append(names, *p.Name)
			}
		}
	}

	_ = op.Done(nil)
	return names, nil
}
