package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datakraft/azurekit/pkg/azure"
	"github.com/datakraft/azurekit/pkg/storage"
)

func newBlobClient(account string) (*storage.BlobClient, error) {
	accountURL, err := cfg.StorageAccountURL(account)
	if err != nil {
		return nil, err
	}
	cred, err := azure.DefaultCredential()
	if err != nil {
		return nil, err
	}
	return storage.NewBlobClient(accountURL, cred, logger)
}

func storageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Blob storage operations",
	}

	var account string
	cmd.PersistentFlags().StringVar(&account, "account", "", "storage account name (defaults to configuration)")

	upload := &cobra.Command{
		Use:   "upload <container> <local-file> <blob>",
		Short: "Upload a local file to a blob",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newBlobClient(account)
			if err != nil {
				return err
			}
			return client.UploadFile(cmd.Context(), args[0], args[1], args[2])
		},
	}

	download := &cobra.Command{
		Use:   "download <container> <blob> <local-file>",
		Short: "Download a blob to a local file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newBlobClient(account)
			if err != nil {
				return err
			}
			return client.DownloadFile(cmd.Context(), args[0], args[1], args[2])
		},
	}

	var prefix string
	list := &cobra.Command{
		Use:   "list <container>",
		Short: "List blobs in a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newBlobClient(account)
			if err != nil {
				return err
			}
			blobs, err := client.ListBlobs(cmd.Context(), args[0], prefix)
			if err != nil {
				return err
			}
			for _, b := range blobs {
				fmt.Println(b)
			}
			return nil
		},
	}
	list.Flags().StringVar(&prefix, "prefix", "", "only list blobs with this prefix")

	containers := &cobra.Command{
		Use:   "containers",
		Short: "List containers in the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newBlobClient(account)
			if err != nil {
				return err
			}
			names, err := client.ListContainers(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}

	cmd.AddCommand(upload, download, list, containers)
	return cmd
}
