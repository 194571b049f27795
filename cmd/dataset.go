package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookmeta/internal/sources/ibcatalog"
)

func newDatasetCmd() *cobra.Command {
	var cfg ibcatalog.DownloadConfig

	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage the offline Institutional Books dataset",
		Long: `Downloads Institutional Books 1.0 parquet shards from HuggingFace for the
ibcatalog source. Point IB_DATASET at the downloaded file to enable it.

Dataset: https://huggingface.co/datasets/instdin/institutional-books-1.0`,
	}
	cmd.PersistentFlags().StringVar(&cfg.CacheDir, "cache-dir", ibcatalog.DefaultCacheDir, "Dataset cache directory")

	download := &cobra.Command{
		Use:   "download [FILE]",
		Short: "Download a dataset shard into the cache",
		Example: `  # Download the first shard (requires accepting the dataset terms)
  HF_TOKEN=hf_... bookmeta dataset download

  # Download a specific shard again
  bookmeta dataset download data/train-00001-of-09831.parquet --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := ibcatalog.DefaultShard
			if len(args) == 1 {
				filename = args[0]
			}
			if cfg.Token == "" {
				cfg.Token = os.Getenv("HF_TOKEN")
			}

			path, err := ibcatalog.NewDownloader(cfg).Download(cmd.Context(), filename)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n\nEnable the ibcatalog source with:\n  export IB_DATASET=%s\n", path, path)
			return nil
		},
	}
	download.Flags().BoolVar(&cfg.ForceDownload, "force", false, "Download even if the file is cached")
	download.Flags().StringVar(&cfg.Token, "token", "", "HuggingFace token (defaults to HF_TOKEN)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached dataset file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ibcatalog.NewDownloader(cfg).ClearCache()
		},
	}

	cmd.AddCommand(download, clearCmd)
	return cmd
}
