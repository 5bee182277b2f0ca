package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tendant/simple-form-upload/pkg/formupload"
	"github.com/tendant/simple-form-upload/pkg/formupload/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// policyFlags override the environment for a single invocation
type policyFlags struct {
	envFile     string
	bucket      string
	destination string
	maxSize     string
	expires     time.Duration
	endpoint    string
	pathStyle   bool
}

func (f *policyFlags) load(cmd *cobra.Command) (*config.ServerConfig, error) {
	opts := []config.Option{
		config.WithDotEnv(f.envFile),
		config.WithEnv(),
	}

	flags := cmd.Flags()
	if flags.Changed("bucket") {
		opts = append(opts, config.WithBucket(f.bucket))
	}
	if flags.Changed("key") {
		opts = append(opts, config.WithFileDestination(f.destination))
	}
	if flags.Changed("max-size") {
		opts = append(opts, func(c *config.ServerConfig) error {
			return c.Upload.ContentLengthMax.SetValue(f.maxSize)
		})
	}
	if flags.Changed("expires") {
		opts = append(opts, func(c *config.ServerConfig) error {
			c.Upload.ExpiresIntervalSeconds = int64(f.expires / time.Second)
			return nil
		})
	}
	if flags.Changed("endpoint") || flags.Changed("path-style") {
		opts = append(opts, config.WithS3Endpoint(f.endpoint, f.pathStyle))
	}
	opts = append(opts, config.WithDefaultCredentialChain(cmd.Context()))

	return config.Load(opts...)
}

func newRootCommand() *cobra.Command {
	flags := &policyFlags{}

	cmd := &cobra.Command{
		Use:           "formctl",
		Short:         "formctl issues signed browser upload forms and posts files through them",
		SilenceErrors: true,
		SilenceUsage:  true,
		Example: `
  # print a form for the configured bucket
  UPLOAD_BUCKET_NAME=my-bucket formctl issue

  # upload a file to MinIO through a signed form
  formctl upload ./photo.png --bucket photos --endpoint http://localhost:9000 --path-style`,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&flags.bucket, "bucket", "", "bucket the form posts to (overrides UPLOAD_BUCKET_NAME)")
	pf.StringVar(&flags.destination, "key", "", "object key template, {uuid} and ${filename} allowed")
	pf.StringVar(&flags.maxSize, "max-size", "", "largest accepted upload, e.g. 10MiB")
	pf.DurationVar(&flags.expires, "expires", 0, "how long the form stays valid, e.g. 5m")
	pf.StringVar(&flags.endpoint, "endpoint", "", "S3-compatible endpoint, e.g. http://localhost:9000")
	pf.BoolVar(&flags.pathStyle, "path-style", false, "post to {endpoint}/{bucket}/")

	cmd.AddCommand(newIssueCommand(flags))
	cmd.AddCommand(newUploadCommand(flags))
	cmd.AddCommand(newEnvCommand())
	return cmd
}

func newIssueCommand(flags *policyFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "issue",
		Short: "Print a signed upload form as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			form, err := formupload.New(cfg.IssuerOptions()...).IssueContext(cmd.Context(), cfg.FormConfig())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(form)
		},
	}
}

func newUploadCommand(flags *policyFlags) *cobra.Command {
	var contentType string
	var retries int

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a local file through a freshly signed form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}

			path := args[0]
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			stat, err := file.Stat()
			if err != nil {
				return err
			}

			if contentType == "" {
				contentType = mime.TypeByExtension(filepath.Ext(path))
			}
			if contentType == "" {
				contentType = "application/octet-stream"
			}

			form, err := formupload.New(cfg.IssuerOptions()...).IssueContext(cmd.Context(), cfg.FormConfig())
			if err != nil {
				return err
			}

			client := formupload.NewClient(formupload.WithRetry(retries, time.Second))
			if err := client.Upload(cmd.Context(), form, filepath.Base(path), file, formupload.WithContentType(contentType)); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%s) to %s as %s\n",
				filepath.Base(path), humanize.IBytes(uint64(stat.Size())), form.Action, form.Fields.Key)
			return err
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "Content-Type field (default: guessed from the extension)")
	cmd.Flags().IntVar(&retries, "retries", 3, "attempts before giving up on server errors")
	return cmd
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables formctl reads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.Description())
			return err
		},
	}
}
