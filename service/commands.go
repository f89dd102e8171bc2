package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"

	"postpad/app/models"
	"postpad/app/repositories"
	"postpad/app/services"
	"postpad/app/views"
	"postpad/config"
)

// digestSuffix names the SHA3-256 sidecar written next to each backup.
const digestSuffix = ".sha3"

var errDigestMismatch = errors.New("backup digest mismatch")

type cli struct {
	configPath string
	envFile    string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the postpad command tree.
func NewRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "postpad",
		Short:        "A small blog post manager",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "postpad.yaml", "config file path")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before the config")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		c.serveCommand(),
		c.initCommand(),
		c.cleanCommand(),
		c.backupCommand(),
		c.restoreCommand(),
		c.listCommand(),
		c.deleteCommand(),
		versionCommand(),
	)
	return root
}

func (c *cli) setup() error {
	if err := config.LoadEnvFile(c.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

// openRepository opens storage and returns the post repository over it.
// The caller closes the returned storage.
func (c *cli) openRepository() (repositories.Storage, *repositories.StoragePostRepository, error) {
	storage, err := openStorage(c.cfg)
	if err != nil {
		return nil, nil, err
	}
	return storage, repositories.NewStoragePostRepository(storage, c.cfg.Storage.Key), nil
}

// hasPosts reports whether the posts key holds a value.
func hasPosts(storage repositories.Storage, key string) (bool, error) {
	_, err := storage.Get(key)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *cli) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the blog web service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				c.cfg.Server.Addr = addr
			}
			return RunAppServer(cmd.Context(), c.cfg, c.logger)
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (c *cli) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize an empty post list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, repo, err := c.openRepository()
			if err != nil {
				return err
			}
			defer storage.Close()

			exists, err := hasPosts(storage, repo.Key())
			if err != nil {
				return err
			}
			if exists {
				fmt.Fprintln(cmd.OutOrStdout(), "Storage already initialized. Use 'clean' first if you want to reinitialize.")
				return nil
			}
			if err := repo.Save(nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Storage initialized successfully")
			return nil
		},
	}
}

func (c *cli) cleanCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove every stored post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, repo, err := c.openRepository()
			if err != nil {
				return err
			}
			defer storage.Close()

			out := cmd.OutOrStdout()
			exists, err := hasPosts(storage, repo.Key())
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintln(out, "Storage is already clean")
				return nil
			}
			if !yes && !confirm(cmd.InOrStdin(), out, "Are you sure you want to clean the database? This cannot be undone.") {
				fmt.Fprintln(out, "Operation cancelled")
				return nil
			}
			if err := repo.Clear(); err != nil {
				return fmt.Errorf("failed to clean storage: %w", err)
			}
			c.logger.Info("Storage cleaned", zap.String("key", repo.Key()))
			fmt.Fprintln(out, "Storage cleaned successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) backupCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write the stored posts to a backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, repo, err := c.openRepository()
			if err != nil {
				return err
			}
			defer storage.Close()

			data, err := storage.Get(repo.Key())
			if errors.Is(err, repositories.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No posts exist to back up")
				return nil
			}
			if err != nil {
				return err
			}

			file, err := writeBackup(dir, data, time.Now())
			if err != nil {
				return err
			}
			c.logger.Info("Backup written", zap.String("file", file), zap.Int("bytes", len(data)))
			fmt.Fprintf(cmd.OutOrStdout(), "Posts backed up successfully to %s\n", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data/backups", "backup directory")
	return cmd
}

func (c *cli) restoreCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the stored posts with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			out := cmd.OutOrStdout()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}
			if len(data) == 0 {
				return fmt.Errorf("backup file is empty: %s", file)
			}

			verified, err := verifyBackup(file, data)
			if err != nil {
				return err
			}
			if !verified {
				c.logger.Warn("Backup has no digest, restoring unverified", zap.String("file", file))
			}

			posts, err := repositories.DecodePosts(data)
			if err != nil {
				return fmt.Errorf("invalid backup %s: %w", file, err)
			}
			models.AssignIDs(posts)

			storage, repo, err := c.openRepository()
			if err != nil {
				return err
			}
			defer storage.Close()

			exists, err := hasPosts(storage, repo.Key())
			if err != nil {
				return err
			}
			if exists && !yes && !confirm(cmd.InOrStdin(), out, "Existing posts found. Do you want to replace them?") {
				fmt.Fprintln(out, "Operation cancelled")
				return nil
			}

			if err := repo.Save(posts); err != nil {
				return fmt.Errorf("failed to restore posts: %w", err)
			}
			fmt.Fprintf(out, "Restored %d posts from %s\n", len(posts), file)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "replace existing posts without asking")
	return cmd
}

func (c *cli) listCommand() *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the stored posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, repo, err := c.openRepository()
			if err != nil {
				return err
			}
			defer storage.Close()

			svc := services.NewPostService(repo, services.Options{
				CommentAuthor: c.cfg.User.CommentAuthor,
				Logger:        c.logger,
			})
			posts := svc.Filter(filter)
			if len(posts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), views.NoResultsText)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, post := range posts {
				liked := ""
				if post.HasLiked(c.cfg.User.ID) {
					liked = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s%s\t%d comments\n",
					post.ID,
					post.Date.Local().Format(views.DateLayout),
					post.Title,
					views.LikeLabel(post.LikeCount()),
					liked,
					len(post.Comments),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only posts whose title or content contains this text")
	return cmd
}

func (c *cli) deleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, repo, err := c.openRepository()
			if err != nil {
				return err
			}
			defer storage.Close()

			out := cmd.OutOrStdout()
			svc := services.NewPostService(repo, services.Options{
				CommentAuthor: c.cfg.User.CommentAuthor,
				Logger:        c.logger,
			})
			deleted, err := svc.Delete(args[0], services.ConfirmFunc(func(prompt string) bool {
				return yes || confirm(cmd.InOrStdin(), out, prompt)
			}))
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintln(out, "Operation cancelled")
				return nil
			}
			fmt.Fprintln(out, "Post deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "postpad version %s\n", Version)
		},
	}
}

// writeBackup stores data under dir and writes its SHA3-256 digest to a
// sidecar file in sha3sum format.
func writeBackup(dir string, data []byte, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	file := filepath.Join(dir, fmt.Sprintf("backup_%d.json", now.UnixNano()))
	if err := os.WriteFile(file, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	sum := sha3.Sum256(data)
	line := fmt.Sprintf("%s  %s\n", hex.EncodeToString(sum[:]), filepath.Base(file))
	if err := os.WriteFile(file+digestSuffix, []byte(line), 0644); err != nil {
		return "", fmt.Errorf("failed to write backup digest: %w", err)
	}
	return file, nil
}

// verifyBackup checks data against the sidecar digest. It reports false
// when there is no sidecar.
func verifyBackup(file string, data []byte) (bool, error) {
	raw, err := os.ReadFile(file + digestSuffix)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read backup digest: %w", err)
	}

	fields := strings.Fields(string(raw))
	if len(fields) == 0 {
		return false, fmt.Errorf("%w: empty digest file", errDigestMismatch)
	}
	sum := sha3.Sum256(data)
	if !strings.EqualFold(fields[0], hex.EncodeToString(sum[:])) {
		return false, fmt.Errorf("%w: %s", errDigestMismatch, file)
	}
	return true, nil
}
