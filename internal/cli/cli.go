// Package cli wires lark's components together behind its subcommands.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yiblet/lark/internal/api"
	"github.com/yiblet/lark/internal/clipboard"
	"github.com/yiblet/lark/internal/clipboard/sysboard"
	"github.com/yiblet/lark/internal/config"
	"github.com/yiblet/lark/internal/foreground"
	"github.com/yiblet/lark/internal/history"
	"github.com/yiblet/lark/internal/logging"
	"github.com/yiblet/lark/internal/notify"
	"github.com/yiblet/lark/internal/payload"
	"github.com/yiblet/lark/internal/retention"
	"github.com/yiblet/lark/internal/sampler"
	"github.com/yiblet/lark/internal/store"
	"github.com/yiblet/lark/internal/store/dbstore"
	"github.com/yiblet/lark/internal/tui"
)

// DefaultAPIAddr is used by 'watch --api' when api_addr is unset.
const DefaultAPIAddr = "127.0.0.1:7330"

const titleWidth = 60

// CLI handles the command-line interface
type CLI struct {
	configManager *config.ConfigManager
	config        *config.Config
	dbPath        string

	out   io.Writer
	board clipboard.Clipboard
}

// NewWithArgs creates a CLI using the config file and database named by
// args, falling back to the defaults under ~/.config/lark.
func NewWithArgs(args *Args) (*CLI, error) {
	var cm *config.ConfigManager
	if args != nil && args.ConfigPath != nil {
		cm = config.NewConfigManagerWithPath(*args.ConfigPath)
	} else {
		var err error
		cm, err = config.NewConfigManager()
		if err != nil {
			return nil, err
		}
	}
	cfg := cm.LoadOrDefault(nil)

	// Determine database path (precedence: flag > config > default)
	var dbPath string
	if args != nil && args.DBPath != nil {
		dbPath = *args.DBPath
	} else {
		var err error
		dbPath, err = cfg.ResolveDBPath()
		if err != nil {
			return nil, err
		}
	}

	return &CLI{
		configManager: cm,
		config:        cfg,
		dbPath:        dbPath,
		out:           os.Stdout,
	}, nil
}

// Execute runs the CLI command based on parsed arguments
func (c *CLI) Execute(ctx context.Context, args *Args) error {
	if err := args.Validate(); err != nil {
		return err
	}

	switch {
	case args.Watch != nil:
		c.setupLogging(args)
		return c.executeWatch(ctx, args.Watch)
	case args.List != nil:
		c.setupLogging(args)
		return c.executeList(ctx, args.List)
	case args.Get != nil:
		c.setupLogging(args)
		return c.executeGet(ctx, args.Get)
	case args.Search != nil:
		c.setupLogging(args)
		return c.executeSearch(ctx, args.Search)
	case args.Restore != nil:
		c.setupLogging(args)
		return c.executeRestore(ctx, args.Restore)
	case args.Config != nil:
		return c.executeConfig(args.Config)
	default:
		// Default behavior: launch TUI
		cmd := args.Browse
		if cmd == nil {
			cmd = &BrowseCmd{}
		}
		closeLog := c.setupFileLogging(args)
		defer closeLog()
		return c.executeBrowse(ctx, cmd)
	}
}

func (c *CLI) logLevel(args *Args) slog.Level {
	if args.LogLevel != nil {
		return logging.ParseLevel(*args.LogLevel)
	}
	return logging.ParseLevel(c.config.Log.Level)
}

func (c *CLI) setupLogging(args *Args) {
	format := c.config.Log.Format
	if args.LogFormat != nil {
		format = *args.LogFormat
	}
	logging.Setup(logging.ParseFormat(format), c.logLevel(args))
}

// setupFileLogging sends logs to ~/.config/lark/lark.log while the
// full-screen browser owns the terminal.
func (c *CLI) setupFileLogging(args *Args) func() {
	discard := func() {
		slog.SetDefault(logging.New(io.Discard, logging.FormatJSON, c.logLevel(args)))
	}
	dir, err := config.Dir()
	if err != nil {
		discard()
		return func() {}
	}
	f, err := logging.SetupFile(filepath.Join(dir, "lark.log"), c.logLevel(args))
	if err != nil {
		discard()
		return func() {}
	}
	return func() { f.Close() }
}

// openStore opens a database handle. Each long-running component gets its
// own handle.
func (c *CLI) openStore() (*dbstore.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(c.dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	st, err := dbstore.NewSQLiteStore(c.dbPath, dbstore.WithHysteresis(c.config.RetentionHysteresis))
	if err != nil {
		return nil, fmt.Errorf("failed to create database store: %w", err)
	}
	return st, nil
}

// clipboard returns the system clipboard, initializing it on first use.
func (c *CLI) clipboard() clipboard.Clipboard {
	if c.board == nil {
		c.board = sysboard.New(c.config.ReadTimeout.Std())
	}
	return c.board
}

func (c *CLI) icons() history.IconResolver {
	if c.config.IconDir == "" {
		return history.NoIcons{}
	}
	return history.DirIcons(c.config.IconDir)
}

func (c *CLI) newService(records history.Records, board clipboard.Clipboard) *history.Service {
	return history.NewService(records, board, c.icons(), c.config.PageSize)
}

// newSampler wires a sampler that writes through st.
func (c *CLI) newSampler(st store.RecordStore, changes *notify.Signal) *sampler.Sampler {
	cfg := c.config
	return sampler.New(sampler.Deps{
		Clipboard:  c.clipboard(),
		Store:      st,
		Retention:  retention.New(st, cfg.MaxRecordCount),
		Foreground: foreground.NewSystem(cfg.ReadTimeout.Std()),
		Notifier:   changes,
		Builder:    payload.NewBuilder(cfg.PreviewTextLimit, cfg.PreviewQuality, cfg.PreviewMaxDimension),
		Logger:     slog.Default(),
	}, sampler.Options{
		Interval:     cfg.PollInterval.Std(),
		CaptureText:  cfg.Capture.Text,
		CaptureImage: cfg.Capture.Image,
		CaptureFiles: cfg.Capture.File,
	})
}

// executeWatch handles the 'lark watch' command
func (c *CLI) executeWatch(ctx context.Context, cmd *WatchCmd) error {
	writer, err := c.openStore()
	if err != nil {
		return err
	}
	defer writer.Close()

	changes := notify.New()
	g, gctx := errgroup.WithContext(ctx)

	if cmd.API {
		reader, err := c.openStore()
		if err != nil {
			return err
		}
		defer reader.Close()

		addr := c.config.APIAddr
		if cmd.Addr != nil {
			addr = *cmd.Addr
		}
		if addr == "" {
			addr = DefaultAPIAddr
		}

		handler := api.NewHandler(api.Deps{
			History: c.newService(reader, c.clipboard()),
			Changes: changes,
		})
		g.Go(func() error {
			return api.Serve(gctx, addr, handler)
		})
	}

	g.Go(func() error {
		slog.Info("watching clipboard",
			"db", c.dbPath,
			"limit", c.config.MaxRecordCount,
			"interval", c.config.PollInterval.Std())
		return c.newSampler(writer, changes).Run(gctx)
	})

	return g.Wait()
}

// executeBrowse handles the 'lark browse' command
func (c *CLI) executeBrowse(ctx context.Context, cmd *BrowseCmd) error {
	reader, err := c.openStore()
	if err != nil {
		return err
	}
	defer reader.Close()

	svc := c.newService(reader, c.clipboard())
	if !cmd.Watch {
		return tui.Run(ctx, svc, nil)
	}

	writer, err := c.openStore()
	if err != nil {
		return err
	}
	defer writer.Close()

	changes := notify.New()
	sub, unsubscribe := changes.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.newSampler(writer, changes).Run(gctx)
	})
	g.Go(func() error {
		// Leaving the browser stops the sampler too
		defer cancel()
		return tui.Run(gctx, svc, sub)
	})
	return g.Wait()
}

// executeList handles the 'lark list' command
func (c *CLI) executeList(ctx context.Context, cmd *ListCmd) error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := c.newService(st, nil).ListRecent(ctx, cmd.Limit, cmd.Offset)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}
	return c.printEntries(entries, cmd.JSON)
}

// executeSearch handles the 'lark search' command
func (c *CLI) executeSearch(ctx context.Context, cmd *SearchCmd) error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := c.newService(st, nil).Search(ctx, cmd.Keyword, cmd.Offset)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(entries) == 0 && !cmd.JSON {
		return fmt.Errorf("no matches found for: %s", cmd.Keyword)
	}
	return c.printEntries(entries, cmd.JSON)
}

func (c *CLI) printEntries(entries []*history.Entry, asJSON bool) error {
	if asJSON {
		if entries == nil {
			entries = []*history.Entry{}
		}
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		source := e.Source
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(c.out, "%6d  %-5s  %s  %-16s  %s\n",
			e.ID,
			e.DataType,
			e.CapturedTime().Format("2006-01-02 15:04:05"),
			history.TruncateTitle(source, 16),
			history.Title(e.Record, titleWidth))
	}
	return nil
}

// executeGet handles the 'lark get' command
func (c *CLI) executeGet(ctx context.Context, cmd *GetCmd) error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if cmd.Clipboard {
		return c.restore(ctx, st, cmd.ID)
	}

	rec, err := c.newService(st, nil).Get(ctx, cmd.ID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no record with ID %d", cmd.ID)
	}
	if err != nil {
		return err
	}

	data, err := renderContent(rec, cmd.Output != nil)
	if err != nil {
		return err
	}

	if cmd.Output != nil {
		if err := os.WriteFile(*cmd.Output, data, 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Fprintf(c.out, "Written to %s: %s\n", *cmd.Output, history.Title(rec, titleWidth))
		return nil
	}

	_, err = c.out.Write(data)
	return err
}

// renderContent converts stored content into bytes for output. Images are
// only written in full to files; on a terminal they print a summary.
func renderContent(rec *store.Record, toFile bool) ([]byte, error) {
	switch rec.DataType {
	case store.DataTypeImage:
		if !toFile {
			return []byte(history.Title(rec, 0) + " (use -o to save it)\n"), nil
		}
		img, err := payload.DecodeImage(rec.Content)
		if err != nil {
			return nil, err
		}
		return clipboard.EncodePNG(img)
	case store.DataTypeFile:
		paths, err := payload.DecodeFiles(rec.Content)
		if err != nil {
			return nil, err
		}
		return []byte(strings.Join(paths, "\n") + "\n"), nil
	default:
		return []byte(rec.Content), nil
	}
}

// executeRestore handles the 'lark restore' command
func (c *CLI) executeRestore(ctx context.Context, cmd *RestoreCmd) error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	return c.restore(ctx, st, cmd.ID)
}

func (c *CLI) restore(ctx context.Context, st history.Records, id uint) error {
	rec, err := c.newService(st, c.clipboard()).Restore(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no record with ID %d", id)
		}
		return fmt.Errorf("failed to write to clipboard: %w", err)
	}
	fmt.Fprintf(c.out, "Copied to clipboard: %s\n", history.Title(rec, titleWidth))
	return nil
}

// executeConfig handles the 'lark config' command
func (c *CLI) executeConfig(cmd *ConfigCmd) error {
	switch {
	case cmd.Get != nil:
		value, err := c.configManager.Get(cmd.Get.Key)
		if err != nil {
			return fmt.Errorf("failed to get config value: %w", err)
		}
		fmt.Fprintf(c.out, "%s\n", value)
		return nil

	case cmd.Set != nil:
		if err := c.configManager.Update(cmd.Set.Key, cmd.Set.Value); err != nil {
			return fmt.Errorf("failed to set config value: %w", err)
		}
		fmt.Fprintf(c.out, "Set %s = %s\n", cmd.Set.Key, cmd.Set.Value)
		return nil

	case cmd.List != nil:
		values, err := c.configManager.List()
		if err != nil {
			return fmt.Errorf("failed to list config values: %w", err)
		}
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(c.out, "Current configuration (%s):\n", c.configManager.GetConfigPath())
		for _, key := range keys {
			fmt.Fprintf(c.out, "  %s = %s\n", key, values[key])
		}
		return nil

	default:
		return fmt.Errorf("no config subcommand specified")
	}
}
