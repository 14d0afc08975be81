package cli

import (
	"fmt"
)

// Args represents the top-level command structure
type Args struct {
	Watch   *WatchCmd   `arg:"subcommand:watch" help:"Capture the clipboard into history until interrupted"`
	List    *ListCmd    `arg:"subcommand:list" help:"List recent history, newest first"`
	Get     *GetCmd     `arg:"subcommand:get" help:"Print one record's content"`
	Search  *SearchCmd  `arg:"subcommand:search" help:"Search text, file paths and source apps"`
	Restore *RestoreCmd `arg:"subcommand:restore" help:"Copy a record back to the clipboard"`
	Browse  *BrowseCmd  `arg:"subcommand:browse" help:"Interactive history browser (default)"`
	Config  *ConfigCmd  `arg:"subcommand:config" help:"Manage configuration settings"`

	ConfigPath *string `arg:"--config,env:LARK_CONFIG" help:"Config file (default: ~/.config/lark/config.yaml)"`
	DBPath     *string `arg:"--db,env:LARK_DB" help:"Database file (overrides db_path)"`
	LogLevel   *string `arg:"--log-level" help:"debug, info, warn or error (overrides log.level)"`
	LogFormat  *string `arg:"--log-format" help:"auto, text or json (overrides log.format)"`
}

// WatchCmd represents the 'lark watch' command
type WatchCmd struct {
	API  bool    `arg:"--api" help:"Also serve the HTTP API"`
	Addr *string `arg:"--addr" help:"API listen address (overrides api_addr)"`
}

// ListCmd represents the 'lark list' command
type ListCmd struct {
	Limit  int  `arg:"-n,--limit" default:"20" help:"Number of records to show (0 for all)"`
	Offset int  `arg:"--offset" help:"Skip this many records"`
	JSON   bool `arg:"--json" help:"Print records as JSON"`
}

// GetCmd represents the 'lark get' command
type GetCmd struct {
	ID        uint    `arg:"positional,required" help:"Record ID"`
	Output    *string `arg:"-o,--output" help:"Write content to a file (images are written as PNG)"`
	Clipboard bool    `arg:"-c,--clipboard" help:"Copy to clipboard instead of printing"`
}

// SearchCmd represents the 'lark search' command
type SearchCmd struct {
	Keyword string `arg:"positional,required" help:"Case-insensitive substring to look for"`
	Offset  int    `arg:"--offset" help:"Skip this many matches"`
	JSON    bool   `arg:"--json" help:"Print matches as JSON"`
}

// RestoreCmd represents the 'lark restore' command
type RestoreCmd struct {
	ID uint `arg:"positional,required" help:"Record ID"`
}

// BrowseCmd represents the 'lark browse' command
type BrowseCmd struct {
	Watch bool `arg:"-w,--watch" help:"Capture in the same process and refresh live"`
}

// ConfigCmd represents the 'lark config' command
type ConfigCmd struct {
	Get  *ConfigGetCmd  `arg:"subcommand:get" help:"Get a configuration value"`
	Set  *ConfigSetCmd  `arg:"subcommand:set" help:"Set a configuration value"`
	List *ConfigListCmd `arg:"subcommand:list" help:"List all configuration values"`
}

// ConfigGetCmd represents the 'lark config get' command
type ConfigGetCmd struct {
	Key string `arg:"positional,required" help:"Configuration key, e.g. max-record-count"`
}

// ConfigSetCmd represents the 'lark config set' command
type ConfigSetCmd struct {
	Key   string `arg:"positional,required" help:"Configuration key"`
	Value string `arg:"positional,required" help:"Configuration value"`
}

// ConfigListCmd represents the 'lark config list' command
type ConfigListCmd struct{}

// Description returns the program description
func (Args) Description() string {
	return "lark - clipboard history with deduplication and bounded retention"
}

// Version returns the program version
func (Args) Version() string {
	return "lark 0.1.0"
}

// Epilogue returns additional help text
func (Args) Epilogue() string {
	return `Examples:
  lark watch                       # Capture the clipboard in the foreground
  lark watch --api                 # ...and serve the HTTP API on api_addr
  lark                             # Browse history
  lark browse -w                   # Browse while capturing
  lark list -n 5                   # Five newest records
  lark get 42                      # Print record 42
  lark get 42 -o shot.png          # Save an image record
  lark search invoice              # Find records mentioning "invoice"
  lark restore 42                  # Put record 42 back on the clipboard
  lark config set max-record-count 500`
}

// HasCommand reports whether any subcommand was given.
func (args *Args) HasCommand() bool {
	return args.Watch != nil || args.List != nil || args.Get != nil || args.Search != nil ||
		args.Restore != nil || args.Browse != nil || args.Config != nil
}

// Validate performs validation on the parsed arguments
func (args *Args) Validate() error {
	switch {
	case args.List != nil:
		return args.List.Validate()
	case args.Get != nil:
		return args.Get.Validate()
	case args.Search != nil:
		return args.Search.Validate()
	case args.Restore != nil:
		if args.Restore.ID == 0 {
			return fmt.Errorf("record ID must be positive")
		}
	}
	return nil
}

// Validate validates list command arguments
func (l *ListCmd) Validate() error {
	if l.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	if l.Offset < 0 {
		return fmt.Errorf("offset must be non-negative")
	}
	return nil
}

// Validate validates get command arguments
func (g *GetCmd) Validate() error {
	if g.ID == 0 {
		return fmt.Errorf("record ID must be positive")
	}
	if g.Output != nil && g.Clipboard {
		return fmt.Errorf("cannot specify both file and clipboard output")
	}
	return nil
}

// Validate validates search command arguments
func (s *SearchCmd) Validate() error {
	if s.Keyword == "" {
		return fmt.Errorf("keyword must not be empty")
	}
	if s.Offset < 0 {
		return fmt.Errorf("offset must be non-negative")
	}
	return nil
}
