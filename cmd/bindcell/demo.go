package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kolkov/bindcell/bind"
	"github.com/kolkov/bindcell/cell"
	"github.com/kolkov/bindcell/internal/cell/config"
	"github.com/kolkov/bindcell/internal/cell/recorder"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the borrow conflict scenarios and print the resulting errors",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().String("config", "", "TOML options file (see BINDCELL_CONFIG)")
	demoCmd.Flags().String("dump", "", "append the demo conflicts to this msgpack dump")
	demoCmd.Flags().Bool("verbose", false, "log host calls to stderr")
}

type counter struct {
	Value int
}

func runDemo(cmd *cobra.Command, _ []string) error {
	if err := applyColorFlag(cmd); err != nil {
		return err
	}
	cfgPath, _ := cmd.Flags().GetString("config")
	dump, _ := cmd.Flags().GetString("dump")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if cfgPath != "" {
		opts, err := config.LoadIfExists(cfgPath)
		if errors.Is(err, config.ErrNoConfig) {
			return fmt.Errorf("%s: %w", cfgPath, err)
		}
		if err != nil {
			return err
		}
		if err := config.Set(opts); err != nil {
			return err
		}
	}

	rec := recorder.Default()
	if dump != "" {
		if err := rec.OpenDump(dump); err != nil {
			return err
		}
		defer rec.Close()
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	out := cmd.OutOrStdout()
	scenarios := []struct {
		title string
		run   func() error
	}{
		{"exclusive borrow while two shared borrows are outstanding", demoSharedThenExclusive},
		{"shared borrow after a panicking exclusive borrow", demoPoisoning},
		{"host callback into an exclusively borrowed object", func() error { return demoReentrant(logger) }},
	}
	for i, s := range scenarios {
		fmt.Fprintf(out, "%s\n", headerColor.Sprintf("[%d] %s", i+1, s.title))
		if err := s.run(); err != nil {
			fmt.Fprintf(out, "%v\n\n", err)
			continue
		}
		fmt.Fprintln(out, "no conflict")
		fmt.Fprintln(out)
	}

	stats := rec.Stats()
	fmt.Fprintf(out, "recorded %d conflicts at %d locations (diagnostics: %v)\n",
		stats.Total, stats.Unique, cell.Diagnostics())
	return nil
}

func demoSharedThenExclusive() error {
	c := cell.NewNamed("scores", []int{1, 2, 3})
	g1, err := c.Borrow()
	if err != nil {
		return err
	}
	defer g1.Release()
	g2, err := c.Borrow()
	if err != nil {
		return err
	}
	defer g2.Release()

	m, err := c.BorrowMut()
	if err != nil {
		return err
	}
	m.Release()
	return nil
}

func demoPoisoning() error {
	c := cell.NewNamed("inventory", map[string]int{"potion": 1})
	func() {
		defer func() { _ = recover() }()
		_ = cell.WithMut(c, func(m *map[string]int) error {
			(*m)["potion"]--
			panic("native code failed mid-update")
		})
	}()
	_, err := c.Borrow()
	return err
}

func demoReentrant(logger *slog.Logger) error {
	reg := bind.NewRegistry()
	obj := bind.NewInstance("counter", counter{}, bind.WithLogger(logger)).
		Read("get", func(_ context.Context, c counter, _ []any) (any, error) {
			return c.Value, nil
		}).
		Write("increment", func(ctx context.Context, c *counter, _ []any) (any, error) {
			c.Value++
			// Notify the host, which reads the counter back.
			return reg.Invoke(ctx, "counter", "get")
		})
	if err := reg.Register(obj); err != nil {
		return err
	}

	_, err := reg.Invoke(context.Background(), "counter", "increment")
	if err != nil && !errors.Is(err, cell.ErrAlreadyExclusivelyBorrowed) {
		return fmt.Errorf("unexpected failure: %w", err)
	}
	return err
}
