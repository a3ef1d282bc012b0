package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/jon4hz/agora/internal/store"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// watchedKeys are the keys printed by the watch command.
var watchedKeys = []string{
	store.KeyUser,
	store.KeyOnlineStatus,
	store.KeyLoggedInUserID,
	store.KeyUsers,
	store.KeyUserProfiles,
	store.KeyTheme,
	store.KeyFontSize,
	store.KeyLanguagePreference,
}

// redactedKeys hold credentials, only their size is printed.
var redactedKeys = []string{store.KeyUser, store.KeyUsers, store.KeyUserProfiles}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print store changes made by other views",
	Long: `Follow the store and print every change. With the redis store this includes
changes made by other agora processes.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(a *app) error {
			var mu sync.Mutex
			out := cmd.OutOrStdout()
			for _, key := range watchedKeys {
				unsubscribe := a.store.Subscribe(key, func(ev store.Event) {
					mu.Lock()
					defer mu.Unlock()
					printEvent(out, ev)
				})
				defer unsubscribe()
			}

			log.Info("watching store changes, press ctrl+c to stop", "store", a.cfg.Store.Type)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return a.store.Listen(ctx)
			})
			g.Go(func() error {
				<-ctx.Done()
				return nil
			})
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("failed to follow store changes: %w", err)
			}
			log.Info("stopped watching")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func printEvent(w io.Writer, ev store.Event) {
	origin := lo.Ternary(ev.Remote, "remote", "local")
	at := time.Now().Format(time.TimeOnly)
	switch {
	case ev.Removed:
		fmt.Fprintf(w, "%s [%s] %s removed\n", at, origin, ev.Key)
	case lo.Contains(redactedKeys, ev.Key):
		fmt.Fprintf(w, "%s [%s] %s changed (%s)\n", at, origin, ev.Key, humanize.Bytes(uint64(len(ev.Value))))
	default:
		fmt.Fprintf(w, "%s [%s] %s = %s\n", at, origin, ev.Key, ev.Value)
	}
}
