package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/NikitaCartes-forks/bonk/internal/actionlog"
	"github.com/NikitaCartes-forks/bonk/internal/bonk"
	"github.com/NikitaCartes-forks/bonk/internal/persistence/indexdb"
	persistlog "github.com/NikitaCartes-forks/bonk/internal/persistence/log"
)

type actionFilterFlags struct {
	action string
	player string
	since  time.Duration
	limit  int
}

func (f *actionFilterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.action, "action", "", "action identifier (villager-bonk, villager-blam)")
	cmd.Flags().StringVar(&f.player, "player", "", "player id or name")
	cmd.Flags().DurationVar(&f.since, "since", 0, "only actions newer than this (e.g. 24h)")
	cmd.Flags().IntVar(&f.limit, "limit", 100, "result limit")
}

func (f *actionFilterFlags) sinceTime(now time.Time) time.Time {
	if f.since <= 0 {
		return time.Time{}
	}
	return now.Add(-f.since)
}

func actionsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Inspect logged villager actions",
	}
	cmd.AddCommand(actionsScanCmd(g))
	cmd.AddCommand(actionsSearchCmd(g))
	cmd.AddCommand(actionsTypesCmd(g))
	return cmd
}

func actionsScanCmd(g *globalFlags) *cobra.Command {
	var f actionFilterFlags
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the compressed JSONL action log",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			filter := persistlog.Filter{
				Action: strings.TrimSpace(f.action),
				World:  g.worldID,
				Player: strings.TrimSpace(f.player),
				Since:  f.sinceTime(time.Now()),
			}
			n := 0
			err := persistlog.ScanActions(persistlog.ActionsDir(g.worldDir()), filter, func(a actionlog.Action) error {
				if f.limit > 0 && n >= f.limit {
					return persistlog.ErrStop
				}
				n++
				return printJSON(out, a)
			})
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func actionsSearchCmd(g *globalFlags) *cobra.Command {
	var (
		f      actionFilterFlags
		dbPath string
		near   string
		radius int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Query the sqlite action index, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(dbPath)
			if path == "" {
				path = indexdb.DefaultPath(g.worldDir())
			}
			db, err := indexdb.OpenReader(path)
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			defer db.Close()

			q := indexdb.Query{
				Action: strings.TrimSpace(f.action),
				World:  g.worldID,
				Player: strings.TrimSpace(f.player),
				Since:  f.sinceTime(time.Now()),
				Limit:  f.limit,
			}
			if strings.TrimSpace(near) != "" {
				p, err := parseVec3(near)
				if err != nil {
					return fmt.Errorf("bad --near: %w", err)
				}
				q.Near = &p
				q.Radius = radius
			}
			acts, err := indexdb.QueryActions(context.Background(), db, q)
			if err != nil {
				return err
			}
			for _, a := range acts {
				if err := printJSON(cmd.OutOrStdout(), a); err != nil {
					return err
				}
			}
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite db path (default: <data>/worlds/<world>/index/actions.sqlite)")
	cmd.Flags().StringVar(&near, "near", "", "block position x,y,z")
	cmd.Flags().IntVar(&radius, "radius", 8, "horizontal radius around --near")
	return cmd
}

func actionsTypesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the action types the server registers, with indexed counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := actionlog.NewRegistry()
			if err := bonk.RegisterActionTypes(reg); err != nil {
				return err
			}
			counts := map[string]int{}
			if db, err := indexdb.OpenReader(indexdb.DefaultPath(g.worldDir())); err == nil {
				counts, err = indexdb.CountByAction(context.Background(), db)
				_ = db.Close()
				if err != nil {
					return err
				}
			}
			for _, id := range reg.Identifiers() {
				t, _ := reg.Lookup(id)
				row := struct {
					Identifier      string `json:"action"`
					TranslationType string `json:"translation_type"`
					Indexed         int    `json:"indexed"`
				}{id, t.TranslationType(), counts[id]}
				if err := printJSON(cmd.OutOrStdout(), row); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func parseVec3(s string) ([3]int, error) {
	var v [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z")
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}
