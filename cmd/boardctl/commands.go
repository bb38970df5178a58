package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/localnerve/recipe-board/internal/client"
	"github.com/localnerve/recipe-board/internal/models"
	"github.com/spf13/cobra"
)

func parseIndex(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q: want a number from 0", arg)
	}
	return i, nil
}

// resolve finds the one id that ref names: an exact id, a unique id prefix
// or a case insensitive title
func resolve(kind, ref string, ids, titles []string) (string, error) {
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
	}
	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, ref) {
			matches = append(matches, id)
		}
	}
	if len(matches) == 0 {
		for i, title := range titles {
			if strings.EqualFold(title, ref) {
				matches = append(matches, ids[i])
			}
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no %s matches %q", kind, ref)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("%q matches %d %ss, use more of the id", ref, len(matches), kind)
}

func resolveColumn(st client.State, ref string) (string, error) {
	ids := make([]string, len(st.Columns))
	titles := make([]string, len(st.Columns))
	for i, col := range st.Columns {
		ids[i], titles[i] = col.ID, col.Title
	}
	return resolve("column", ref, ids, titles)
}

func resolveCard(st client.State, ref string) (string, error) {
	var ids, titles []string
	for _, col := range st.Columns {
		for _, card := range col.Cards {
			ids = append(ids, card.ID)
			titles = append(titles, card.Title)
		}
	}
	return resolve("card", ref, ids, titles)
}

// mutate loads the board, applies fn and prints the board as it ends up
func mutate(opts *options, fn func(cmd *cobra.Command, args []string, store *client.Store, st client.State) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := opts.session(cmd.Context())
		if err != nil {
			return err
		}
		err = fn(cmd, args, store, store.State())
		fmt.Fprintln(cmd.OutOrStdout(), renderBoard(store.State()))
		return err
	}
}

func showCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the board",
		Args:  cobra.NoArgs,
		RunE: mutate(opts, func(*cobra.Command, []string, *client.Store, client.State) error {
			return nil
		}),
	}
}

func moveCardCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "move-card CARD COLUMN INDEX",
		Short: "Move a card to a position in a column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			return mutate(opts, func(cmd *cobra.Command, args []string, store *client.Store, st client.State) error {
				cardID, err := resolveCard(st, args[0])
				if err != nil {
					return err
				}
				columnID, err := resolveColumn(st, args[1])
				if err != nil {
					return err
				}
				return store.MoveCard(cmd.Context(), cardID, columnID, to)
			})(cmd, args)
		},
	}
}

func moveColumnCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "move-column COLUMN INDEX",
		Short: "Move a column to a position on the board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return mutate(opts, func(cmd *cobra.Command, args []string, store *client.Store, st client.State) error {
				columnID, err := resolveColumn(st, args[0])
				if err != nil {
					return err
				}
				return store.MoveColumn(cmd.Context(), columnID, to)
			})(cmd, args)
		},
	}
}

func addColumnCmd(opts *options) *cobra.Command {
	var at, limit int
	cmd := &cobra.Command{
		Use:   "add-column TITLE",
		Short: "Add a column",
		Args:  cobra.ExactArgs(1),
		RunE: mutate(opts, func(cmd *cobra.Command, args []string, store *client.Store, st client.State) error {
			in := client.NewColumn{Title: args[0]}
			if cmd.Flags().Changed("at") {
				in.Order = &at
			}
			if cmd.Flags().Changed("limit") {
				in.Limit = &limit
			}
			_, err := store.AddColumn(cmd.Context(), in)
			return err
		}),
	}
	cmd.Flags().IntVar(&at, "at", 0, "position (default append)")
	cmd.Flags().IntVar(&limit, "limit", 0, "advisory card limit")
	return cmd
}

func renameColumnCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rename-column COLUMN TITLE",
		Short: "Rename a column",
		Args:  cobra.ExactArgs(2),
		RunE: mutate(opts, func(cmd *cobra.Command, args []string, store *client.Store, st client.State) error {
			columnID, err := resolveColumn(st, args[0])
			if err != nil {
				return err
			}
			return store.RenameColumn(cmd.Context(), columnID, args[1])
		}),
	}
}

func deleteColumnCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-column COLUMN",
		Short: "Delete a column and its cards",
		Args:  cobra.ExactArgs(1),
		RunE: mutate(opts, func(cmd *cobra.Command, args []string, store *client.Store, st client.State) error {
			columnID, err := resolveColumn(st, args[0])
			if err != nil {
				return err
			}
			return store.DeleteColumn(cmd.Context(), columnID)
		}),
	}
}

// parseIngredient reads NAME:QUANTITY:UNIT
func parseIngredient(s string) (client.Ingredient, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return client.Ingredient{}, fmt.Errorf("invalid ingredient %q: want NAME:QUANTITY:UNIT", s)
	}
	qty, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return client.Ingredient{}, fmt.Errorf("invalid quantity in %q", s)
	}
	if _, err := models.ParseUnit(parts[2]); err != nil {
		return client.Ingredient{}, err
	}
	return client.Ingredient{Name: strings.TrimSpace(parts[0]), Quantity: qty, Unit: parts[2]}, nil
}

func addCardCmd(opts *options) *cobra.Command {
	var (
		at           int
		description  string
		status       string
		labels       []string
		instructions []string
		ingredients  []string
	)
	cmd := &cobra.Command{
		Use:   "add-card COLUMN TITLE",
		Short: "Add a recipe card to a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := client.NewCard{
				Title:        args[1],
				Description:  description,
				Status:       status,
				Labels:       labels,
				Instructions: instructions,
			}
			if status != "" {
				if _, err := models.ParseRecipeStatus(status); err != nil {
					return err
				}
			}
			for _, s := range ingredients {
				ing, err := parseIngredient(s)
				if err != nil {
					return err
				}
				in.Ingredients = append(in.Ingredients, ing)
			}
			if cmd.Flags().Changed("at") {
				in.Order = &at
			}
			return mutate(opts, func(cmd *cobra.Command, args []string, store *client.Store, st client.State) error {
				columnID, err := resolveColumn(st, args[0])
				if err != nil {
					return err
				}
				in.ColumnID = columnID
				_, err = store.AddCard(cmd.Context(), in)
				return err
			})(cmd, args)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&at, "at", 0, "position (default append)")
	flags.StringVar(&description, "description", "", "card description")
	flags.StringVar(&status, "status", "", "DORMANT, FULLY_STOCKED, LOW_STOCK or OUT_OF_STOCK")
	flags.StringSliceVar(&labels, "label", nil, "label, repeatable")
	flags.StringArrayVar(&instructions, "step", nil, "instruction step, repeatable")
	flags.StringArrayVar(&ingredients, "ingredient", nil, "NAME:QUANTITY:UNIT, repeatable")
	return cmd
}

func deleteCardCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-card CARD",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE: mutate(opts, func(cmd *cobra.Command, args []string, store *client.Store, st client.State) error {
			cardID, err := resolveCard(st, args[0])
			if err != nil {
				return err
			}
			return store.DeleteCard(cmd.Context(), cardID)
		}),
	}
}
