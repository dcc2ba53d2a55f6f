package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/viant/closet/service"
	"github.com/viant/closet/wardrobe"
)

func (a *app) addCmd() *cobra.Command {
	var category, color string
	cmd := &cobra.Command{
		Use:   "add <image>",
		Short: "Store an image and add it to the wardrobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return a.withCloset(cmd.Context(), func(c *service.Closet) error {
				item, err := c.AddImage(cmd.Context(), f, filepath.Ext(args[0]), category, color)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), item)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "garment category, e.g. T-Shirt")
	cmd.Flags().StringVar(&color, "color", "", "garment color")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a garment; later ids shift down by one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return a.withCloset(cmd.Context(), func(c *service.Closet) error {
				removed, err := c.RemoveItem(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%w: no item with id %d", wardrobe.ErrInvalidItem, id)
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"removed": id})
			})
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the wardrobe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCloset(cmd.Context(), func(c *service.Closet) error {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"items": c.ListItems()})
			})
		},
	}
}

const defaultLocation = "New York"

func (a *app) recommendCmd() *cobra.Command {
	var occasion, location string
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend an outfit for an occasion and location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCloset(cmd.Context(), func(c *service.Closet) error {
				rec, err := c.Recommend(cmd.Context(), occasion, location)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
	cmd.Flags().StringVar(&occasion, "occasion", "casual", "occasion, e.g. casual, formal, date")
	cmd.Flags().StringVar(&location, "location", defaultLocation, "city used for the weather lookup")
	return cmd
}

func (a *app) similarCmd() *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "similar <id>",
		Short: "List garments that look most like a garment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			if k <= 0 {
				return errors.New("-k must be positive")
			}
			return a.withCloset(cmd.Context(), func(c *service.Closet) error {
				matches, err := c.Similar(cmd.Context(), id, k)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"matches": matches})
			})
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 5, "number of matches")
	return cmd
}
