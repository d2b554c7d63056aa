package main

import (
	"fmt"
	"path"
	"strings"

	"github.com/setanarut/texmod/labels"
	"github.com/spf13/cobra"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Edit texture labels in texmod.json",
}

var labelSetCmd = &cobra.Command{
	Use:   "set [path] [label...]",
	Short: "Add labels, replacing other labels of the same category",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runLabelSet,
}

var labelClearCmd = &cobra.Command{
	Use:   "clear [path] [effect|modifier|output]",
	Short: "Remove every label of a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runLabelClear,
}

var labelListCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "Show the labels of a texture, or every known label",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLabelList,
}

func init() {
	labelCmd.AddCommand(labelSetCmd, labelClearCmd, labelListCmd)
	rootCmd.AddCommand(labelCmd)
}

func runLabelSet(cmd *cobra.Command, args []string) error {
	store, m, err := openProject(cmd)
	if err != nil {
		return err
	}
	p := path.Clean(args[0])
	e := m.Entry(p)
	for _, name := range args[1:] {
		if !labels.Known(name) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is not a pipeline label\n", name)
		}
		e.Labels = labels.Set(e.Labels, name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", p, strings.Join(e.Labels, " "), labels.Resolve(e.Labels))
	return store.SaveManifest(m)
}

func runLabelClear(cmd *cobra.Command, args []string) error {
	c, ok := labels.ParseCategory(args[1])
	if !ok {
		return fmt.Errorf("unknown category %q", args[1])
	}
	store, m, err := openProject(cmd)
	if err != nil {
		return err
	}
	p := path.Clean(args[0])
	e, ok := m.Textures[p]
	if !ok {
		return nil
	}
	e.Labels = labels.Clear(e.Labels, c)
	return store.SaveManifest(m)
}

func runLabelList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		for _, c := range []labels.Category{labels.CategoryEffect, labels.CategoryModifier, labels.CategoryOutput} {
			fmt.Fprintf(out, "%-9s %s\n", c, strings.Join(labels.Names(c), " "))
		}
		return nil
	}
	_, m, err := openProject(cmd)
	if err != nil {
		return err
	}
	p := path.Clean(args[0])
	e, ok := m.Textures[p]
	if !ok {
		return fmt.Errorf("%s: not labelled", p)
	}
	fmt.Fprintf(out, "%s: %s (%s)\n", p, strings.Join(e.Labels, " "), labels.Resolve(e.Labels))
	return nil
}
