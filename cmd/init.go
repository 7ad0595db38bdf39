package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/arbor/internal/config"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/paths"
	"github.com/zjrosen/arbor/internal/scene"
	"github.com/zjrosen/arbor/internal/templates"
)

type initOptions struct {
	template string
	force    bool
	list     bool
}

func newInitCmd(o *options) *cobra.Command {
	iop := &initOptions{}
	c := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a built-in scene and make it the configured scene",
		Long: `Write one of the built-in scene templates. The path may be a scene file,
a project directory or an .arbor directory; it defaults to the configured
scene. The written path is recorded in the config file.

Example:
  arbor init
  arbor init --template nested demo/nested.yaml
  arbor init --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runInit(cmd, iop, args)
		},
	}
	c.Flags().StringVarP(&iop.template, "template", "t", templates.DefaultScene, "template name")
	c.Flags().BoolVarP(&iop.force, "force", "f", false, "overwrite an existing scene")
	c.Flags().BoolVar(&iop.list, "list", false, "list the built-in templates")
	return c
}

func (o *options) runInit(cmd *cobra.Command, iop *initOptions, args []string) error {
	out := cmd.OutOrStdout()
	if iop.list {
		fmt.Fprintln(out, strings.Join(templates.SceneNames(), "\n"))
		return nil
	}

	target := o.cfg.Scene
	if len(args) == 1 {
		target = args[0]
	}
	path := paths.ResolveScene(target)

	if _, err := os.Stat(path); err == nil && !iop.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking scene: %w", err)
	}

	if err := scene.WriteTemplate(path, iop.template); err != nil {
		return err
	}
	if err := config.SaveScenePath(o.configPath(), path); err != nil {
		log.Warn(log.CatConfig, "could not record scene in config", "error", err)
	}
	fmt.Fprintf(out, "wrote %s (%s)\n", path, iop.template)
	return nil
}
