// Copyright 2026 The Databind Authors
// This file is part of the databind library.
//
// The databind library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The databind library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the databind library. If not, see <http://www.gnu.org/licenses/>.

// Command databind compiles Databind projects into Minecraft
// datapack function trees.
package main

import (
	goflag "flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/databind-lang/databind/compiler"
	"github.com/databind-lang/databind/internal/project"
)

var (
	cfgFile      string
	outDir       string
	ignoreConfig bool
	nonceSeed    int64
)

var rootCmd = &cobra.Command{
	Use:   "databind [PROJECT]",
	Short: "Expand the functionality of Minecraft datapacks",
	Long: `Databind compiles .databind source files into a tree of .mcfunction
files plus the JSON tag manifests of a Minecraft datapack.

With no PROJECT argument, the nearest directory containing a
databind.toml (searching upward from the working directory) is
compiled.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCompile,
}

var createCmd = &cobra.Command{
	Use:           "create NAME",
	Short:         "Create a new project",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCreate,
}

var (
	createPath        string
	createDescription string
	createVersion     uint8
)

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "configuration for the compiler")
	rootCmd.Flags().StringVarP(&outDir, "out", "o", "out", "the output directory")
	rootCmd.Flags().BoolVar(&ignoreConfig, "ignore-config", false, "ignore the config file")
	rootCmd.Flags().Int64Var(&nonceSeed, "seed", 0, "seed for synthesized function names (0 picks one)")

	createCmd.Flags().StringVar(&createPath, "path", "", "the path to create the pack in")
	createCmd.Flags().StringVar(&createDescription, "description", "A Databind pack", "the pack description")
	createCmd.Flags().Uint8Var(&createVersion, "version", 7, "the pack_format for the pack.mcmeta file")
	rootCmd.AddCommand(createCmd)

	// glog registers its flags (-v and friends) on the standard flag set.
	goflag.Set("logtostderr", "true")
	rootCmd.PersistentFlags().AddGoFlagSet(goflag.CommandLine)
}

func main() {
	// glog checks flag.Parsed before logging; the real flags arrive
	// through cobra's pflag set.
	goflag.CommandLine.Parse([]string{})
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		code := 1
		if compiler.IsInternal(err) {
			code = 2
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	fsys := afero.NewOsFs()

	var root string
	if len(args) == 1 {
		root = args[0]
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		config, err := project.FindConfigInParents(fsys, cwd)
		if err != nil {
			cmd.Usage()
			return err
		}
		root = filepath.Dir(config)
	}

	info, err := fsys.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot open project %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("databind does not support single-file compilation")
	}

	configPath := ""
	switch {
	case cfgFile != "":
		if info, err := fsys.Stat(cfgFile); err != nil || info.IsDir() {
			return fmt.Errorf("non-existent config file specified: %s", cfgFile)
		}
		configPath = cfgFile
	default:
		candidate := filepath.Join(root, project.ConfigFileName)
		if info, err := fsys.Stat(candidate); err == nil && !info.IsDir() {
			configPath = candidate
		}
	}

	settings := project.DefaultSettings()
	if configPath != "" && !ignoreConfig {
		settings, err = project.LoadSettings(fsys, configPath)
		if err != nil {
			return err
		}
		settings.Output = filepath.Join(root, settings.Output)
	}
	if cmd.Flags().Changed("out") || configPath == "" || ignoreConfig {
		settings.Output = outDir
	}

	driver := project.NewDriver(fsys, root, settings, configPath)
	seed := nonceSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	driver.SetSeed(seed)

	if err := driver.Run(); err != nil {
		return err
	}
	fmt.Printf("Compiled project to %s\n", settings.Output)
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	fsys := afero.NewOsFs()
	base, err := project.CreateProject(fsys, project.CreateOptions{
		Name:        args[0],
		Path:        createPath,
		Description: createDescription,
		PackFormat:  createVersion,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created project %s in %s\n", args[0], base)
	return nil
}
