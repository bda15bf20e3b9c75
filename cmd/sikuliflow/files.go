package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/sikuliflow/internal/depgraph"
	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
	"github.com/efebarandurmaz/sikuliflow/internal/project"
	"github.com/efebarandurmaz/sikuliflow/internal/render"
)

func exportCmd(configPath, dialect *string) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "export <project.json>",
		Short: "Generate scripts from a project",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			s, err := project.Open(ctx, args[0], a.sessionOptions()...)
			if err != nil {
				return err
			}
			files, err := s.Export(ctx, *dialect)
			if err != nil {
				return err
			}
			if outputDir == "" {
				if len(files) > 0 {
					fmt.Print(string(files[0].Content))
				}
				return nil
			}
			written, err := project.WriteFiles(outputDir, files)
			if err != nil {
				return err
			}
			for _, p := range written {
				fmt.Println(p)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (prints the main script when empty)")
	return cmd
}

func importCmd(configPath, dialect *string) *cobra.Command {
	var projectPath string
	cmd := &cobra.Command{
		Use:   "import <script>...",
		Short: "Rebuild a graph from scripts into a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			files := make([]plugins.SourceFile, 0, len(args))
			for _, p := range args {
				content, err := os.ReadFile(p)
				if err != nil {
					return fmt.Errorf("reading %s: %w", p, err)
				}
				files = append(files, plugins.SourceFile{Path: filepath.Base(p), Content: content})
			}

			s, err := a.openOrNew(ctx, projectPath)
			if err != nil {
				return err
			}
			g, err := s.Import(ctx, *dialect, files)
			if err != nil {
				return err
			}
			for _, v := range g.Validate() {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", v)
			}
			if err := s.Save(ctx, projectPath); err != nil {
				return err
			}
			fmt.Printf("Imported %d nodes, %d edges into %s\n", len(g.Nodes), len(g.Edges), projectPath)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&projectPath, "project", "p", "project.json", "Project file to create or update")
	return cmd
}

func statsCmd(configPath *string) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats <project.json>",
		Short: "Show execution order and dependency statistics",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			f, err := project.LoadFile(args[0])
			if err != nil {
				return err
			}
			g := depgraph.Analyze(f.Graph, f.Functions)
			if jsonOutput {
				data, err := depgraph.ExportJSON(g)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			fmt.Print(depgraph.FormatStats(g))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func dotCmd(configPath *string) *cobra.Command {
	var mermaid bool
	cmd := &cobra.Command{
		Use:   "dot <project.json>",
		Short: "Export the dependency graph as Graphviz DOT or Mermaid",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			f, err := project.LoadFile(args[0])
			if err != nil {
				return err
			}
			g := depgraph.Analyze(f.Graph, f.Functions)
			if mermaid {
				fmt.Print(depgraph.ExportMermaid(g))
				return nil
			}
			fmt.Print(depgraph.ExportDOT(g))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&mermaid, "mermaid", false, "Emit Mermaid instead of DOT")
	return cmd
}

func renderCmd(configPath *string) *cobra.Command {
	var (
		outputPath string
		function   string
		width      int
		height     int
	)
	cmd := &cobra.Command{
		Use:   "render <project.json>",
		Short: "Draw the main graph or a function body to a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			s, err := project.Open(ctx, args[0], a.sessionOptions()...)
			if err != nil {
				return err
			}
			if function != "" {
				if _, err := s.OpenFunction(function); err != nil {
					return err
				}
			}
			opts := render.DefaultOptions()
			opts.Width, opts.Height = width, height
			opts.ImageName = s.Assets().Name
			if err := render.SavePNG(outputPath, s.Active().Frame(), opts); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", outputPath)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "flow.png", "Output PNG path")
	cmd.Flags().StringVar(&function, "function", "", "Render the body of this function id")
	cmd.Flags().IntVar(&width, "width", 0, "Viewport width (0 fits the graph)")
	cmd.Flags().IntVar(&height, "height", 0, "Viewport height (0 fits the graph)")
	return cmd
}
