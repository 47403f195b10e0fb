/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mautops/notary-gin/internal/config"
	"github.com/mautops/notary-gin/internal/engine"
	"github.com/mautops/notary-gin/internal/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// compileFixture 离线编译的输入文件
type compileFixture struct {
	Body    string                   `yaml:"body"`
	Fields  []engine.FieldSpec       `yaml:"fields"`
	Clients map[string]fixtureClient `yaml:"clients"`
	Values  map[string]string        `yaml:"values"`
	Office  fixtureOffice            `yaml:"office"`
	User    fixtureUser              `yaml:"user"`
	Now     string                   `yaml:"now"`
}

type fixtureClient struct {
	ID         string            `yaml:"id"`
	Attributes map[string]string `yaml:"attributes"`
}

type fixtureOffice struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Phone      string `yaml:"phone"`
	Address    string `yaml:"address"`
	NotaryName string `yaml:"notary_name"`
}

type fixtureUser struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// compileCmd 在本地编译模板,不连接数据库
var compileCmd = &cobra.Command{
	Use:   "compile <fixture.yaml>",
	Short: "Compile a template body against a YAML fixture",
	Long: `Compile a template body offline.
The fixture file carries the body, field definitions, clients by role,
manual values, office and user. The compiled text is written to stdout;
field errors and gaps are written to stderr. The command fails when a
required field has no valid value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fixture, err := loadFixture(args[0])
		if err != nil {
			return err
		}
		if bodyPath, _ := cmd.Flags().GetString("body"); bodyPath != "" {
			body, err := os.ReadFile(bodyPath)
			if err != nil {
				return fmt.Errorf("failed to read body: %w", err)
			}
			fixture.Body = string(body)
		}

		configPath, _ := cmd.Flags().GetString("config")
		cfg := config.Default()
		if configPath != "" {
			if cfg, err = config.Load(configPath); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
		}
		opts, err := service.NewEngineOptions(cfg.Engine)
		if err != nil {
			return err
		}

		defs, err := engine.BuildDefinitions(fixture.Fields)
		if err != nil {
			return err
		}
		rc, err := fixture.runtimeContext()
		if err != nil {
			return err
		}

		result := engine.NewCompiler(opts).Compile(fixture.Body, defs, rc)

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			printDiagnostics(cmd.ErrOrStderr(), result)
		}

		if result.Blocked() {
			return fmt.Errorf("%d required field(s) failed", len(result.Blocking()))
		}
		return nil
	},
}

func loadFixture(path string) (*compileFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f compileFixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

func (f *compileFixture) runtimeContext() (*engine.RuntimeContext, error) {
	rc := engine.NewRuntimeContext(
		engine.Actor{ID: f.User.ID, Name: f.User.Name},
		engine.Office{
			ID:         f.Office.ID,
			Name:       f.Office.Name,
			Phone:      f.Office.Phone,
			Address:    f.Office.Address,
			NotaryName: f.Office.NotaryName,
		},
	)
	if f.Now != "" {
		now, err := time.Parse(time.RFC3339, f.Now)
		if err != nil {
			return nil, fmt.Errorf("invalid now %q: %w", f.Now, err)
		}
		rc.Now = now
	}
	for role, c := range f.Clients {
		r := engine.Role(role)
		if !r.Valid() {
			return nil, fmt.Errorf("unknown client role %q", role)
		}
		rc.WithClient(r, &engine.Client{ID: c.ID, Attributes: c.Attributes})
	}
	rc.WithManual(f.Values)
	return rc, nil
}

func printDiagnostics(w io.Writer, result *engine.Result) {
	for _, e := range result.Blocking() {
		fmt.Fprintf(w, "error: %s (%s): %s\n", e.Key, e.Code, e.Message)
	}
	for _, e := range result.Warnings() {
		fmt.Fprintf(w, "warning: %s (%s): %s\n", e.Key, e.Code, e.Message)
	}
	for _, key := range result.Gaps {
		fmt.Fprintf(w, "gap: %s\n", key)
	}
	for _, name := range result.UnknownSystemValues {
		fmt.Fprintf(w, "unknown system value: %s\n", name)
	}
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().String("body", "", "Read the template body from this file instead of the fixture")
	compileCmd.Flags().Bool("json", false, "Print the full compile result as JSON")
}
