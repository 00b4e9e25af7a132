package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fetchview/fetchview/internal/filter"
	"github.com/fetchview/fetchview/internal/metadata"
)

// EntityOptions holds flags for the entity command.
type EntityOptions struct {
	*RootOptions
	SchemaDir string
	Refresh   bool
}

// EntityResult is the entity command's JSON payload.
type EntityResult struct {
	Entity     metadata.EntityDescriptor         `json:"entity"`
	Attributes []metadata.AttributeDescriptor    `json:"attributes"`
	ManyToOne  []metadata.RelationshipDescriptor `json:"manyToOne"`
	OneToMany  []metadata.RelationshipDescriptor `json:"oneToMany"`
	ManyToMany []metadata.RelationshipDescriptor `json:"manyToMany"`
}

// NewEntityCommand creates the entity inspection command.
func NewEntityCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EntityOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "entity <logicalname>",
		Short:         "Show an entity's metadata: attributes and relationships",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntity(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SchemaDir, "schema", "", "inspect a CUE schema snapshot instead of the live API")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "discard the metadata cache first")

	return cmd
}

func runEntity(opts *EntityOptions, logicalName string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return failCommand(formatter, ErrCodeConfig, err.Error())
	}
	resolver, cleanup, err := newResolver(cfg, opts.SchemaDir, opts.Refresh)
	if err != nil {
		return failCommand(formatter, ErrCodeConfig, err.Error())
	}
	defer cleanup()

	ctx := cmd.Context()
	result := &EntityResult{}

	ent, err := resolver.Entity(ctx, logicalName)
	if err != nil {
		return fail(formatter, ErrCodeNotFound, err.Error())
	}
	result.Entity = *ent

	if result.Attributes, err = resolver.Attributes(ctx, logicalName); err != nil {
		return fail(formatter, ErrCodeImport, err.Error())
	}
	if result.ManyToOne, err = resolver.Relationships(ctx, logicalName, metadata.ManyToOne); err != nil {
		return fail(formatter, ErrCodeImport, err.Error())
	}
	if result.OneToMany, err = resolver.Relationships(ctx, logicalName, metadata.OneToMany); err != nil {
		return fail(formatter, ErrCodeImport, err.Error())
	}
	if result.ManyToMany, err = resolver.ManyToMany(ctx, logicalName); err != nil {
		return fail(formatter, ErrCodeImport, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s (%s)\n", result.Entity.LogicalName, result.Entity.EntitySetName)
	if result.Entity.DisplayName != "" {
		fmt.Fprintf(formatter.Writer, "  display: %s\n", result.Entity.DisplayName)
	}
	fmt.Fprintf(formatter.Writer, "  primary id: %s\n", result.Entity.PrimaryIDAttribute)
	if result.Entity.PrimaryNameAttribute != "" {
		fmt.Fprintf(formatter.Writer, "  primary name: %s\n", result.Entity.PrimaryNameAttribute)
	}

	fmt.Fprintf(formatter.Writer, "\nAttributes (%d):\n", len(result.Attributes))
	for _, a := range result.Attributes {
		ops := len(filter.OperatorsFor(a.Type))
		fmt.Fprintf(formatter.Writer, "  %-32s %-18s %d operator(s)\n", a.LogicalName, a.Type, ops)
	}

	printRelationships(formatter, "Many-to-one", result.ManyToOne)
	printRelationships(formatter, "One-to-many", result.OneToMany)
	printRelationships(formatter, "Many-to-many", result.ManyToMany)
	return nil
}

func printRelationships(formatter *OutputFormatter, heading string, rels []metadata.RelationshipDescriptor) {
	if len(rels) == 0 {
		return
	}
	fmt.Fprintf(formatter.Writer, "\n%s (%d):\n", heading, len(rels))
	for _, r := range rels {
		fmt.Fprintf(formatter.Writer, "  %s: %s -> %s\n", r.SchemaName, r.ReferencingEntity, r.ReferencedEntity)
	}
}
