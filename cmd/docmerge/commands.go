package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/docmerge/pkg/docmerge/config"
	"github.com/randalmurphal/docmerge/pkg/docmerge/document"
	"github.com/randalmurphal/docmerge/pkg/docmerge/export"
	"github.com/randalmurphal/docmerge/pkg/docmerge/history"
	"github.com/randalmurphal/docmerge/pkg/docmerge/placeholder"
	"github.com/randalmurphal/docmerge/pkg/docmerge/record"
)

// errMissingFields makes validate exit non-zero.
var errMissingFields = errors.New("record is missing template fields")

func (c *cli) renderCmd() *cobra.Command {
	var (
		templateRef string
		employeeID  string
		toStdout    bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Merge a template with an employee record and export it",
		Example: `  docmerge render --template contract --employee 17
  docmerge render --template contract --employee 17 --stdout > contract.html`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()

			doc, err := a.merge(cmd, templateRef, employeeID)
			if err != nil {
				return err
			}

			if toStdout {
				_, err := export.NewHTMLExporter().Export(ctx, doc, c.out)
				return err
			}

			path, size, err := a.writer.Write(ctx, doc)
			if err != nil {
				return err
			}
			if err := a.history.Save(history.EntryFor(doc, filepath.Base(path))); err != nil {
				return fmt.Errorf("record history: %w", err)
			}
			fmt.Fprintf(c.out, "%s (%d bytes)\n", path, size)
			return nil
		},
	}
	cmd.Flags().StringVarP(&templateRef, "template", "t", "", "catalog id or template file name")
	cmd.Flags().StringVarP(&employeeID, "employee", "e", "", "employee record id")
	cmd.Flags().String("out", config.Defaults().Export.Dir, "output directory")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write the HTML to stdout instead of a file")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("employee")
	c.bindFlags(cmd.Flags(), map[string]string{"export.dir": "out"})
	return cmd
}

// merge loads the record and template and renders the document, printing
// fallback notices and missing fields to stderr.
func (a *app) merge(cmd *cobra.Command, templateRef, employeeID string) (*document.Document, error) {
	ctx := cmd.Context()
	tpl, err := a.template(templateRef)
	if err != nil {
		return nil, err
	}
	rec, err := a.records.Record(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	doc, err := a.merger.Merge(ctx, document.Request{
		Template: tpl,
		RecordID: employeeID,
		Record:   rec,
	})
	if err != nil {
		return nil, err
	}

	errOut := cmd.ErrOrStderr()
	if doc.Fallback {
		fmt.Fprintln(errOut, "Notice:", doc.Notice)
	}
	if len(doc.MissingFields) > 0 {
		fmt.Fprintf(errOut, "Missing fields (rendered empty): %s\n", strings.Join(doc.MissingFields, ", "))
	}
	return doc, nil
}

func (c *cli) fieldsCmd() *cobra.Command {
	var templateRef string
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the placeholder fields a template uses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpl, err := c.app.template(templateRef)
			if err != nil {
				return err
			}
			names, err := c.app.merger.Placeholders(cmd.Context(), tpl)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(c.out, name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&templateRef, "template", "t", "", "catalog id or template file name")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	var (
		templateRef string
		employeeID  string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that an employee record has every field a template needs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tpl, err := c.app.template(templateRef)
			if err != nil {
				return err
			}
			names, err := c.app.merger.Placeholders(ctx, tpl)
			if err != nil {
				return err
			}
			rec, err := c.app.records.Record(ctx, employeeID)
			if err != nil {
				return err
			}

			result := placeholder.ValidateRecord(rec, names)
			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else if result.IsValid {
				fmt.Fprintf(c.out, "OK: employee %s has all %d fields of %s\n", employeeID, len(names), tpl.ID)
			} else {
				fmt.Fprintf(c.out, "Missing %d of %d fields:\n", len(result.MissingFields), len(names))
				for _, f := range result.MissingFields {
					fmt.Fprintf(c.out, "  %s\n", f)
				}
			}
			if !result.IsValid {
				return errMissingFields
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&templateRef, "template", "t", "", "catalog id or template file name")
	cmd.Flags().StringVarP(&employeeID, "employee", "e", "", "employee record id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}

func (c *cli) templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List catalog templates grouped by category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			groups := c.app.catalog.GroupByCategory()
			if len(groups) == 0 {
				fmt.Fprintln(c.out, "No templates in catalog.")
				return nil
			}
			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			for _, g := range groups {
				fmt.Fprintf(w, "%s\n", g.Category)
				for _, t := range g.Templates {
					planning := ""
					if t.IsPlanning {
						planning = "planning"
					}
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", t.ID, t.Name, t.FileName, planning)
				}
			}
			return w.Flush()
		},
	}
}

func (c *cli) employeesCmd() *cobra.Command {
	var sortByName bool
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "List employee records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.app.records.List(cmd.Context())
			if err != nil {
				return err
			}
			if sortByName {
				record.SortByName(list)
			}
			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, s := range list {
				fmt.Fprintf(w, "%s\t%s\n", s.ID, s.Name)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&sortByName, "sort", false, "sort by name instead of file order")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	var (
		limit     int
		olderThan time.Duration
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or prune the export history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := c.app.history
			if _, ok := store.(*history.MemoryStore); ok {
				fmt.Fprintln(c.errOut, "Note: history is kept in memory for this run only; set --history-db to keep it.")
			}
			if olderThan > 0 {
				n, err := store.DeleteBefore(time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Pruned %d entries.\n", n)
				return nil
			}

			entries, err := store.List(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(c.out, "No exports recorded.")
				return nil
			}
			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tTEMPLATE\tEMPLOYEE\tFILE\tMISSING\tFALLBACK")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\n",
					e.CreatedAt.Local().Format(time.DateTime), e.TemplateID, e.RecordID, e.Filename,
					len(e.MissingFields), e.Fallback)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show (0 for all)")
	cmd.Flags().DurationVar(&olderThan, "prune-older-than", 0, "delete entries older than this instead of listing")
	return cmd
}
