package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pengelbrecht/aptitude/internal/profile"
)

// sqliteFile is the database name used when store.path is a directory.
const sqliteFile = "aptitude.db"

func (a *app) openProfileStore() (profile.Store, error) {
	path := a.cfg.Store.Path
	if a.cfg.Store.Backend == profile.BackendSQLite && filepath.Ext(path) == "" {
		path = filepath.Join(path, sqliteFile)
	}
	return profile.Open(a.cfg.Store.Backend, path)
}

func (a *app) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the stored company profile",
	}
	cmd.AddCommand(a.profileShowCmd(), a.profileSetCmd(), a.profileClearCmd())
	return cmd
}

func (a *app) profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored profile as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openProfileStore()
			if err != nil {
				return err
			}
			defer store.Close()

			d, err := store.Get(cmd.Context())
			if err != nil {
				return err
			}
			if d == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No company profile saved.")
				return nil
			}
			data, err := json.MarshalIndent(d, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func (a *app) profileSetCmd() *cobra.Command {
	var in profile.CompanyData

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields",
		Long: `Set merges the given fields into the stored profile and saves it. Fields
that are not given keep their stored values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openProfileStore()
			if err != nil {
				return err
			}
			defer store.Close()

			d, err := store.Get(cmd.Context())
			if err != nil {
				return err
			}
			if d == nil {
				d = &profile.CompanyData{}
			}

			flags := cmd.Flags()
			merge := map[string]func(){
				"company-name":   func() { d.CompanyName = in.CompanyName },
				"industry":       func() { d.Industry = in.Industry },
				"website":        func() { d.Website = in.Website },
				"email":          func() { d.Email = in.Email },
				"phone":          func() { d.Phone = in.Phone },
				"location":       func() { d.Location = in.Location },
				"description":    func() { d.Description = in.Description },
				"employee-count": func() { d.EmployeeCount = in.EmployeeCount },
				"founded-year":   func() { d.FoundedYear = in.FoundedYear },
				"hiring-roles":   func() { d.HiringRoles = in.HiringRoles },
			}
			changed := 0
			for name, apply := range merge {
				if flags.Changed(name) {
					apply()
					changed++
				}
			}
			if changed == 0 {
				return fmt.Errorf("no fields given")
			}

			if err := store.Save(cmd.Context(), d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved profile for %q\n", d.CompanyName)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.CompanyName, "company-name", "", "Company name")
	f.StringVar(&in.Industry, "industry", "", "Industry")
	f.StringVar(&in.Website, "website", "", "Website URL")
	f.StringVar(&in.Email, "email", "", "Contact email")
	f.StringVar(&in.Phone, "phone", "", "Contact phone")
	f.StringVar(&in.Location, "location", "", "Location")
	f.StringVar(&in.Description, "description", "", "Short description")
	f.IntVar(&in.EmployeeCount, "employee-count", 0, "Number of employees")
	f.IntVar(&in.FoundedYear, "founded-year", 0, "Year founded")
	f.StringSliceVar(&in.HiringRoles, "hiring-roles", nil, "Roles being hired (comma separated)")
	return cmd
}

func (a *app) profileClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openProfileStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile cleared.")
			return nil
		},
	}
}
