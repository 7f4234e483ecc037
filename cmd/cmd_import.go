package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"climate-server/internal/db"
	"climate-server/internal/importer"
)

func (c *cli) importCmd() *cobra.Command {
	var stationsPath, measurementsPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load station and measurement CSV files",
		Long: `Load hawaii_stations.csv and hawaii_measurements.csv style files into an
initialised store in a single transaction. Empty cells are stored as NULL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if stationsPath == "" && measurementsPath == "" {
				return errors.New("nothing to import: pass --stations and/or --measurements")
			}

			stations, closeStations, err := openOptional(stationsPath)
			if err != nil {
				return err
			}
			defer closeStations()
			measurements, closeMeasurements, err := openOptional(measurementsPath)
			if err != nil {
				return err
			}
			defer closeMeasurements()

			conn, err := db.Open(c.cfg, db.ReadWrite)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(conn) }()

			res, err := importer.Import(cmd.Context(), conn, db.DialectFor(c.cfg.DBDriver), stations, measurements)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d stations, %d measurements\n", res.Stations, res.Measurements)
			return err
		},
	}
	cmd.Flags().StringVar(&stationsPath, "stations", "", "stations CSV (station,name,latitude,longitude,elevation)")
	cmd.Flags().StringVar(&measurementsPath, "measurements", "", "measurements CSV (station,date,prcp,tobs)")
	return cmd
}

// openOptional opens path, or returns a nil reader when path is empty.
func openOptional(path string) (io.Reader, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
