package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"voxarchive/internal/audiolinks"
	"voxarchive/internal/catalog"
	"voxarchive/internal/download"
	"voxarchive/internal/fileutil"
	"voxarchive/internal/series"
	"voxarchive/internal/transcribe"
)

type stageStatus struct {
	Stage   string `json:"stage"`
	Done    int    `json:"done"`
	Pending int    `json:"pending"`
}

type catalogStatus struct {
	Episodes       int           `json:"episodes"`
	ProcessedPages []int         `json:"processed_pages"`
	LastUpdated    string        `json:"last_updated,omitempty"`
	Backend        string        `json:"backend"`
	Stages         []stageStatus `json:"stages"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show how far each stage has progressed through the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg.CatalogPath())
			if err != nil {
				return err
			}
			m, err := series.Load(cfg.SeriesPath())
			if err != nil {
				return err
			}
			backend, err := transcribe.BackendFor(cfg.Transcription.Backend)
			if err != nil {
				return err
			}

			status := summarizeCatalog(store, m, backend)
			if jsonOutput {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog: %s\n", cfg.CatalogPath())
			fmt.Fprintf(out, "Episodes: %d, processed pages: %d\n", status.Episodes, len(status.ProcessedPages))
			if status.LastUpdated != "" {
				fmt.Fprintf(out, "Last updated: %s\n", status.LastUpdated)
			}
			rows := make([][]string, 0, len(status.Stages))
			for _, s := range status.Stages {
				rows = append(rows, []string{s.Stage, strconv.Itoa(s.Done), strconv.Itoa(s.Pending)})
			}
			fmt.Fprintln(out, renderTable([]string{"Stage", "Done", "Pending"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print status as JSON")
	return cmd
}

// summarizeCatalog counts pending records with the same predicates the
// stages use to build their worklists.
func summarizeCatalog(store *catalog.Store, m *series.Map, backend transcribe.Backend) catalogStatus {
	resolve := audiolinks.NewResolver(nil, 0)
	fetch := download.NewFetcher(download.Config{}, nil)
	transcriber := transcribe.NewStage(backend, nil)

	status := catalogStatus{
		Episodes:       store.Len(),
		ProcessedPages: store.ProcessedPages(),
		LastUpdated:    store.LastUpdated(),
		Backend:        backend.Name,
	}
	var dated, resolvePending, downloadPending, downloaded, transcribePending, transcribed, classifyPending, classified int
	for ep := range store.Select(nil) {
		if ep.PublishDate != "" {
			dated++
		}
		if resolve.Needs(ep) {
			resolvePending++
		}
		if fetch.Needs(ep) {
			downloadPending++
		}
		if fileutil.Exists(ep.FilePath) {
			downloaded++
		}
		if transcriber.Needs(ep) {
			transcribePending++
		}
		if !fileutil.Exists(ep.TranscriptPath()) {
			continue
		}
		transcribed++
		if m.Contains(ep.Key()) {
			classified++
		} else {
			classifyPending++
		}
	}
	status.Stages = []stageStatus{
		{Stage: "discover (dated)", Done: dated, Pending: status.Episodes - dated},
		{Stage: "resolve", Done: status.Episodes - resolvePending, Pending: resolvePending},
		{Stage: "download", Done: downloaded, Pending: downloadPending},
		{Stage: "transcribe (" + backend.Name + ")", Done: transcribed, Pending: transcribePending},
		{Stage: "classify", Done: classified, Pending: classifyPending},
	}
	return status
}
