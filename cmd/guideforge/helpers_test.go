package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// flank holds one forward NGG site and no reverse site.
const flank = "ACGTACGATCGATCAGCTAGAGGAAAAAAA"

// execute runs the root command in-process with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeConfig writes config.yaml and policy.yaml into a temp dir and returns the config path.
func writeConfig(t *testing.T, ucscURL, idtURL, cookie string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`ucsc:
  base_url: %s
  genome_assembly: hg38
  upstream_distance: 30
  downstream_distance: 30
  retries: 1
idt:
  base_url: %s
  session_cookie: %q
  retry_attempts: 1
pam_scanning:
  pattern: NGG
policy_file: policy.yaml
`, ucscURL, idtURL, cookie)
	policy := `quality_control:
  gc_min: 0.35
  gc_max: 0.80
  max_poly_t: 4
  max_homopolymer: 5
guide_selection:
  num_guides_per_gene: 2
  min_spacing_bp: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "policy.yaml"), []byte(policy), 0o644))
	return filepath.Join(dir, "config.yaml")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// fakeUCSC serves flank for every request.
func fakeUCSC(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		start, _ := strconv.Atoi(q.Get("start"))
		end, _ := strconv.Atoi(q.Get("end"))
		n := min(end-start, len(flank))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"dna": strings.ToLower(flank[:n])})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeIDT scores every submitted sequence with on=70, off=40.
func fakeIDT(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			NamedSequences []struct{ Name string } `json:"NamedSequences"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		details := make([]map[string]any, 0, len(req.NamedSequences))
		for _, s := range req.NamedSequences {
			details = append(details, map[string]any{"Props": []map[string]any{
				{"FieldName": "SearchField", "FieldValue": s.Name},
				{"FieldName": "OnTargetPotential", "FieldValue": 70},
				{"FieldName": "OffTargetRiskSpecificity", "FieldValue": 40},
			}})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{{"LookupKey": "k", "Details": details}})
	}))
	t.Cleanup(srv.Close)
	return srv
}
