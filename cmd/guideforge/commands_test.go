package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/guideforge/internal/manifest"
)

const placeholder = "YOUR_IDT_SESSION_COOKIE_HERE"

func TestValidateConfigCommand(t *testing.T) {
	cfg := writeConfig(t, "https://api.genome.ucsc.edu", "https://eu.idtdna.com", placeholder)

	out, err := execute(t, "validate-config", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "hg38 -> IDT species human")
	assert.Contains(t, out, "session cookie not set")

	_, err = execute(t, "validate-config", "--config", cfg, "--require-cookie")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idt.session_cookie")
}

func TestValidateConfigCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "validate-config", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestScanCommand(t *testing.T) {
	cfg := writeConfig(t, "https://api.genome.ucsc.edu", "https://eu.idtdna.com", placeholder)
	fasta := writeFile(t, "seqs.fa", ">seq1\n"+flank+"\n")
	out := filepath.Join(t.TempDir(), "cands.csv")

	stdout, err := execute(t, "scan", "--config", cfg, fasta, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 NGG sites")

	lines := strings.Split(strings.TrimSpace(readFile(t, out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "parent,name,spacer,pam,strand,offset", lines[0])
	assert.Equal(t, "seq1,seq1_g1,ACGTACGATCGATCAGCTAG,AGG,+,0", lines[1])
}

func TestScanCommand_InvalidPattern(t *testing.T) {
	cfg := writeConfig(t, "https://api.genome.ucsc.edu", "https://eu.idtdna.com", placeholder)
	fasta := writeFile(t, "seqs.fa", ">seq1\n"+flank+"\n")

	_, err := execute(t, "scan", "--config", cfg, fasta, "--pam", "NXG", "-o", filepath.Join(t.TempDir(), "c.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized IUPAC letter")
}

func TestQCCommand(t *testing.T) {
	cfg := writeConfig(t, "https://api.genome.ucsc.edu", "https://eu.idtdna.com", placeholder)
	cands := writeFile(t, "cands.csv", "parent,name,spacer,pam,strand,offset\n"+
		"seq1,seq1_g1,ACGTACGATCGATCAGCTAG,AGG,+,0\n"+
		"seq1,seq1_g2,TTTTTTTTTTTTTTTTTTTT,TGG,+,4\n")
	out := filepath.Join(t.TempDir(), "qc.csv")

	stdout, err := execute(t, "qc", "--config", cfg, cands, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 of 2 candidates passed QC, 2 rows written")
	assert.Len(t, strings.Split(strings.TrimSpace(readFile(t, out)), "\n"), 3)

	stdout, err = execute(t, "qc", "--config", cfg, cands, "-o", out, "--filtered-only")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 rows written")
	lines := strings.Split(strings.TrimSpace(readFile(t, out)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "seq1_g1,true,"))
}

func TestSelectCommand(t *testing.T) {
	cfg := writeConfig(t, "https://api.genome.ucsc.edu", "https://eu.idtdna.com", placeholder)
	scored := writeFile(t, "scored.csv", "sequence_name,dna_sequence,on_target_score,off_target_score,on_plus_off,pam,strand,offset\n"+
		"seq1_g1,ACGTACGATCGATCAGCTAGAGG,60,50,110,AGG,+,0\n"+
		"seq1_g2,GTACGATCGATCAGCTAGAGTGG,55,45,100,TGG,+,3\n"+
		"seq1_g3,CCCCAGCTAGCATCGATCGATGG,50,40,90,TGG,+,20\n")
	out := filepath.Join(t.TempDir(), "top.csv")

	stdout, err := execute(t, "select", "--config", cfg, scored, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 selected across 1 sequences")
	content := readFile(t, out)
	assert.Contains(t, content, "seq1,1,seq1_g1,")
	assert.Contains(t, content, "seq1,2,seq1_g3,")
	assert.NotContains(t, content, "seq1_g2")

	stdout, err = execute(t, "select", "--config", cfg, scored, "-o", out, "--min-on", "58")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 selected across 1 sequences")

	_, err = execute(t, "select", "--config", cfg, scored, "-o", out, "--accepted-pams", "AGG")
	require.NoError(t, err)
	assert.NotContains(t, readFile(t, out), "seq1_g3")

	_, err = execute(t, "select", "--config", cfg, scored, "-o", out, "--num-guides", "0")
	require.Error(t, err)
}

func TestScoreCommand_RequiresCookie(t *testing.T) {
	cfg := writeConfig(t, "https://api.genome.ucsc.edu", "https://eu.idtdna.com", placeholder)

	_, err := execute(t, "score", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IDT session cookie not configured")
}

func TestScoreCommand_Ping(t *testing.T) {
	cfg := writeConfig(t, "https://api.genome.ucsc.edu", fakeIDT(t).URL, "session=abc")

	out, err := execute(t, "score", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "IDT session OK (on-target 70.0, off-target 40.0)")
}

func TestScoreCommand_File(t *testing.T) {
	cfg := writeConfig(t, "https://api.genome.ucsc.edu", fakeIDT(t).URL, "session=abc")
	cands := writeFile(t, "cands.fa", ">seq1_g1\nACGTACGATCGATCAGCTAGAGG\n>seq1_g2\nGTACGATCGATCAGCTAGAGTGG\n")
	out := filepath.Join(t.TempDir(), "scored.csv")

	stdout, err := execute(t, "score", "--config", cfg, cands, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(2 of 2 scored)")
	content := readFile(t, out)
	assert.Contains(t, content, "seq1_g1,ACGTACGATCGATCAGCTAGAGG,70,40,110,seq1,1,AGG")
	assert.Contains(t, content, "seq1_g2,GTACGATCGATCAGCTAGAGTGG,70,40,110,seq1,1,TGG")
}

func TestFetchCommand(t *testing.T) {
	cfg := writeConfig(t, fakeUCSC(t).URL, "https://eu.idtdna.com", placeholder)
	dir := t.TempDir()

	out, err := execute(t, "fetch", "--config", cfg, "chr1:1000-1020:+", "-o", dir, "--scan-pam", "--qc")
	require.NoError(t, err)
	assert.Contains(t, out, "Sequences for 1/1 targets")
	assert.Contains(t, out, "(2 sites)")
	assert.Contains(t, out, "(2 passed of 2)")

	for _, name := range []string{"Upstream_sequences.txt", "Downstream_sequences.txt", "CRISPR_candidates.txt", "CRISPR_candidates_qc.csv"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.Contains(t, readFile(t, filepath.Join(dir, "Upstream_sequences.txt")), "ACGTACGATCGATCAGCTAGAGGAAAAAAA")
}

func TestFetchCommand_QCRequiresScan(t *testing.T) {
	_, err := execute(t, "fetch", "chr1:1000-1020", "--qc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--qc requires --scan-pam")
}

func TestFetchCommand_NoValidTargets(t *testing.T) {
	cfg := writeConfig(t, fakeUCSC(t).URL, "https://eu.idtdna.com", placeholder)

	_, err := execute(t, "fetch", "--config", cfg, "chr1:50-10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid targets")
}

func TestRunCommand_SkipScoring(t *testing.T) {
	cfg := writeConfig(t, fakeUCSC(t).URL, "https://eu.idtdna.com", placeholder)
	dir := t.TempDir()

	out, err := execute(t, "run", "--config", cfg, "chr1:1000-1020:+", "-o", dir, "--skip-scoring")
	require.NoError(t, err)
	assert.Contains(t, out, "Scoring skipped")
	assert.NotContains(t, out, "Top guides")
	assert.FileExists(t, filepath.Join(dir, "manifest.json"))
	assert.NoFileExists(t, filepath.Join(dir, "top_guides.csv"))
}

func TestRunCommand_Full(t *testing.T) {
	cfg := writeConfig(t, fakeUCSC(t).URL, fakeIDT(t).URL, "session=abc")
	dir := t.TempDir()

	out, err := execute(t, "run", "--config", cfg, "chr1:1000-1020:+", "-o", dir, "--upstream", "25")
	require.NoError(t, err)
	assert.Contains(t, out, "Top guides: "+filepath.Join(dir, "top_guides.csv"))

	m, err := manifest.Read(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Stats.TargetsProcessed)
	assert.Equal(t, 25, m.Stats.UpstreamDistance)
	assert.Equal(t, 30, m.Stats.DownstreamDistance)
	assert.Equal(t, 2, m.Stats.GuidesSelected)
}

func TestRunCommand_MissingCookie(t *testing.T) {
	cfg := writeConfig(t, fakeUCSC(t).URL, "https://eu.idtdna.com", "")

	_, err := execute(t, "run", "--config", cfg, "chr1:1000-1020:+", "-o", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IDT session cookie not configured")
}

func TestManifestCommands(t *testing.T) {
	cfg := writeConfig(t, "https://api.genome.ucsc.edu", "https://eu.idtdna.com", placeholder)
	dir := t.TempDir()
	first := filepath.Join(dir, "m1.json")
	second := filepath.Join(dir, "m2.json")

	out, err := execute(t, "manifest", "write", "--config", cfg, "-o", first,
		"--stats", `{"targets_processed":3,"pam_candidates_found":40,"total_passed_qc":30,"total_failed_qc":10}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Manifest written to: "+first)

	m, err := manifest.Read(first)
	require.NoError(t, err)
	assert.Equal(t, "manual", m.Stats.PipelineType)
	assert.Equal(t, 0.75, m.Stats.QCPassRate)

	out, err = execute(t, "manifest", "validate", first)
	require.NoError(t, err)
	assert.Contains(t, out, "is a valid manifest")

	_, err = execute(t, "manifest", "write", "--config", cfg, "-o", second,
		"--stats", `{"targets_processed":3,"pam_candidates_found":41,"total_passed_qc":30,"total_failed_qc":11}`)
	require.NoError(t, err)

	out, err = execute(t, "manifest", "compare", first, second)
	require.NoError(t, err)
	assert.Contains(t, out, "pam_candidates_found: 40 -> 41")
	assert.Contains(t, out, "Configuration matches")
}

func TestManifestCommands_Invalid(t *testing.T) {
	cfg := writeConfig(t, "https://api.genome.ucsc.edu", "https://eu.idtdna.com", placeholder)

	_, err := execute(t, "manifest", "write", "--config", cfg, "-o", filepath.Join(t.TempDir(), "m.json"), "--stats", "{not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --stats JSON")

	bad := writeFile(t, "bad.json", `{"run_id":"x"}`)
	_, err = execute(t, "manifest", "validate", bad)
	require.Error(t, err)
}

func TestDocsCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")

	out, err := execute(t, "docs", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Docs written to")

	page, err := os.ReadFile(filepath.Join(dir, "guideforge_run.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(page), "---\ntitle: guideforge run\n---\n"))
	assert.FileExists(t, filepath.Join(dir, "guideforge_manifest_compare.md"))
}
