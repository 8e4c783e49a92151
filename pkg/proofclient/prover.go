package proofclient

import (
	"context"
	"encoding/json"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/zeroxbridge/sequencer/pkg/errs"
)

// inputDocument is the JSON scratch-file shape the downstream prover
// tooling expects: a single row holding every field element in order.
type inputDocument struct {
	Data [][]string `json:"data"`
}

// writeInputFiles writes the prover input vector into scratchDir in both
// forms required by the toolchain: input.cairo1.json (a data: [[...]]
// document) and input.cairo1.txt (space-separated, bracketed).
func writeInputFiles(scratchDir string, fields []*big.Int) error {
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return errs.Store("create scratch dir %s: %w", scratchDir, err)
	}

	strs := make([]string, len(fields))
	for i, f := range fields {
		strs[i] = f.String()
	}

	doc := inputDocument{Data: [][]string{strs}}
	jsonBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errs.Store("marshal prover input json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(scratchDir, "input.cairo1.json"), jsonBytes, 0o644); err != nil {
		return errs.Store("write input.cairo1.json: %w", err)
	}

	txt := "[" + strings.Join(strs, " ") + "]"
	if err := os.WriteFile(filepath.Join(scratchDir, "input.cairo1.txt"), []byte(txt), 0o644); err != nil {
		return errs.Store("write input.cairo1.txt: %w", err)
	}
	return nil
}

// Toolchain wraps the external Cairo prover's build and execute steps as
// subprocess invocations, grounded on the original build manager's
// "scarb build" invocation under a configured project directory.
type Toolchain struct {
	ProjectDir string
}

// Build runs the Cairo project's build step and returns the compiled
// artifact path it produced.
func (t *Toolchain) Build(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "scarb", "build")
	cmd.Dir = t.ProjectDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", errs.Prover("cairo build failed: %v: %s", err, string(out))
	}

	sierra, err := findSierraArtifact(filepath.Join(t.ProjectDir, "target", "dev"))
	if err != nil {
		return "", err
	}
	return sierra, nil
}

func findSierraArtifact(targetDir string) (string, error) {
	entries, err := os.ReadDir(targetDir)
	if err != nil {
		return "", errs.Prover("read cairo build output dir %s: %w", targetDir, err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sierra.json") {
			return filepath.Join(targetDir, e.Name()), nil
		}
	}
	return "", errs.Prover("no .sierra.json artifact found in %s", targetDir)
}

// executionResult is what Execute yields: the produced calldata
// directory, proof document, and an optional fact hash.
type executionResult struct {
	CalldataDir string
	ProofPath   string
	FactHash    string
}

// Execute runs the prover against the compiled artifact and the scratch
// input files, yielding the calldata directory and proof document paths.
func (t *Toolchain) Execute(ctx context.Context, sierraPath, scratchDir, outputDir string) (*executionResult, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errs.Store("create prover output dir %s: %w", outputDir, err)
	}

	cmd := exec.CommandContext(ctx, "scarb", "cairo-run",
		"--no-build",
		"--layout", "recursive",
		"--args-file", filepath.Join(scratchDir, "input.cairo1.txt"),
		"--output-dir", outputDir,
	)
	cmd.Dir = t.ProjectDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, errs.Prover("cairo prover execution failed: %v: %s", err, string(out))
	}

	calldataDir := filepath.Join(outputDir, "calldata")
	proofPath := filepath.Join(outputDir, "proof.json")
	if _, err := os.Stat(proofPath); err != nil {
		return nil, errs.Prover("prover did not produce %s: %w", proofPath, err)
	}

	factHash := readOptionalFactHash(outputDir)
	return &executionResult{CalldataDir: calldataDir, ProofPath: proofPath, FactHash: factHash}, nil
}

func readOptionalFactHash(outputDir string) string {
	b, err := os.ReadFile(filepath.Join(outputDir, "fact_hash.txt"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// CopyArtifacts copies the prover's calldata directory and proof document
// into the permanent per-deposit artifact tree, and writes fact_hash.txt
// there when the prover produced a fact hash.
func CopyArtifacts(result *executionResult, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errs.Store("create artifact dest dir %s: %w", destDir, err)
	}
	if err := copyDir(result.CalldataDir, filepath.Join(destDir, "calldata")); err != nil {
		return errs.Store("copy calldata: %w", err)
	}
	if err := copyFile(result.ProofPath, filepath.Join(destDir, "proof.json")); err != nil {
		return errs.Store("copy proof.json: %w", err)
	}
	if result.FactHash != "" {
		if err := os.WriteFile(filepath.Join(destDir, "fact_hash.txt"), []byte(result.FactHash), 0o644); err != nil {
			return errs.Store("write fact_hash.txt: %w", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	for _, e := range entries {
		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}
